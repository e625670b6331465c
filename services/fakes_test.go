package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"filebox/config"
	"filebox/models"
	"filebox/storage"
	"filebox/utils"

	"gorm.io/gorm"
)

type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	mu        sync.Mutex
	usersByID map[uint]models.User
	nextID    uint
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{usersByID: map[uint]models.User{}, nextID: 1}
}

func (r *fakeUserRepo) CountByUsername(_ context.Context, username string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.usersByID {
		if u.Username == username {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) CountByEmail(_ context.Context, email string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.usersByID {
		if u.Email == email {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	}
	r.usersByID[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, _ *gorm.DB, username string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.usersByID {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, _ *gorm.DB, userID uint) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.usersByID[userID]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) SetRefreshTokenHash(_ context.Context, _ *gorm.DB, userID uint, hash *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.usersByID[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if hash != nil {
		h := *hash
		hash = &h
	}
	user.RefreshTokenHash = hash
	r.usersByID[userID] = user
	return nil
}

func (r *fakeUserRepo) SwapRefreshTokenHash(_ context.Context, _ *gorm.DB, userID uint, oldHash string, newHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.usersByID[userID]
	if !ok || user.RefreshTokenHash == nil || *user.RefreshTokenHash != oldHash {
		return false, nil
	}
	user.RefreshTokenHash = &newHash
	r.usersByID[userID] = user
	return true, nil
}

func (r *fakeUserRepo) add(username string, password string) models.User {
	hash, err := utils.HashPassword(password)
	if err != nil {
		panic(err)
	}
	user := models.User{Username: username, Email: username + "@example.com", Password: hash}
	_ = r.Create(context.Background(), nil, &user)
	return user
}

type fakeFileRepo struct {
	mu        sync.Mutex
	files     map[uint]models.File
	nextID    uint
	createErr error
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: map[uint]models.File{}, nextID: 1}
}

func (r *fakeFileRepo) Create(_ context.Context, _ *gorm.DB, file *models.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	file.ID = r.nextID
	r.nextID++
	file.CreatedAt = time.Unix(int64(1700000000+file.ID), 0)
	r.files[file.ID] = *file
	return nil
}

func (r *fakeFileRepo) ListByFolder(_ context.Context, _ *gorm.DB, userID uint, folderPath string) ([]models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := []models.File{}
	for _, f := range r.files {
		if f.UserID == userID && f.FolderPath == folderPath {
			list = append(list, f)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (r *fakeFileRepo) GetByIDAndUser(_ context.Context, _ *gorm.DB, fileID uint, userID uint) (models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.UserID != userID {
		return models.File{}, gorm.ErrRecordNotFound
	}
	return f, nil
}

func (r *fakeFileRepo) UpdateByIDAndUser(_ context.Context, _ *gorm.DB, fileID uint, userID uint, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	if name, ok := updates["original_name"].(string); ok {
		f.OriginalName = name
	}
	r.files[fileID] = f
	return nil
}

func (r *fakeFileRepo) DeleteByIDAndUser(_ context.Context, _ *gorm.DB, fileID uint, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.UserID != userID {
		return 0, nil
	}
	delete(r.files, fileID)
	return 1, nil
}

type fakeAttempts struct {
	mu       sync.Mutex
	failures map[string]int64
	err      error
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{failures: map[string]int64{}}
}

func (a *fakeAttempts) Failures(_ context.Context, key string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return 0, a.err
	}
	return a.failures[key], nil
}

func (a *fakeAttempts) RecordFailure(_ context.Context, key string, _ time.Duration) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return 0, a.err
	}
	a.failures[key]++
	return a.failures[key], nil
}

func (a *fakeAttempts) Reset(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.failures, key)
	return a.err
}

type fakeBlobStore struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	putErr    error
	removeErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[string][]byte{}}
}

func (b *fakeBlobStore) Put(_ context.Context, key string, r io.Reader, _ int64) (int64, error) {
	if b.putErr != nil {
		return 0, b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = data
	return int64(len(data)), nil
}

func (b *fakeBlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *fakeBlobStore) Remove(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.removeErr != nil {
		return b.removeErr
	}
	if _, ok := b.blobs[key]; !ok {
		return storage.ErrNotFound
	}
	delete(b.blobs, key)
	return nil
}

func (b *fakeBlobStore) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.blobs[key]
	return ok
}

// fakeClock is a settable time source shared by the token tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", AccessTTL: time.Hour, RefreshTTL: 30 * 24 * time.Hour}
}

func assertAppError(t interface {
	Helper()
	Fatalf(string, ...interface{})
}, err error, wantCode int, wantKind string) *AppError {
	t.Helper()
	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T (%v)", err, err)
	}
	if appErr.HTTPCode != wantCode || appErr.Kind != wantKind {
		t.Fatalf("expected %d/%s, got %d/%s (%v)", wantCode, wantKind, appErr.HTTPCode, appErr.Kind, appErr)
	}
	return appErr
}
