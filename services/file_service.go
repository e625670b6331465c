package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"filebox/config"
	"filebox/logger"
	"filebox/models"
	"filebox/repositories"
	"filebox/storage"

	"gorm.io/gorm"
)

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	// Size is the declared length, -1 when unknown.
	Size       int64
	FolderPath string
}

type FileListOutput struct {
	Files      []models.File `json:"files"`
	FolderPath string        `json:"folder_path"`
}

type FileDownload struct {
	File    models.File
	Content io.ReadCloser
}

// DeleteFileOutput reports a blob that could not be removed. The record is
// gone either way.
type DeleteFileOutput struct {
	BlobRemoved bool   `json:"-"`
	Warning     string `json:"warning,omitempty"`
}

type FileService interface {
	Upload(ctx context.Context, userID uint, in UploadInput) (models.File, error)
	List(ctx context.Context, userID uint, folderPath string) (FileListOutput, error)
	Get(ctx context.Context, userID uint, fileID uint) (models.File, error)
	Open(ctx context.Context, file models.File) (io.ReadCloser, error)
	Download(ctx context.Context, userID uint, fileID uint) (FileDownload, error)
	Rename(ctx context.Context, userID uint, fileID uint, newName string) (models.File, error)
	Delete(ctx context.Context, userID uint, fileID uint) (DeleteFileOutput, error)
}

type fileService struct {
	txManager repositories.TxManager
	files     repositories.FileRepository
	blobs     storage.BlobStore
	limits    config.StorageConfig
}

func NewFileService(txManager repositories.TxManager, files repositories.FileRepository, blobs storage.BlobStore, limits config.StorageConfig) FileService {
	return &fileService{txManager: txManager, files: files, blobs: blobs, limits: limits}
}

func (s *fileService) Upload(ctx context.Context, userID uint, in UploadInput) (models.File, error) {
	name := sanitizeFilename(in.Filename)
	if in.Reader == nil || name == "" {
		return models.File{}, validationError(ErrEmptyFilename)
	}
	if !isFileExtensionAllowed(s.limits.AllowedExtensions, name) {
		return models.File{}, validationError(ErrDisallowedExtension)
	}
	maxSize := s.limits.MaxFileSize
	if maxSize > 0 && in.Size > maxSize {
		return models.File{}, validationError(ErrFileTooLarge)
	}

	ext := fileExtension(name)
	storageName := newStorageName(ext)
	key := storage.UserKey(userID, storageName)

	reader := in.Reader
	if maxSize > 0 {
		// One extra byte tells an oversized body apart from an exact fit.
		reader = io.LimitReader(in.Reader, maxSize+1)
	}
	written, err := s.blobs.Put(ctx, key, reader, in.Size)
	if err != nil {
		return models.File{}, ioError("failed to store file", err)
	}
	if maxSize > 0 && written > maxSize {
		s.discardBlob(ctx, key)
		return models.File{}, validationError(ErrFileTooLarge)
	}

	mimeType := strings.TrimSpace(in.ContentType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = getMimeType(ext)
	}

	file := models.File{
		Name:         storageName,
		OriginalName: name,
		FilePath:     key,
		FileSize:     written,
		MimeType:     mimeType,
		UserID:       userID,
		FolderPath:   normalizeFolderPath(in.FolderPath),
	}
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		return s.files.Create(ctx, tx, &file)
	})
	if err != nil {
		s.discardBlob(ctx, key)
		return models.File{}, internalError("failed to save file record", err)
	}

	logger.Debugf("user %d uploaded %q as %s (%d bytes)", userID, name, key, written)
	return file, nil
}

func (s *fileService) List(ctx context.Context, userID uint, folderPath string) (FileListOutput, error) {
	folder := normalizeFolderPath(folderPath)
	files, err := s.files.ListByFolder(ctx, nil, userID, folder)
	if err != nil {
		return FileListOutput{}, internalError("failed to list files", err)
	}
	return FileListOutput{Files: files, FolderPath: folder}, nil
}

// Get never distinguishes "absent" from "owned by someone else".
func (s *fileService) Get(ctx context.Context, userID uint, fileID uint) (models.File, error) {
	file, err := s.files.GetByIDAndUser(ctx, nil, fileID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.File{}, notFoundError(ErrFileNotFound)
		}
		return models.File{}, internalError("failed to query file", err)
	}
	return file, nil
}

func (s *fileService) Open(ctx context.Context, file models.File) (io.ReadCloser, error) {
	rc, err := s.blobs.Open(ctx, file.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFoundError(ErrBlobMissing)
		}
		return nil, ioError("failed to open file", err)
	}
	return rc, nil
}

func (s *fileService) Download(ctx context.Context, userID uint, fileID uint) (FileDownload, error) {
	file, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return FileDownload{}, err
	}
	content, err := s.Open(ctx, file)
	if err != nil {
		return FileDownload{}, err
	}
	return FileDownload{File: file, Content: content}, nil
}

// Rename only changes the display name; the blob keeps its key.
func (s *fileService) Rename(ctx context.Context, userID uint, fileID uint, newName string) (models.File, error) {
	name := sanitizeFilename(newName)
	if name == "" {
		return models.File{}, validationError(ErrEmptyName)
	}

	file, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return models.File{}, err
	}
	if err := s.files.UpdateByIDAndUser(ctx, nil, fileID, userID, map[string]interface{}{"original_name": name}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.File{}, notFoundError(ErrFileNotFound)
		}
		return models.File{}, internalError("failed to rename file", err)
	}
	file.OriginalName = name
	return file, nil
}

// Delete removes the record first. A blob that cannot be removed afterwards
// is reported as a warning, never as a failure.
func (s *fileService) Delete(ctx context.Context, userID uint, fileID uint) (DeleteFileOutput, error) {
	file, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return DeleteFileOutput{}, err
	}

	var deleted int64
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = s.files.DeleteByIDAndUser(ctx, tx, file.ID, userID)
		return err
	})
	if err != nil {
		return DeleteFileOutput{}, internalError("failed to delete file", err)
	}
	if deleted == 0 {
		return DeleteFileOutput{}, notFoundError(ErrFileNotFound)
	}

	if err := s.blobs.Remove(ctx, file.FilePath); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Warnf("file %d: blob %s was already missing", file.ID, file.FilePath)
			return DeleteFileOutput{Warning: "stored content was already missing"}, nil
		}
		logger.Warnf("file %d: remove blob %s: %v", file.ID, file.FilePath, err)
		return DeleteFileOutput{Warning: "stored content could not be removed"}, nil
	}
	return DeleteFileOutput{BlobRemoved: true}, nil
}

func (s *fileService) discardBlob(ctx context.Context, key string) {
	if err := s.blobs.Remove(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.Warnf("discard blob %s: %v", key, err)
	}
}
