package services

import (
	"time"

	"filebox/config"
	"filebox/repositories"
	"filebox/storage"
)

type Container struct {
	Tokens TokenService
	Gate   AuthGate
	Auth   AuthService
	File   FileService
}

// NewContainer wires every service. now may be nil; tests pass a fixed clock.
func NewContainer(repos repositories.Container, blobs storage.BlobStore, cfg *config.Config, now func() time.Time) *Container {
	tokens := NewTokenService(repos.Users, cfg.JWT, now)
	return &Container{
		Tokens: tokens,
		Gate:   NewAuthGate(tokens, repos.Users),
		Auth:   NewAuthService(repos.TxManager, repos.Users, repos.LoginAttempts, tokens, cfg.Security),
		File:   NewFileService(repos.TxManager, repos.Files, blobs, cfg.Storage),
	}
}
