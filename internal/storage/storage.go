package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var ErrObjectNotFound = errors.New("object not found in storage")

// Storage абстрагирует хранилище файлов (документы, аватары)
type Storage interface {
	// Save сохраняет объект по ключу
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Get открывает объект на чтение; вызывающий закрывает reader
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete удаляет объект. Отсутствующий объект не считается ошибкой
	Delete(ctx context.Context, key string) error

	// Exists проверяет наличие объекта
	Exists(ctx context.Context, key string) (bool, error)

	// URL возвращает публичную ссылку на объект
	URL(key string) string

	// SignedURL возвращает временную подписанную ссылку
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Config содержит настройки хранилища
type Config struct {
	Type      string // local или s3
	BasePath  string // для local
	BaseURL   string // база публичных ссылок
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // для R2 и S3-совместимых хранилищ
}

// New создает хранилище по конфигурации
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "local", "":
		return NewLocalStorage(cfg)
	case "s3", "cloudflare_r2":
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
