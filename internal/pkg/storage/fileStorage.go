package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
)

type FileStorage interface {
	Save(path string, data io.Reader) error
}

type fileStorage struct {
	basePath string
}

func NewFileStorage(basePath string) FileStorage {
	return &fileStorage{basePath: basePath}
}

func (s *fileStorage) Save(path string, data io.Reader) error {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(path))

	// Создаем директорию если нужно
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(file, data)
	return err
}

// LocalPublisher writes published images under the storage base path;
// the transport layer serves that directory under PublicBaseURL.
type LocalPublisher struct {
	storage       FileStorage
	publicBaseURL string
}

func NewLocalPublisher(storage FileStorage, publicBaseURL string) *LocalPublisher {
	return &LocalPublisher{storage: storage, publicBaseURL: publicBaseURL}
}

func (p *LocalPublisher) Publish(ctx context.Context, data []byte, fileName, mimeType, folder string) (string, error) {
	if err := validate(data, folder); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := objectKey(folder, fileName)
	if err := p.storage.Save(key, bytes.NewReader(data)); err != nil {
		return "", err
	}
	return joinURL(p.publicBaseURL, key), nil
}
