package storage

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Publisher persists processed bytes to durable storage and returns a public URL.
type Publisher interface {
	Publish(ctx context.Context, data []byte, fileName, mimeType, folder string) (string, error)
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// objectKey builds "<folder>/<uuid>-<name>" so repeated imports never overwrite each other.
func objectKey(folder, fileName string) string {
	name := unsafeChars.ReplaceAllString(path.Base(fileName), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "image"
	}
	folder = strings.Trim(path.Clean("/"+folder), "/")
	key := uuid.New().String() + "-" + name
	if folder == "" {
		return key
	}
	return folder + "/" + key
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

func validate(data []byte, folder string) error {
	if len(data) == 0 {
		return fmt.Errorf("nothing to publish")
	}
	if strings.Contains(folder, "..") {
		return fmt.Errorf("invalid folder %q", folder)
	}
	return nil
}
