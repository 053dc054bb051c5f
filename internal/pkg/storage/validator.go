package storage

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidMimeType = errors.New("file type not allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

// MaxIconSize is the upload limit for badge icons
const MaxIconSize = 2 * 1024 * 1024

var iconMimeTypes = []string{"image/jpeg", "image/png", "image/gif"}

// ReadImage reads at most maxSize bytes and sniffs the MIME type from magic bytes.
func ReadImage(reader io.Reader, maxSize int64) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(reader, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyFile
	}
	if int64(len(data)) > maxSize {
		return nil, "", ErrFileTooLarge
	}

	mimeType := http.DetectContentType(data)
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}

	for _, t := range iconMimeTypes {
		if t == mimeType {
			return data, mimeType, nil
		}
	}
	return nil, "", ErrInvalidMimeType
}
