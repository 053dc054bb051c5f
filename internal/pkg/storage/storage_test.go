package storage

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "http://files.test/")
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "reports/1.json", strings.NewReader(`{"id":1}`), "application/json"))

	ok, err := s.Exists(ctx, "reports/1.json")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Get(ctx, "reports/1.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.JSONEq(t, `{"id":1}`, string(body))

	assert.Equal(t, "http://files.test/reports/1.json", s.GetURL("reports/1.json"))

	require.NoError(t, s.Delete(ctx, "reports/1.json"))
	require.NoError(t, s.Delete(ctx, "reports/1.json"), "deleting twice is not an error")

	_, err = s.Get(ctx, "reports/1.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "http://files.test")
	require.NoError(t, err)

	err = s.Put(context.Background(), "../escape.txt", strings.NewReader("x"), "text/plain")
	assert.Error(t, err)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NotFound"}))
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NoSuchKey"}))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("network down")))
}

func TestReadImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	data, mime, err := ReadImage(bytes.NewReader(buf.Bytes()), MaxIconSize)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Len(t, data, buf.Len())

	_, _, err = ReadImage(strings.NewReader("plain text"), MaxIconSize)
	assert.ErrorIs(t, err, ErrInvalidMimeType)

	_, _, err = ReadImage(bytes.NewReader(nil), MaxIconSize)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, _, err = ReadImage(bytes.NewReader(buf.Bytes()), 8)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}
