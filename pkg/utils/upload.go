package utils

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrMissingFile is returned when the multipart form has no file for the field.
var ErrMissingFile = errors.New("missing file")

// ReadImageFile reads an uploaded image from a multipart form field,
// enforcing the size ceiling and the image/* MIME filter at the upload
// boundary. Returns the raw bytes and the declared content type.
func ReadImageFile(c *gin.Context, field string, maxBytes int64) ([]byte, string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, "", ErrMissingFile
	}
	if header.Size > maxBytes {
		return nil, "", fmt.Errorf("file exceeds %d bytes", maxBytes)
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("only images are allowed, got %q", contentType)
	}
	f, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("file exceeds %d bytes", maxBytes)
	}
	return data, contentType, nil
}
