package storage

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// DetectContentType determines the MIME type of an object: the provided type
// if any, else the key's extension, else a sniff of the first 512 bytes of
// data, else application/octet-stream.
func DetectContentType(providedType, key string, data io.Reader) string {
	if providedType != "" {
		return providedType
	}

	if contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(key))); contentType != "" {
		return contentType
	}

	if data != nil {
		buffer := make([]byte, 512)
		n, err := io.ReadFull(data, buffer)
		if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
			return http.DetectContentType(buffer[:n])
		}
	}

	return "application/octet-stream"
}

// validateKey rejects empty keys and keys with parent-directory segments.
func validateKey(key string) error {
	if key == "" || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
