package object

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"

	"annotation-backend/internal/shared/util"
)

// Parts of an uploaded document pair.
const (
	PartSource    = "source"
	PartGenerated = "generated"
)

// ObjectStore defines the contract for archiving and retrieving uploaded originals.
type ObjectStore interface {
	// Put stores r under key. An empty contentType is sniffed from the first bytes.
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// DocumentKey builds the storage key for one part of a document's uploaded originals.
func DocumentKey(documentID, part, fileName string) (string, error) {
	if documentID == "" {
		return "", fmt.Errorf("document id is required")
	}
	if part != PartSource && part != PartGenerated {
		return "", fmt.Errorf("unknown document part %q", part)
	}
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join("documents", documentID, part+"_"+name), nil
}

// Sniff reads up to 512 bytes to detect the content type and returns a reader
// that replays them ahead of the rest of r.
func Sniff(r io.Reader) (string, io.Reader, error) {
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read sniff: %w", err)
	}
	return http.DetectContentType(head[:n]), io.MultiReader(bytes.NewReader(head[:n]), r), nil
}
