package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DocumentStore persists uploaded booking documents (passport photos) and
// hands back an opaque reference. The ledger only ever stores the reference;
// content retrieval and retention are this store's concern.
type DocumentStore interface {
	Save(ctx context.Context, bookingID uuid.UUID, filename string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// DiskStore keeps documents under root/<bookingID>/<uuid><ext>. Refs are the
// path relative to root, so they stay stable if the root moves.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("document store: create root %s: %w", root, err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) Save(ctx context.Context, bookingID uuid.UUID, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	rel := filepath.Join(bookingID.String(), uuid.NewString()+ext)

	dir := filepath.Join(s.root, bookingID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("document store: create dir: %w", err)
	}

	full := filepath.Join(s.root, rel)
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("document store: create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("document store: write file: %w", err)
	}
	return rel, nil
}

func (s *DiskStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	// refs come back from the DB, but treat them as hostile anyway
	clean := filepath.Clean(ref)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("document store: invalid ref %q", ref)
	}
	return os.Open(filepath.Join(s.root, clean))
}
