// Package fs implements the archive Store on the local filesystem. Keys map
// to relative file paths under a root directory; a JSON sidecar (`.meta`)
// carries content type and user metadata. Writes are atomic per file via a
// temp-file rename, but the store is not safe for concurrent writers of the
// same key.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"tesim/internal/archive"
)

// Compile-time contract assertion.
var _ archive.Store = (*Store)(nil)

// Store is a filesystem-backed archive rooted at a directory.
type Store struct {
	root string
}

// New returns a filesystem archive rooted at path, creating it if needed.
// An empty root defaults to ./rundata.
func New(root string) (*Store, error) {
	if root == "" {
		root = "./rundata"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

// Driver returns the archive driver identifier.
func (s *Store) Driver() archive.Driver { return archive.DriverFilesystem }

// sanitizeKey forbids traversal and absolute paths so keys stay under root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key contains '..'")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key")
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid key traversal")
	}
	return clean, nil
}

func (s *Store) pathFor(key string) (dataPath, metaPath string, err error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", "", err
	}
	dataPath = filepath.Join(s.root, k)
	metaPath = dataPath + ".meta"
	return
}

type metaFile struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag"`
	Size        int64             `json:"size"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Put streams the object to a temp file, computes its digest, and moves it
// into place. Fails if the key already exists.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts archive.PutOptions) (archive.Info, error) {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return archive.Info{}, err
	}
	if _, err := os.Stat(dataPath); err == nil {
		return archive.Info{}, fmt.Errorf("object %s already exists", key)
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return archive.Info{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".tmp-*")
	if err != nil {
		return archive.Info{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		_ = tmp.Close()
		return archive.Info{}, err
	}
	if err := tmp.Close(); err != nil {
		return archive.Info{}, err
	}
	etag := hex.EncodeToString(h.Sum(nil))
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return archive.Info{}, err
	}
	now := time.Now().UTC()
	mf := metaFile{ContentType: opts.ContentType, Metadata: cloneMetadata(opts.Metadata), ETag: etag, Size: size, CreatedAt: now}
	if err := writeJSON(metaPath, mf); err != nil {
		return archive.Info{}, err
	}
	return archive.Info{
		Key:          key,
		Size:         size,
		ContentType:  opts.ContentType,
		ETag:         etag,
		Metadata:     cloneMetadata(opts.Metadata),
		LastModified: now,
	}, nil
}

// Get opens the object for reading alongside its metadata.
func (s *Store) Get(ctx context.Context, key string) (archive.Info, io.ReadCloser, error) {
	info, err := s.Head(ctx, key)
	if err != nil {
		return archive.Info{}, nil, err
	}
	dataPath, _, err := s.pathFor(key)
	if err != nil {
		return archive.Info{}, nil, err
	}
	f, err := os.Open(dataPath)
	if err != nil {
		return archive.Info{}, nil, err
	}
	return info, f, nil
}

// Head returns object metadata from the sidecar and file stat.
func (s *Store) Head(_ context.Context, key string) (archive.Info, error) {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return archive.Info{}, err
	}
	st, err := os.Stat(dataPath)
	if errors.Is(err, iofs.ErrNotExist) {
		return archive.Info{}, fmt.Errorf("object %s not found", key)
	}
	if err != nil {
		return archive.Info{}, err
	}
	var mf metaFile
	if err := readJSON(metaPath, &mf); err != nil {
		return archive.Info{}, err
	}
	return archive.Info{
		Key:          key,
		Size:         st.Size(),
		ContentType:  mf.ContentType,
		ETag:         mf.ETag,
		Metadata:     cloneMetadata(mf.Metadata),
		LastModified: st.ModTime().UTC(),
	}, nil
}

// Delete removes the object and its sidecar, returning true if it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(dataPath); errors.Is(err, iofs.ErrNotExist) {
		return false, nil
	}
	if err := os.Remove(dataPath); err != nil {
		return false, err
	}
	_ = os.Remove(metaPath)
	return true, nil
}

// List walks the root and returns objects matching prefix in key order.
func (s *Store) List(ctx context.Context, prefix string) ([]archive.Info, error) {
	var infos []archive.Info
	err := filepath.WalkDir(s.root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".meta") || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := s.Head(ctx, key)
		if err != nil {
			return err
		}
		infos = append(infos, info)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// PresignURL returns unsupported for the filesystem driver.
func (s *Store) PresignURL(_ context.Context, _ string, _ archive.SignedURLOptions) (string, error) {
	return "", archive.ErrUnsupported
}

func writeJSON(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
