package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store is a content-addressed object cache. Objects are named by their hex
// sha256 digest and stored under a two-level fan-out, e.g.
// .softsim/cache/ab/cdef....
type Store struct {
	Dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store { return &Store{Dir: dir} }

// ObjectPath returns the on-disk path for a digest.
func (s *Store) ObjectPath(digest string) (string, error) {
	if len(digest) < 3 {
		return "", fmt.Errorf("invalid object digest: %q", digest)
	}
	return filepath.Join(s.Dir, digest[:2], digest[2:]), nil
}

// Has reports whether the object is present in the cache.
func (s *Store) Has(digest string) bool {
	p, err := s.ObjectPath(digest)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Add copies the file at path into the cache and returns its digest.
func (s *Store) Add(path string) (string, error) {
	digest, err := HashFile(path)
	if err != nil {
		return "", err
	}
	dst, err := s.ObjectPath(digest)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dst); err == nil {
		return digest, nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("cannot create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-obj-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	src, err := os.Open(path)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("cannot open %s: %w", path, err)
	}
	_, cpErr := io.Copy(tmp, src)
	src.Close()
	if cpErr != nil {
		tmp.Close()
		return "", fmt.Errorf("cannot copy %s into cache: %w", path, cpErr)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	return digest, nil
}

// Checkout places the cached object for digest at path, replacing whatever
// is there. A hard link is attempted first; copy is the fallback.
func (s *Store) Checkout(digest, path string) error {
	src, err := s.ObjectPath(digest)
	if err != nil {
		return err
	}
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("object %s not in cache: %w", digest[:8], err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	_ = os.Remove(path)
	if err := os.Link(src, path); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("cannot checkout %s: %w", path, err)
	}
	return out.Close()
}

// List returns the digests of all objects in the cache.
func (s *Store) List() ([]string, error) {
	var out []string
	err := filepath.WalkDir(s.Dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.Dir, p)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) == 2 {
			out = append(out, parts[0]+parts[1])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Remove deletes an object from the cache.
func (s *Store) Remove(digest string) error {
	p, err := s.ObjectPath(digest)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	// Drop the fan-out dir when it became empty; best effort.
	_ = os.Remove(filepath.Dir(p))
	return nil
}
