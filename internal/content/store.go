package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrOutsideRoot = errors.New("path outside root")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
)

// Store is the runtime mirror: a directory the audio runtime reads project
// files from.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Store{root: abs}, nil
}

type FileInfo struct {
	Path  string `json:"path"` // root-relative, forward slashes
	Size  int64  `json:"size"`
	ETag  string `json:"etag,omitempty"` // sha256:<hex>
	Mod   int64  `json:"mod"`            // unix seconds
	IsDir bool   `json:"is_dir"`
}

func (s *Store) RootAbs() string { return s.root }

func (s *Store) EnsureRoot() error {
	return os.MkdirAll(s.root, 0o755)
}

// CreateFile writes name under dir. It is the mirror hook the project
// calls for every added file.
func (s *Store) CreateFile(dir, name string, data []byte) error {
	_, err := s.Write(context.Background(), path.Join(dir, name), data)
	return err
}

// RemoveFile drops name under dir. A file that is already gone is not an
// error.
func (s *Store) RemoveFile(dir, name string) error {
	err := s.Delete(context.Background(), path.Join(dir, name))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// Read returns bytes + etag.
func (s *Store) Read(ctx context.Context, rel string) ([]byte, string, error) {
	abs, err := s.cleanAbs(rel)
	if err != nil {
		return nil, "", err
	}

	b, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return b, etagBytes(b), nil
}

// Write replaces rel atomically and returns the new etag. It refuses to
// write through a file used as a parent and onto an existing directory.
func (s *Store) Write(ctx context.Context, rel string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	abs, err := s.cleanAbs(rel)
	if err != nil {
		return "", err
	}
	if abs == s.root {
		return "", ErrConflict
	}

	if st, err := os.Stat(abs); err == nil && st.IsDir() {
		return "", ErrConflict
	}

	dir := filepath.Dir(abs)
	if err := s.mkdirAllChecked(dir); err != nil {
		return "", err
	}

	f, err := os.CreateTemp(dir, ".chuck-*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()

	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmp)
	}

	if _, err := f.Write(data); err != nil {
		cleanup()
		return "", err
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}

	if err := os.Rename(tmp, abs); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}

	return etagBytes(data), nil
}

func (s *Store) Delete(ctx context.Context, rel string) error {
	abs, err := s.cleanAbs(rel)
	if err != nil {
		return err
	}
	if abs == s.root {
		return ErrConflict
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// List walks the mirror and returns every entry, parents before children.
// A mirror that was never written to lists as empty.
func (s *Store) List(ctx context.Context) ([]FileInfo, error) {
	if _, err := os.Stat(s.root); errors.Is(err, os.ErrNotExist) {
		return []FileInfo{}, nil
	}

	out := []FileInfo{}
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == s.root || strings.HasPrefix(d.Name(), ".chuck-") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		fi := FileInfo{
			Path:  filepath.ToSlash(rel),
			Size:  info.Size(),
			Mod:   info.ModTime().Unix(),
			IsDir: d.IsDir(),
		}
		if !fi.IsDir {
			if b, err := os.ReadFile(p); err == nil {
				fi.ETag = etagBytes(b)
			}
		}
		out = append(out, fi)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// --- safety boundary ---

func (s *Store) cleanAbs(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	rel = strings.TrimPrefix(rel, "/")
	rel = filepath.FromSlash(rel)

	abs := filepath.Clean(filepath.Join(s.root, rel))

	rootClean := filepath.Clean(s.root)
	rootPrefix := rootClean + string(filepath.Separator)
	if abs != rootClean && !strings.HasPrefix(abs, rootPrefix) {
		return "", ErrOutsideRoot
	}

	// prevent symlink escape on existing paths
	if p, err := filepath.EvalSymlinks(abs); err == nil {
		if realRoot, err := filepath.EvalSymlinks(rootClean); err == nil {
			if p != realRoot && !strings.HasPrefix(p, realRoot+string(filepath.Separator)) {
				return "", ErrOutsideRoot
			}
		}
	}

	return abs, nil
}

// mkdirAllChecked creates directories but refuses if any component in the path is a file.
func (s *Store) mkdirAllChecked(absDir string) error {
	absDir = filepath.Clean(absDir)
	rootClean := filepath.Clean(s.root)

	if absDir != rootClean && !strings.HasPrefix(absDir, rootClean+string(filepath.Separator)) {
		return ErrOutsideRoot
	}
	if err := os.MkdirAll(rootClean, 0o755); err != nil {
		return err
	}

	rel, err := filepath.Rel(rootClean, absDir)
	if err != nil {
		return err
	}
	if rel == "." {
		return nil
	}
	cur := rootClean
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "" {
			continue
		}
		cur = filepath.Join(cur, part)

		st, err := os.Stat(cur)
		switch {
		case err == nil && !st.IsDir():
			return ErrConflict
		case err == nil:
		case errors.Is(err, os.ErrNotExist):
			if mkErr := os.Mkdir(cur, 0o755); mkErr != nil && !errors.Is(mkErr, os.ErrExist) {
				return mkErr
			}
		default:
			return err
		}
	}
	return nil
}

func etagBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:])
}
