package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const fileExt = ".html"

// FileStore stores snapshots as files in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore, creating dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	// Ensure directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, backendErr("create "+dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the snapshot directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// Put writes the snapshot through a temp file so readers never see a
// partial snapshot.
func (s *FileStore) Put(ctx context.Context, name string, markup []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.CreateTemp(s.dir, "."+name+"-*")
	if err != nil {
		return backendErr("put "+name, err)
	}
	tmp := f.Name()
	if _, err := f.Write(markup); err != nil {
		f.Close()
		os.Remove(tmp)
		return backendErr("put "+name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return backendErr("put "+name, err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		os.Remove(tmp)
		return backendErr("put "+name, err)
	}
	return nil
}

// Get reads a snapshot.
func (s *FileStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(name)
		}
		return nil, backendErr("get "+name, err)
	}
	return data, nil
}

// List returns the snapshots in the directory. Temp files and other
// entries are ignored.
func (s *FileStore) List(ctx context.Context) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, backendErr("list", err)
	}

	var out []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), fileExt)
		if ValidateName(name) != nil {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			// Removed since ReadDir
			continue
		}
		out = append(out, Info{Name: name, Size: fi.Size(), Modified: fi.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes a snapshot file.
func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return backendErr("delete "+name, err)
	}
	return nil
}
