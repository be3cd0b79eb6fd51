package fixtures

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/GriffinCanCode/dockerhttp/internal/service"
)

// Compressed variants tried, in order, when a fixture is missing.
var compressedSuffixes = []string{".gz", ".zst"}

// DirStore serves fixtures from a directory tree. Names are matched against
// the path relative to the root first, then against the base name.
type DirStore struct {
	root string

	mu     sync.RWMutex
	byPath map[string]string
	byBase map[string][]string
}

var _ service.FixtureStore = (*DirStore)(nil)

// NewDirStore indexes every regular file under root.
func NewDirStore(root string) (*DirStore, error) {
	s := &DirStore{root: root}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload rebuilds the index from disk.
func (s *DirStore) Reload() error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("fixtures directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("fixtures directory: %s is not a directory", s.root)
	}

	byPath := make(map[string]string)
	byBase := make(map[string][]string)
	var mu sync.Mutex

	conf := fastwalk.Config{Follow: true}
	err = fastwalk.Walk(&conf, s.root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return nil
		}

		mu.Lock()
		byPath[filepath.ToSlash(rel)] = p
		byBase[d.Name()] = append(byBase[d.Name()], p)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return fmt.Errorf("index fixtures: %w", err)
	}

	// Walk order is not deterministic; shallowest path wins base-name lookups.
	for _, paths := range byBase {
		sort.Slice(paths, func(i, j int) bool {
			di, dj := strings.Count(paths[i], string(os.PathSeparator)), strings.Count(paths[j], string(os.PathSeparator))
			if di != dj {
				return di < dj
			}
			return paths[i] < paths[j]
		})
	}

	s.mu.Lock()
	s.byPath, s.byBase = byPath, byBase
	s.mu.Unlock()
	return nil
}

// Len returns the number of indexed files.
func (s *DirStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byPath)
}

// Resolve returns the path of the fixture called name.
func (s *DirStore) Resolve(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, candidate := range candidates(name) {
		if p, ok := s.byPath[candidate]; ok {
			return p, nil
		}
		if paths := s.byBase[path.Base(candidate)]; len(paths) > 0 && !strings.Contains(candidate, "/") {
			return paths[0], nil
		}
	}
	return "", notFound(name)
}

// ReadFixture reads the file at location, decompressing .gz and .zst files.
func (s *DirStore) ReadFixture(location string) ([]byte, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, err
	}
	return decompress(location, data)
}

// FSStore serves fixtures from an fs.FS, typically an embed.FS.
type FSStore struct {
	fsys fs.FS
}

var _ service.FixtureStore = (*FSStore)(nil)

// NewFSStore returns a store backed by fsys.
func NewFSStore(fsys fs.FS) *FSStore {
	return &FSStore{fsys: fsys}
}

// Resolve matches name as an exact path, then anywhere in the tree by base
// name.
func (s *FSStore) Resolve(name string) (string, error) {
	for _, candidate := range candidates(name) {
		if fs.ValidPath(candidate) {
			if info, err := fs.Stat(s.fsys, candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		if strings.Contains(candidate, "/") {
			continue
		}

		matches, err := doublestar.Glob(s.fsys, "**/"+escapeMeta(candidate), doublestar.WithFilesOnly())
		if err != nil {
			return "", fmt.Errorf("search fixture %q: %w", name, err)
		}
		if len(matches) > 0 {
			sort.Strings(matches)
			return matches[0], nil
		}
	}
	return "", notFound(name)
}

// ReadFixture reads location from the file system.
func (s *FSStore) ReadFixture(location string) ([]byte, error) {
	data, err := fs.ReadFile(s.fsys, location)
	if err != nil {
		return nil, err
	}
	return decompress(location, data)
}

// List returns every fixture path matching the doublestar pattern.
func (s *FSStore) List(pattern string) ([]string, error) {
	matches, err := doublestar.Glob(s.fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func candidates(name string) []string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "/")
	out := []string{name}
	for _, suffix := range compressedSuffixes {
		out = append(out, name+suffix)
	}
	return out
}

var metaEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`, "{", `\{`, "}", `\}`,
)

// escapeMeta quotes glob metacharacters so a fixture name matches literally.
func escapeMeta(name string) string {
	return metaEscaper.Replace(name)
}

func notFound(name string) error {
	return fmt.Errorf("fixture %q: %w", name, fs.ErrNotExist)
}

func decompress(location string, data []byte) ([]byte, error) {
	switch {
	case strings.HasSuffix(location, ".gz"):
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip fixture %s: %w", location, err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case strings.HasSuffix(location, ".zst"):
		r, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zstd fixture %s: %w", location, err)
		}
		defer r.Close()
		return io.ReadAll(r)
	default:
		return data, nil
	}
}
