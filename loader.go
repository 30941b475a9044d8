package liquid

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sschuldenzucker/liquidjs/internal/future"
)

// Loader maps logical partial names to template source text. Resolve
// turns a name plus the including template's directory into a canonical
// path; Load fetches the source for a canonical path.
type Loader interface {
	Resolve(name, fromDir string) (string, error)
	Load(path string) (string, error)
}

// AsyncLoader is a Loader that can also load asynchronously. Async
// renders prefer it when available.
type AsyncLoader interface {
	Loader
	LoadAsync(path string) *future.Future[string]
}

// FSLoader resolves partials against a list of filesystem search roots.
// Relative `.`/`..` segments are normalized against the including
// template's directory; a name never resolves to a file outside the
// roots.
type FSLoader struct {
	roots []string
}

// NewFSLoader creates a loader over the given search roots.
func NewFSLoader(roots ...string) *FSLoader {
	abs := make([]string, len(roots))
	for i, root := range roots {
		if a, err := filepath.Abs(root); err == nil {
			abs[i] = a
		} else {
			abs[i] = filepath.Clean(root)
		}
	}
	return &FSLoader{roots: abs}
}

// Resolve implements Loader. Names starting with ./ or ../ resolve
// relative to fromDir first; all names fall back to each search root in
// order.
func (l *FSLoader) Resolve(name, fromDir string) (string, error) {
	var candidates []string
	relative := strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../")
	fromCandidate := ""
	if fromDir != "" {
		fromCandidate = filepath.Clean(filepath.Join(filepath.FromSlash(fromDir), filepath.FromSlash(name)))
	}
	if relative && fromCandidate != "" {
		candidates = append(candidates, fromCandidate)
	}
	for _, root := range l.roots {
		candidates = append(candidates, filepath.Clean(filepath.Join(root, filepath.FromSlash(name))))
	}
	if !relative && fromCandidate != "" {
		candidates = append(candidates, fromCandidate)
	}

	for _, c := range candidates {
		if !l.contained(c) {
			continue
		}
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", NewError(ErrTemplateNotFound, fmt.Sprintf("partial %q not found", name))
}

func (l *FSLoader) contained(p string) bool {
	for _, root := range l.roots {
		if p == root || strings.HasPrefix(p, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Load implements Loader.
func (l *FSLoader) Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", NewError(ErrTemplateNotFound, fmt.Sprintf("cannot read partial %q", path))
	}
	return string(data), nil
}

// LoadAsync implements AsyncLoader.
func (l *FSLoader) LoadAsync(path string) *future.Future[string] {
	return future.Go(func() (string, error) {
		return l.Load(path)
	})
}

// MapLoader serves templates from an in-memory name → source mapping.
// It backs Environment.AddTemplate and is handy in tests.
type MapLoader struct {
	mu      sync.RWMutex
	sources map[string]string
}

// NewMapLoader creates a loader over the given mapping. A nil map is an
// empty loader; Add can fill it later.
func NewMapLoader(sources map[string]string) *MapLoader {
	m := &MapLoader{sources: make(map[string]string, len(sources))}
	for k, v := range sources {
		m.sources[normalizeKey(k)] = v
	}
	return m
}

// Add registers source under name.
func (m *MapLoader) Add(name, source string) {
	m.mu.Lock()
	m.sources[normalizeKey(name)] = source
	m.mu.Unlock()
}

// Resolve implements Loader. Relative names are normalized against
// fromDir using slash semantics.
func (m *MapLoader) Resolve(name, fromDir string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	direct := normalizeKey(name)
	if _, ok := m.sources[direct]; ok {
		return direct, nil
	}
	if fromDir != "" {
		joined := normalizeKey(path.Join(fromDir, name))
		if _, ok := m.sources[joined]; ok {
			return joined, nil
		}
	}
	return "", NewError(ErrTemplateNotFound, fmt.Sprintf("partial %q not found", name))
}

// Load implements Loader.
func (m *MapLoader) Load(p string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	source, ok := m.sources[p]
	if !ok {
		return "", NewError(ErrTemplateNotFound, fmt.Sprintf("partial %q not found", p))
	}
	return source, nil
}

// LoadAsync implements AsyncLoader.
func (m *MapLoader) LoadAsync(p string) *future.Future[string] {
	source, err := m.Load(p)
	if err != nil {
		return future.Rejected[string](err)
	}
	return future.Resolved(source)
}

func normalizeKey(name string) string {
	return strings.TrimPrefix(path.Clean(strings.ReplaceAll(name, "\\", "/")), "./")
}
