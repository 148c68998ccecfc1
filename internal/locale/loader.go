package locale

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"secdash/internal/cache"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

// ErrDictionaryNotFound is returned when no file exists for a language.
var ErrDictionaryNotFound = errors.New("dictionary not found")

// Loader fetches the dictionary for a language.
type Loader interface {
	Load(ctx context.Context, lang Language) (Dictionary, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, lang Language) (Dictionary, error)

// Load calls f(ctx, lang).
func (f LoaderFunc) Load(ctx context.Context, lang Language) (Dictionary, error) {
	return f(ctx, lang)
}

// EmbeddedFS returns the dictionaries shipped with the binary.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedLocales, "locales")
	if err != nil {
		panic(err)
	}
	return sub
}

// FSLoader reads <code>.json, <code>.yaml or <code>.yml from a list of file
// systems. The first file system holding a file for the language wins.
type FSLoader struct {
	sources []fs.FS
}

// NewFSLoader creates a loader over the given sources, searched in order.
func NewFSLoader(sources ...fs.FS) *FSLoader {
	return &FSLoader{sources: sources}
}

// NewDefaultLoader returns the embedded catalog, optionally overridden by the
// files in dir, behind a cache with the given TTL.
func NewDefaultLoader(dir string, ttl time.Duration) *CachedLoader {
	sources := make([]fs.FS, 0, 2)
	if strings.TrimSpace(dir) != "" {
		sources = append(sources, os.DirFS(dir))
	}
	sources = append(sources, EmbeddedFS())
	return NewCachedLoader(NewFSLoader(sources...), ttl)
}

var extensions = []string{".json", ".yaml", ".yml"}

// Load implements Loader.
func (l *FSLoader) Load(ctx context.Context, lang Language) (Dictionary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := Parse(string(lang)); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	for _, source := range l.sources {
		for _, ext := range extensions {
			name := string(lang) + ext
			data, err := fs.ReadFile(source, name)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return parseFile(name, data)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDictionaryNotFound, lang)
}

func parseFile(name string, data []byte) (Dictionary, error) {
	var (
		dictionary Dictionary
		err        error
	)
	if path.Ext(name) == ".json" {
		dictionary, err = ParseJSON(data)
	} else {
		dictionary, err = ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return dictionary, nil
}

// CachedLoader memoizes successful loads of another Loader for a TTL.
type CachedLoader struct {
	next  Loader
	cache *cache.Cache[Dictionary]
}

// NewCachedLoader wraps next with a TTL cache.
func NewCachedLoader(next Loader, ttl time.Duration) *CachedLoader {
	return &CachedLoader{next: next, cache: cache.New[Dictionary](ttl)}
}

// Load implements Loader.
func (c *CachedLoader) Load(ctx context.Context, lang Language) (Dictionary, error) {
	if dictionary, ok := c.cache.Get(string(lang)); ok {
		return dictionary, nil
	}
	dictionary, err := c.next.Load(ctx, lang)
	if err != nil {
		return nil, err
	}
	c.cache.Set(string(lang), dictionary)
	return dictionary, nil
}

// Invalidate drops every cached dictionary.
func (c *CachedLoader) Invalidate() {
	c.cache.Clear()
}

// StartJanitor evicts expired dictionaries until ctx is done.
func (c *CachedLoader) StartJanitor(ctx context.Context, interval time.Duration) {
	c.cache.StartJanitor(ctx, interval)
}
