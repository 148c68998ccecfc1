package locale

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"secdash/internal/logger"
)

// StorageKey is the client storage key holding the chosen language.
const StorageKey = "language"

// ErrUnsupportedLanguage is returned for codes outside Supported().
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Store persists the chosen language for one client.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// LoadObserver is told about every settled dictionary load.
type LoadObserver interface {
	ObserveLoad(lang Language, elapsed time.Duration, err error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithObserver reports load outcomes to o.
func WithObserver(o LoadObserver) Option {
	return func(r *Resolver) {
		r.observer = o
	}
}

// Resolver holds the active language of one client and the dictionary
// currently resident for it. SetLanguage is the only writer.
type Resolver struct {
	loader   Loader
	store    Store
	observer LoadObserver

	// writeMu serialises Start and SetLanguage so a store read and the
	// language it yields are applied together.
	writeMu sync.Mutex
	chosen  bool

	mu         sync.RWMutex
	baseCtx    context.Context
	language   Language
	dictionary Dictionary
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewResolver creates an uninitialized resolver. Lookups return keys until
// the first load lands.
func NewResolver(loader Loader, store Store, opts ...Option) *Resolver {
	r := &Resolver{
		loader:     loader,
		store:      store,
		baseCtx:    context.Background(),
		language:   DefaultLanguage,
		dictionary: Dictionary{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start reads the persisted language, defaulting to English when it is absent
// or invalid, and starts loading its dictionary. Loads are bound to ctx. A
// language already chosen through SetLanguage is kept.
func (r *Resolver) Start(ctx context.Context) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	r.baseCtx = ctx
	r.mu.Unlock()
	if r.chosen {
		return
	}

	lang := DefaultLanguage
	if r.store != nil {
		value, ok, err := r.store.Get(StorageKey)
		switch {
		case err != nil:
			logger.LocaleEvent(string(lang), err).Msg("Failed to read persisted language")
		case ok:
			if parsed, valid := Parse(value); valid {
				lang = parsed
			}
		}
	}

	r.mu.Lock()
	r.language = lang
	r.mu.Unlock()

	r.load(lang)
}

// SetLanguage switches the active language. Unsupported codes are rejected
// before anything is written.
func (r *Resolver) SetLanguage(code string) error {
	lang, ok := Parse(code)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, strings.TrimSpace(code))
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if r.store != nil {
		if err := r.store.Set(StorageKey, string(lang)); err != nil {
			return fmt.Errorf("persist language: %w", err)
		}
	}

	r.chosen = true
	r.mu.Lock()
	r.language = lang
	r.mu.Unlock()

	r.load(lang)
	return nil
}

// Language returns the active language.
func (r *Resolver) Language() Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.language
}

// T resolves a dot-path against the resident dictionary, returning key when
// it cannot be resolved to a string.
func (r *Resolver) T(key string) string {
	r.mu.RLock()
	dictionary := r.dictionary
	r.mu.RUnlock()
	return dictionary.Translate(key)
}

// Tf resolves key and replaces {{name}} placeholders with the given pairs.
func (r *Resolver) Tf(key string, pairs ...any) string {
	return Interpolate(r.T(key), pairs...)
}

// Wait blocks until the most recently requested load settles or ctx ends.
func (r *Resolver) Wait(ctx context.Context) error {
	r.mu.RLock()
	done := r.done
	r.mu.RUnlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels any in-flight load.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// load supersedes any in-flight load. A result is applied only while its
// generation is still the newest one.
func (r *Resolver) load(lang Language) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.generation++
	generation := r.generation
	ctx, cancel := context.WithCancel(r.baseCtx)
	r.cancel = cancel
	done := make(chan struct{})
	r.done = done
	r.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		started := time.Now()
		dictionary, err := r.loader.Load(ctx, lang)
		if err == nil && dictionary == nil {
			err = fmt.Errorf("%w: %s", ErrDictionaryNotFound, lang)
		}

		applied := false
		r.mu.Lock()
		if err == nil && generation == r.generation && ctx.Err() == nil {
			r.dictionary = dictionary
			applied = true
		}
		r.mu.Unlock()

		if r.observer != nil {
			r.observer.ObserveLoad(lang, time.Since(started), err)
		}
		switch {
		case err != nil && errors.Is(err, context.Canceled):
			logger.LocaleEvent(string(lang), nil).Msg("Dictionary load superseded")
		case err != nil:
			logger.LocaleEvent(string(lang), err).Msg("Failed to load dictionary")
		case !applied:
			logger.LocaleEvent(string(lang), nil).Msg("Discarded stale dictionary")
		default:
			logger.LocaleEvent(string(lang), nil).Int("keys", len(dictionary.Paths())).Msg("Dictionary loaded")
		}
	}()
}

// Interpolate replaces {{name}} placeholders using name/value pairs.
func Interpolate(template string, pairs ...any) string {
	for i := 0; i+1 < len(pairs); i += 2 {
		name := fmt.Sprint(pairs[i])
		template = strings.ReplaceAll(template, "{{"+name+"}}", fmt.Sprint(pairs[i+1]))
	}
	return template
}
