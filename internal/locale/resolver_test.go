package locale

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
	writes int
	getErr error
	setErr error
}

func newMemoryStore(values map[string]string) *memoryStore {
	if values == nil {
		values = map[string]string{}
	}
	return &memoryStore{values: values}
}

func (s *memoryStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *memoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	s.writes++
	return nil
}

func (s *memoryStore) snapshot() (map[string]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, s.writes
}

var testDictionaries = map[Language]Dictionary{
	LanguageEnglish:    {"greeting": Leaf("Hello"), "page": Leaf("Page {{current}} of {{total}}")},
	LanguageVietnamese: {"greeting": Leaf("Xin chào"), "page": Leaf("Trang {{current}} / {{total}}")},
	LanguageChinese:    {"greeting": Leaf("你好"), "page": Leaf("第 {{current}} 页，共 {{total}} 页")},
}

func staticLoader() Loader {
	return LoaderFunc(func(ctx context.Context, lang Language) (Dictionary, error) {
		dictionary, ok := testDictionaries[lang]
		if !ok {
			return nil, ErrDictionaryNotFound
		}
		return dictionary, nil
	})
}

type observation struct {
	lang Language
	err  error
}

type channelObserver chan observation

func (c channelObserver) ObserveLoad(lang Language, _ time.Duration, err error) {
	c <- observation{lang: lang, err: err}
}

func waitLoaded(t *testing.T, r *Resolver) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx))
}

func TestResolver_BeforeLoadReturnsKeys(t *testing.T) {
	r := NewResolver(staticLoader(), nil)
	assert.Equal(t, "greeting", r.T("greeting"))
	assert.Equal(t, LanguageEnglish, r.Language())
	require.NoError(t, r.Wait(context.Background()))
}

func TestResolver_StartDefaultsToEnglish(t *testing.T) {
	store := newMemoryStore(nil)
	r := NewResolver(staticLoader(), store)
	r.Start(context.Background())
	waitLoaded(t, r)

	assert.Equal(t, LanguageEnglish, r.Language())
	assert.Equal(t, "Hello", r.T("greeting"))
	_, writes := store.snapshot()
	assert.Zero(t, writes)
}

func TestResolver_StartUsesPersistedLanguage(t *testing.T) {
	store := newMemoryStore(map[string]string{StorageKey: "vi"})
	r := NewResolver(staticLoader(), store)
	r.Start(context.Background())
	waitLoaded(t, r)

	assert.Equal(t, LanguageVietnamese, r.Language())
	assert.Equal(t, "Xin chào", r.T("greeting"))
}

func TestResolver_StartIgnoresInvalidPersistedLanguage(t *testing.T) {
	store := newMemoryStore(map[string]string{StorageKey: "klingon"})
	r := NewResolver(staticLoader(), store)
	r.Start(context.Background())
	waitLoaded(t, r)

	assert.Equal(t, LanguageEnglish, r.Language())
	assert.Equal(t, "Hello", r.T("greeting"))
}

func TestResolver_StartSurvivesUnreadableStore(t *testing.T) {
	store := newMemoryStore(nil)
	store.getErr = errors.New("disk gone")
	r := NewResolver(staticLoader(), store)
	r.Start(context.Background())
	waitLoaded(t, r)

	assert.Equal(t, "Hello", r.T("greeting"))
}

func TestResolver_SetLanguagePersistsAndReloads(t *testing.T) {
	store := newMemoryStore(nil)
	r := NewResolver(staticLoader(), store)
	r.Start(context.Background())
	waitLoaded(t, r)

	require.NoError(t, r.SetLanguage("zh"))
	assert.Equal(t, LanguageChinese, r.Language())
	waitLoaded(t, r)

	assert.Equal(t, "你好", r.T("greeting"))
	values, _ := store.snapshot()
	assert.Equal(t, "zh", values[StorageKey])
}

func TestResolver_SetLanguageRejectsUnsupported(t *testing.T) {
	store := newMemoryStore(map[string]string{StorageKey: "vi"})
	r := NewResolver(staticLoader(), store)
	r.Start(context.Background())
	waitLoaded(t, r)

	err := r.SetLanguage("fr")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	assert.Equal(t, LanguageVietnamese, r.Language())
	assert.Equal(t, "Xin chào", r.T("greeting"))
	values, writes := store.snapshot()
	assert.Equal(t, "vi", values[StorageKey])
	assert.Zero(t, writes)
}

func TestResolver_SetLanguageStoreFailure(t *testing.T) {
	store := newMemoryStore(nil)
	r := NewResolver(staticLoader(), store)
	r.Start(context.Background())
	waitLoaded(t, r)

	store.setErr = errors.New("read-only")
	err := r.SetLanguage("vi")
	require.Error(t, err)
	assert.Equal(t, LanguageEnglish, r.Language())
	assert.Equal(t, "Hello", r.T("greeting"))
}

func TestResolver_FailedLoadKeepsDictionary(t *testing.T) {
	observer := make(channelObserver, 4)
	failing := LoaderFunc(func(ctx context.Context, lang Language) (Dictionary, error) {
		if lang == LanguageVietnamese {
			return nil, errors.New("network down")
		}
		return testDictionaries[lang], nil
	})
	r := NewResolver(failing, newMemoryStore(nil), WithObserver(observer))
	r.Start(context.Background())
	waitLoaded(t, r)
	<-observer

	require.NoError(t, r.SetLanguage("vi"))
	waitLoaded(t, r)
	got := <-observer

	assert.Equal(t, LanguageVietnamese, got.lang)
	assert.Error(t, got.err)
	assert.Equal(t, LanguageVietnamese, r.Language())
	assert.Equal(t, "Hello", r.T("greeting"))
}

func TestResolver_NilDictionaryCountsAsFailure(t *testing.T) {
	observer := make(channelObserver, 1)
	empty := LoaderFunc(func(ctx context.Context, lang Language) (Dictionary, error) {
		return nil, nil
	})
	r := NewResolver(empty, nil, WithObserver(observer))
	r.Start(context.Background())
	waitLoaded(t, r)

	got := <-observer
	assert.ErrorIs(t, got.err, ErrDictionaryNotFound)
	assert.Equal(t, "greeting", r.T("greeting"))
}

func TestResolver_SupersededLoadIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	observer := make(channelObserver, 4)
	slowVietnamese := LoaderFunc(func(ctx context.Context, lang Language) (Dictionary, error) {
		if lang == LanguageVietnamese {
			<-release
		}
		return testDictionaries[lang], nil
	})
	r := NewResolver(slowVietnamese, newMemoryStore(nil), WithObserver(observer))

	require.NoError(t, r.SetLanguage("vi"))
	require.NoError(t, r.SetLanguage("zh"))
	waitLoaded(t, r)
	first := <-observer
	assert.Equal(t, LanguageChinese, first.lang)
	assert.Equal(t, "你好", r.T("greeting"))

	close(release)
	second := <-observer
	assert.Equal(t, LanguageVietnamese, second.lang)

	assert.Equal(t, LanguageChinese, r.Language())
	assert.Equal(t, "你好", r.T("greeting"))
}

func TestResolver_SupersededLoadSeesCancellation(t *testing.T) {
	cancelled := make(chan struct{})
	blocking := LoaderFunc(func(ctx context.Context, lang Language) (Dictionary, error) {
		if lang == LanguageVietnamese {
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}
		return testDictionaries[lang], nil
	})
	r := NewResolver(blocking, nil)

	require.NoError(t, r.SetLanguage("vi"))
	require.NoError(t, r.SetLanguage("en"))

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("expected superseded load to be cancelled")
	}
	waitLoaded(t, r)
	assert.Equal(t, "Hello", r.T("greeting"))
}

func TestResolver_Tf(t *testing.T) {
	r := NewResolver(staticLoader(), nil)
	r.Start(context.Background())
	waitLoaded(t, r)
	assert.Equal(t, "Page 2 of 3", r.Tf("page", "current", 2, "total", 3))
	assert.Equal(t, "missing.key", r.Tf("missing.key", "current", 1))
}

func TestResolver_WaitHonoursContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	loader := LoaderFunc(func(ctx context.Context, lang Language) (Dictionary, error) {
		<-block
		return testDictionaries[lang], nil
	})
	r := NewResolver(loader, nil)
	r.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
	assert.Equal(t, "greeting", r.T("greeting"))
}

func TestResolver_ConcurrentReadsDuringSwitches(t *testing.T) {
	r := NewResolver(staticLoader(), newMemoryStore(nil))
	r.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				got := r.T("greeting")
				assert.NotEmpty(t, got)
			}
		}()
	}
	for _, code := range []string{"vi", "zh", "en", "vi"} {
		require.NoError(t, r.SetLanguage(code))
	}
	wg.Wait()
	waitLoaded(t, r)
	assert.Equal(t, "Xin chào", r.T("greeting"))
}
