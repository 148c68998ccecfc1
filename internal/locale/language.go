package locale

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Language represents a supported UI language.
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageVietnamese Language = "vi"
	LanguageChinese    Language = "zh"
)

// DefaultLanguage is used when nothing valid was persisted or negotiated.
const DefaultLanguage = LanguageEnglish

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the preferred language for anonymous requests.
	LangCookieName = "lang"
)

var supported = []Language{LanguageEnglish, LanguageVietnamese, LanguageChinese}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Vietnamese,
	language.Chinese,
})

// Supported returns the supported languages in display order.
func Supported() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// Parse accepts a short language code, ignoring case and surrounding whitespace.
func Parse(value string) (Language, bool) {
	code := Language(strings.ToLower(strings.TrimSpace(value)))
	for _, lang := range supported {
		if code == lang {
			return lang, true
		}
	}
	return "", false
}

// FromAcceptLanguage picks the best supported language for an Accept-Language header.
func FromAcceptLanguage(headerValue string) Language {
	headerValue = strings.TrimSpace(headerValue)
	if headerValue == "" {
		return DefaultLanguage
	}
	tags, _, err := language.ParseAcceptLanguage(headerValue)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLanguage
	}
	return supported[index]
}

// ResolveLanguage determines the request language from the lang query parameter,
// the HX-Current-URL query, the lang cookie, then Accept-Language.
func ResolveLanguage(r *http.Request) Language {
	if r == nil {
		return DefaultLanguage
	}
	if lang, ok := Parse(r.URL.Query().Get(LangParam)); ok {
		return lang
	}
	if current := r.Header.Get("HX-Current-URL"); current != "" {
		if parsed, err := url.Parse(current); err == nil {
			if lang, ok := Parse(parsed.Query().Get(LangParam)); ok {
				return lang
			}
		}
	}
	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if lang, ok := Parse(cookie.Value); ok {
			return lang
		}
	}
	return FromAcceptLanguage(r.Header.Get("Accept-Language"))
}

// SetLanguageCookie persists the selected language on the response for a year.
func SetLanguageCookie(w http.ResponseWriter, lang Language) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    string(lang),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}
