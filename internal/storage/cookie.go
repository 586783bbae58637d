package storage

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"
)

// MaxCookieValue bounds the encoded value so a cookie stays under the 4 KB
// browser limit together with its attributes.
const MaxCookieValue = 3800

const cookieMaxAge = 365 * 24 * time.Hour

// CookieStorage keeps values in the browser of the current request. Writes
// are visible to later reads within the same request and reach the browser
// when Flush is called, one Set-Cookie per key.
type CookieStorage struct {
	w http.ResponseWriter
	r *http.Request

	mu      sync.Mutex
	pending map[string]*string
	dirty   map[string]struct{}
}

func NewCookieStorage(w http.ResponseWriter, r *http.Request) *CookieStorage {
	return &CookieStorage{
		w:       w,
		r:       r,
		pending: make(map[string]*string),
		dirty:   make(map[string]struct{}),
	}
}

func (s *CookieStorage) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value, ok := s.pending[key]; ok {
		if value == nil {
			return "", false, nil
		}
		return *value, true, nil
	}

	cookie, err := s.r.Cookie(key)
	if err != nil {
		return "", false, nil
	}
	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		// Tampered or foreign cookie; treat as absent.
		return "", false, nil
	}
	return value, true, nil
}

func (s *CookieStorage) Set(ctx context.Context, key, value string) error {
	if len(url.QueryEscape(value)) > MaxCookieValue {
		return ErrValueTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[key] = &value
	s.dirty[key] = struct{}{}
	return nil
}

func (s *CookieStorage) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[key] = nil
	s.dirty[key] = struct{}{}
	return nil
}

// Flush writes the final state of every changed key. It must run before
// the response header is written.
func (s *CookieStorage) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.dirty))
	for key := range s.dirty {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := s.pending[key]
		if value == nil {
			http.SetCookie(s.w, &http.Cookie{
				Name:   key,
				Value:  "",
				Path:   "/",
				MaxAge: -1,
			})
			continue
		}
		http.SetCookie(s.w, &http.Cookie{
			Name:     key,
			Value:    url.QueryEscape(*value),
			Path:     "/",
			MaxAge:   int(cookieMaxAge.Seconds()),
			SameSite: http.SameSiteLaxMode,
			HttpOnly: true,
		})
	}
	s.dirty = make(map[string]struct{})
}
