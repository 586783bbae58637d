package render

import (
	"net/http"
	"net/url"
	"regexp"
)

// Host is an optional embedding environment such as a chat mini-app
// container. It only changes presentation.
type Host interface {
	Ready()
	Expand()
	ThemeColor() (string, bool)
}

const (
	TelegramCookie      = "tonebuddy_tg"
	TelegramThemeCookie = "tonebuddy_tg_bg"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ApplyHost signals readiness to the host and adopts its background colour.
// A nil host leaves the page untouched.
func ApplyHost(p *Page, h Host) {
	if h == nil {
		return
	}

	h.Ready()
	h.Expand()
	if color, ok := h.ThemeColor(); ok && hexColor.MatchString(color) {
		p.Background = color
	}
	if s, ok := h.(interface{ Script() []string }); ok {
		p.HostScript = s.Script()
	}
}

// TelegramHost is the Telegram Web App container. Lifecycle calls are
// recorded and replayed by the page script.
type TelegramHost struct {
	theme    string
	ready    bool
	expanded bool
}

// DetectHost returns the Telegram host when the request comes from inside a
// Telegram mini-app, nil otherwise.
func DetectHost(r *http.Request) Host {
	_, err := r.Cookie(TelegramCookie)
	if err != nil && r.URL.Query().Get("host") != "telegram" {
		return nil
	}

	h := &TelegramHost{}
	if c, err := r.Cookie(TelegramThemeCookie); err == nil {
		if theme, err := url.QueryUnescape(c.Value); err == nil {
			h.theme = theme
		}
	}
	return h
}

func NewTelegramHost(theme string) *TelegramHost {
	return &TelegramHost{theme: theme}
}

func (h *TelegramHost) Ready()  { h.ready = true }
func (h *TelegramHost) Expand() { h.expanded = true }

func (h *TelegramHost) ThemeColor() (string, bool) {
	return h.theme, h.theme != ""
}

// Script lists the Telegram.WebApp calls the page must make
func (h *TelegramHost) Script() []string {
	var calls []string
	if h.ready {
		calls = append(calls, "ready")
	}
	if h.expanded {
		calls = append(calls, "expand")
	}
	return calls
}
