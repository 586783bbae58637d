package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/tonebuddy/internal/analyzer"
	"github.com/xaenox/tonebuddy/internal/persona"
	"github.com/xaenox/tonebuddy/internal/quota"
	"github.com/xaenox/tonebuddy/internal/render"
	"github.com/xaenox/tonebuddy/internal/storage"
)

const (
	DraftKey = "tonebuddy_text"
	// TimezoneCookie carries the browser's IANA timezone
	TimezoneCookie = "tonebuddy_tz"

	msgRequestFailed = "Ошибка запроса"
	msgStorageFailed = "Не удалось прочитать счётчик анализов"
)

// session is the client-held state of one web request
type session struct {
	store *storage.CookieStorage
	quota *quota.Manager
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *session {
	store := storage.NewCookieStorage(w, r)
	return &session{
		store: store,
		quota: quota.NewManager(store, s.allowance,
			quota.WithClock(s.clock),
			quota.WithLocation(s.clientLocation(r))),
	}
}

// clientLocation prefers the timezone reported by the browser
func (s *Server) clientLocation(r *http.Request) *time.Location {
	c, err := r.Cookie(TimezoneCookie)
	if err != nil {
		return s.location
	}
	name, err := url.QueryUnescape(c.Value)
	if err != nil {
		return s.location
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return s.location
	}
	return loc
}

// newPage resets the daily quota if needed and fills the common fields
func (s *Server) newPage(ctx context.Context, r *http.Request, sess *session) *render.Page {
	if _, err := sess.quota.ResetIfNewDay(ctx); err != nil {
		s.logger.Error("Failed to reset quota", zap.Error(err))
	}

	page := &render.Page{
		Greeting:  s.picker.Random(persona.Greeting),
		Allowance: sess.quota.Allowance(),
	}
	render.ApplyHost(page, render.DetectHost(r))
	return page
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.session(w, r)
	page := s.newPage(ctx, r, sess)

	draft, _, err := sess.store.Get(ctx, DraftKey)
	if err != nil {
		s.logger.Warn("Failed to restore draft", zap.Error(err))
	}
	page.Draft = draft

	s.writePage(w, r, sess, page)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	sess := s.session(w, r)
	page := s.newPage(ctx, r, sess)

	text := r.PostFormValue("text")
	page.Draft = text
	if err := sess.store.Set(ctx, DraftKey, text); err != nil {
		// Long drafts are not remembered, and an older one must not come back.
		s.logger.Debug("Draft not saved", zap.Error(err))
		if errors.Is(err, storage.ErrValueTooLarge) {
			if err := sess.store.Remove(ctx, DraftKey); err != nil {
				s.logger.Warn("Failed to drop old draft", zap.Error(err))
			}
		}
	}

	msg := strings.TrimSpace(text)
	if msg == "" {
		page.BuddyMessage = s.picker.Random(persona.NoText)
		s.writePage(w, r, sess, page)
		return
	}

	spent, err := sess.quota.TrySpend(ctx)
	if err != nil {
		s.logger.Error("Failed to spend coin", zap.Error(err))
		page.Error = msgStorageFailed
		s.writePage(w, r, sess, page)
		return
	}
	if !spent {
		s.metrics.QuotaDenied("web")
		page.BuddyMessage = s.picker.Random(persona.CoinsEmpty)
		s.writePage(w, r, sess, page)
		return
	}

	analysis, err := s.webAnalyzer.Analyze(ctx, msg)
	if err != nil {
		s.logger.Warn("Analysis failed",
			zap.String("request_id", RequestIDFrom(ctx)),
			zap.String("outcome", analyzer.Outcome(err)),
			zap.Error(err))
		page.Error = uiErrorMessage(err)
		s.writePage(w, r, sess, page)
		return
	}

	page.Result = render.NewView(&analysis.Result)
	page.BuddyMessage = s.picker.Random(persona.AfterAnalyze)
	s.writePage(w, r, sess, page)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	store := storage.NewCookieStorage(w, r)
	if err := store.Remove(r.Context(), DraftKey); err != nil {
		s.logger.Warn("Failed to clear draft", zap.Error(err))
	}
	store.Flush()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// writePage renders into a buffer first; the session's cookies are flushed
// before anything is written.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, sess *session, page *render.Page) {
	remaining, err := sess.quota.Remaining(r.Context())
	if err != nil {
		s.logger.Warn("Failed to read coins", zap.Error(err))
	}
	page.Remaining = remaining
	sess.store.Flush()

	var buf bytes.Buffer
	if err := render.RenderPage(&buf, page); err != nil {
		s.logger.Error("Failed to render page", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// uiErrorMessage hides provider details behind a generic message
func uiErrorMessage(err error) string {
	var providerErr *analyzer.ProviderError
	if errors.As(err, &providerErr) {
		return msgRequestFailed
	}
	_, message := errorResponse(err)
	return message
}
