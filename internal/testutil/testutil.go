// Package testutil provides a fake chat-completion provider and canned
// analysis payloads shared by package tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sashabaranov/go-openai"
)

// ScenarioText is the sample message used across scenario tests
const ScenarioText = "Срочно пришлите отчёт. Вы опять затянули сроки."

// ScenarioResult is a schema-conforming model answer for ScenarioText
const ScenarioResult = `{
  "tone": "aggressive",
  "formality": "neutral",
  "clarity": "clear",
  "issues": ["blame", "too_direct", "vague_deadline"],
  "explanations": [
    "Фраза «Вы опять затянули сроки» звучит как обвинение.",
    "Слово «Срочно» без срока создаёт давление."
  ],
  "suggestions": [
    "Уберите упрёк и опишите ситуацию нейтрально.",
    "Назовите конкретный срок.",
    "Добавьте вежливое обращение."
  ],
  "rewrites": {
    "softer": "Пожалуйста, пришлите отчёт, как только будет возможность — сроки поджимают.",
    "shorter": "Пришлите, пожалуйста, отчёт сегодня.",
    "friendlier": "Привет! Можешь скинуть отчёт? Немного горим по срокам 🙂",
    "more_formal": "Просим направить отчёт в ближайшее время, так как сроки его подготовки были нарушены."
  }
}`

// FakeProvider is an httptest server speaking the chat-completions API
type FakeProvider struct {
	Server *httptest.Server

	mu       sync.Mutex
	requests []openai.ChatCompletionRequest
}

// NewFakeProvider starts a provider whose every completion is answered by
// respond. The server is closed when the test ends.
func NewFakeProvider(t *testing.T, respond http.HandlerFunc) *FakeProvider {
	t.Helper()

	p := &FakeProvider{}
	p.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		p.mu.Lock()
		p.requests = append(p.requests, req)
		p.mu.Unlock()

		respond(w, r)
	}))
	t.Cleanup(p.Server.Close)

	return p
}

// BaseURL is the value to configure as the provider base URL
func (p *FakeProvider) BaseURL() string {
	return p.Server.URL + "/v1"
}

// Requests returns a copy of every completion request received so far
func (p *FakeProvider) Requests() []openai.ChatCompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]openai.ChatCompletionRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// Calls is the number of completion requests received
func (p *FakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Completion answers with a single choice carrying content
func Completion(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-test",
			Object: "chat.completion",
			Model:  "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{{
				Index: 0,
				Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: content,
				},
				FinishReason: openai.FinishReasonStop,
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// NoChoices answers with a well-formed completion that has no choices
func NoChoices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-test","object":"chat.completion","choices":[]}`))
	}
}

// Failure answers with status and the raw body
func Failure(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}
