package bot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/tonebuddy/internal/analyzer"
	"github.com/xaenox/tonebuddy/internal/metrics"
	"github.com/xaenox/tonebuddy/internal/models"
	"github.com/xaenox/tonebuddy/internal/persona"
	"github.com/xaenox/tonebuddy/internal/quota"
	"github.com/xaenox/tonebuddy/internal/storage"
	fake "github.com/xaenox/tonebuddy/internal/testutil"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	// rejectMarkdown makes every MarkdownV2 message fail like a parse error
	rejectMarkdown bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		if f.rejectMarkdown && msg.ParseMode == tgbotapi.ModeMarkdownV2 {
			return tgbotapi.Message{}, errors.New("Bad Request: can't parse entities")
		}
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]tgbotapi.MessageConfig, len(f.sent))
	copy(out, f.sent)
	return out
}

type harness struct {
	bot      *Bot
	sender   *fakeSender
	store    *storage.MemoryStorage
	provider *fake.FakeProvider
	registry *prometheus.Registry
}

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, respond http.HandlerFunc, webAppURL string) *harness {
	t.Helper()

	h := &harness{
		sender:   &fakeSender{},
		store:    storage.NewMemoryStorage(),
		provider: fake.NewFakeProvider(t, respond),
		registry: prometheus.NewRegistry(),
	}
	h.bot = NewWithSender(h.sender, Options{
		Analyzer:       analyzer.NewGPTAnalyzer("sk-test", h.provider.BaseURL(), "", analyzer.DefaultTemperature, zap.NewNop()),
		Store:          h.store,
		Metrics:        metrics.NewMetrics(h.registry, "tonebuddy"),
		Logger:         zap.NewNop(),
		DailyAllowance: 3,
		Location:       time.UTC,
		Clock:          func() time.Time { return testNow },
		Picker:         persona.NewPicker(7),
		WebAppURL:      webAppURL,
	})
	return h
}

func textMessage(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 100,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: chatID},
		Text:      text,
	}
}

func commandMessage(chatID int64, command string) *tgbotapi.Message {
	msg := textMessage(chatID, command)
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}}
	return msg
}

func inCategory(category persona.Category, text string) bool {
	for i := 0; i < persona.Count(category); i++ {
		if persona.Pick(category, i) == text {
			return true
		}
	}
	return false
}

func TestStart_WithMiniAppButton(t *testing.T) {
	h := newHarness(t, fake.Completion(fake.ScenarioResult), "https://tone.example.com/")

	h.bot.HandleMessage(context.Background(), commandMessage(42, "/start"))

	sent := h.sender.messages()
	require.Len(t, sent, 1)
	markup, ok := sent[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.NotNil(t, markup.InlineKeyboard[0][0].URL)
	assert.Equal(t, "https://tone.example.com/?host=telegram", *markup.InlineKeyboard[0][0].URL)
}

func TestStart_WithoutMiniApp(t *testing.T) {
	h := newHarness(t, fake.Completion(fake.ScenarioResult), "")

	h.bot.HandleMessage(context.Background(), commandMessage(42, "/start"))

	sent := h.sender.messages()
	require.Len(t, sent, 1)
	assert.Nil(t, sent[0].ReplyMarkup)
}

func TestAnalyzeScenario(t *testing.T) {
	h := newHarness(t, fake.Completion(fake.ScenarioResult), "")
	ctx := context.Background()

	h.bot.HandleMessage(ctx, textMessage(42, "  "+fake.ScenarioText+"\n"))

	sent := h.sender.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, sent[0].ParseMode)
	assert.Equal(t, 100, sent[0].ReplyToMessageID)
	assert.Contains(t, sent[0].Text, "```\nПришлите, пожалуйста, отчёт сегодня.\n```")
	assert.Contains(t, sent[0].Text, "нейтрально\\.")
	assert.True(t, inCategory(persona.AfterAnalyze, sent[1].Text), sent[1].Text)

	requests := h.provider.Requests()
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0].Messages[1].Content, "<message>\n"+fake.ScenarioText+"\n</message>")

	coins, ok, err := h.store.Get(ctx, "chat:42:"+quota.CoinsKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", coins)

	assert.NoError(t, testutil.GatherAndCompare(h.registry, strings.NewReader(`
# HELP tonebuddy_analyses_total Total number of tone analyses by surface and outcome.
# TYPE tonebuddy_analyses_total counter
tonebuddy_analyses_total{outcome="ok",surface="telegram"} 1
`), "tonebuddy_analyses_total"))
}

func TestEmptyTextMakesNoCall(t *testing.T) {
	h := newHarness(t, fake.Completion(fake.ScenarioResult), "")

	h.bot.HandleMessage(context.Background(), textMessage(42, " \n "))

	sent := h.sender.messages()
	require.Len(t, sent, 1)
	assert.True(t, inCategory(persona.NoText, sent[0].Text))
	assert.Equal(t, 0, h.provider.Calls())
}

func TestQuotaPerChat(t *testing.T) {
	h := newHarness(t, fake.Completion(fake.ScenarioResult), "")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		h.bot.HandleMessage(ctx, textMessage(1, "hello"))
	}
	assert.Equal(t, 3, h.provider.Calls())

	h.bot.HandleMessage(ctx, textMessage(1, "hello"))
	assert.Equal(t, 3, h.provider.Calls())
	sent := h.sender.messages()
	assert.True(t, inCategory(persona.CoinsEmpty, sent[len(sent)-1].Text))

	h.bot.HandleMessage(ctx, textMessage(2, "hello"))
	assert.Equal(t, 4, h.provider.Calls())

	assert.NoError(t, testutil.GatherAndCompare(h.registry, strings.NewReader(`
# HELP tonebuddy_quota_denied_total Analyses refused because the client ran out of coins.
# TYPE tonebuddy_quota_denied_total counter
tonebuddy_quota_denied_total{surface="telegram"} 1
`), "tonebuddy_quota_denied_total"))
}

func TestQuotaResetsOnNewDay(t *testing.T) {
	h := newHarness(t, fake.Completion(fake.ScenarioResult), "")
	ctx := context.Background()

	require.NoError(t, h.store.Set(ctx, "chat:5:"+quota.CoinsKey, "0"))
	require.NoError(t, h.store.Set(ctx, "chat:5:"+quota.ResetKey, "2025-03-13"))

	h.bot.HandleMessage(ctx, textMessage(5, "hello"))

	assert.Equal(t, 1, h.provider.Calls())
	coins, _, _ := h.store.Get(ctx, "chat:5:"+quota.CoinsKey)
	assert.Equal(t, "2", coins)
}

func TestCoinsCommand(t *testing.T) {
	h := newHarness(t, fake.Completion(fake.ScenarioResult), "")
	ctx := context.Background()

	h.bot.HandleMessage(ctx, textMessage(42, "hello"))
	h.bot.HandleMessage(ctx, commandMessage(42, "/coins"))

	sent := h.sender.messages()
	assert.Equal(t, "Осталось анализов сегодня: 2 из 3", sent[len(sent)-1].Text)
}

func TestAnalysisFailures(t *testing.T) {
	tests := []struct {
		name    string
		respond http.HandlerFunc
		want    string
	}{
		{
			name:    "provider error",
			respond: fake.Failure(http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`),
			want:    "⚠️ " + msgRequestFailed,
		},
		{
			name:    "invalid json",
			respond: fake.Completion("not json"),
			want:    "⚠️ " + msgBadModelAnswer,
		},
		{
			name:    "empty content",
			respond: fake.Completion(""),
			want:    "⚠️ " + msgEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.respond, "")

			h.bot.HandleMessage(context.Background(), textMessage(42, "hello"))

			sent := h.sender.messages()
			require.Len(t, sent, 1)
			assert.Equal(t, tt.want, sent[0].Text)
			assert.NotContains(t, sent[0].Text, "Incorrect API key")
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t, fake.Completion(fake.ScenarioResult), "")

	h.bot.HandleMessage(context.Background(), commandMessage(42, "/tags"))

	sent := h.sender.messages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "/help")
	assert.Equal(t, 0, h.provider.Calls())
}

func TestConcurrentMessagesNeverOverspend(t *testing.T) {
	h := newHarness(t, fake.Completion(fake.ScenarioResult), "")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.bot.HandleMessage(ctx, textMessage(9, "hello"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, h.provider.Calls())
	coins, _, _ := h.store.Get(ctx, "chat:9:"+quota.CoinsKey)
	assert.Equal(t, "0", coins)
}

func TestAnalysisDeliveryFailureSkipsQuip(t *testing.T) {
	h := newHarness(t, fake.Completion(fake.ScenarioResult), "")
	h.sender.rejectMarkdown = true
	ctx := context.Background()

	h.bot.HandleMessage(ctx, textMessage(42, fake.ScenarioText))

	sent := h.sender.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "⚠️ "+msgDeliveryFailed, sent[0].Text)
	assert.Empty(t, sent[0].ParseMode)

	coins, _, err := h.store.Get(ctx, "chat:42:"+quota.CoinsKey)
	require.NoError(t, err)
	assert.Equal(t, "2", coins)
}

func TestLongAnalysisIsSplit(t *testing.T) {
	long := strings.Repeat("Очень длинная фраза (с точками). ", 100)
	result := models.AnalysisResult{
		Tone:         models.ToneNeutral,
		Formality:    models.FormalityNeutral,
		Clarity:      models.ClarityOverloaded,
		Issues:       []string{},
		Explanations: []string{long},
		Suggestions:  []string{long},
		Rewrites:     models.Rewrites{Softer: long, Shorter: long, Friendlier: long, MoreFormal: long},
	}
	content, err := json.Marshal(result)
	require.NoError(t, err)
	h := newHarness(t, fake.Completion(string(content)), "")

	h.bot.HandleMessage(context.Background(), textMessage(42, "hello"))

	sent := h.sender.messages()
	require.Greater(t, len(sent), 2)
	parts, quip := sent[:len(sent)-1], sent[len(sent)-1]
	for i, part := range parts {
		assert.Equal(t, tgbotapi.ModeMarkdownV2, part.ParseMode)
		assert.LessOrEqual(t, utf8.RuneCountInString(part.Text), maxMessageRunes)
		assert.Zero(t, strings.Count(part.Text, codeFence)%2, "unbalanced code block in part %d", i)
	}
	assert.Equal(t, 100, parts[0].ReplyToMessageID)
	assert.Zero(t, parts[1].ReplyToMessageID)
	assert.True(t, inCategory(persona.AfterAnalyze, quip.Text), quip.Text)
}
