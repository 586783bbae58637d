package bot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/tonebuddy/internal/analyzer"
	"github.com/xaenox/tonebuddy/internal/metrics"
	"github.com/xaenox/tonebuddy/internal/persona"
	"github.com/xaenox/tonebuddy/internal/quota"
	"github.com/xaenox/tonebuddy/internal/render"
	"github.com/xaenox/tonebuddy/internal/storage"
)

// Sender is the part of the Telegram API the bot talks to
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Options struct {
	Analyzer analyzer.Analyzer
	// Store holds every chat's coins, scoped by chat id
	Store   storage.Storage
	Metrics *metrics.Metrics
	Logger  *zap.Logger

	DailyAllowance int
	Location       *time.Location
	Clock          func() time.Time
	Picker         *persona.Picker
	// WebAppURL is the public address of the web UI, opened as a mini-app
	WebAppURL string
}

type Bot struct {
	api       *tgbotapi.BotAPI
	sender    Sender
	analyzer  analyzer.Analyzer
	store     storage.Storage
	metrics   *metrics.Metrics
	logger    *zap.Logger
	picker    *persona.Picker
	allowance int
	location  *time.Location
	clock     func() time.Time
	webAppURL string

	chatLocks sync.Map
	wg        sync.WaitGroup
}

func New(token string, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := NewWithSender(api, opts)
	b.api = api
	return b, nil
}

// NewWithSender builds a bot that cannot poll for updates but handles
// messages passed to HandleMessage.
func NewWithSender(sender Sender, opts Options) *Bot {
	b := &Bot{
		sender:    sender,
		analyzer:  opts.Analyzer,
		store:     opts.Store,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		picker:    opts.Picker,
		allowance: opts.DailyAllowance,
		location:  opts.Location,
		clock:     opts.Clock,
		webAppURL: opts.WebAppURL,
	}
	if b.metrics != nil {
		b.analyzer = b.metrics.Instrument(b.analyzer, "telegram")
	}
	if b.picker == nil {
		b.picker = persona.NewPicker(time.Now().UnixNano())
	}
	if b.clock == nil {
		b.clock = time.Now
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	return b
}

// Start long-polls for updates until ctx is cancelled, then waits for the
// messages in flight.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot has no telegram connection")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Bot started", zap.String("username", b.api.Self.UserName))

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}

			b.wg.Add(1)
			go func(message *tgbotapi.Message) {
				defer b.wg.Done()
				b.HandleMessage(ctx, message)
			}(update.Message)
		}
	}
}

func (b *Bot) HandleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	b.handleText(ctx, message, content)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "coins":
		b.handleCoins(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Не знаю такой команды. Список команд: /help")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	text := b.picker.Random(persona.Greeting) + `

Пришли мне текст сообщения, и я скажу, как он звучит: тон, формальность, чёткость. Ещё предложу четыре варианта перефраза.`

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	if link := b.miniAppLink(); link != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("Открыть приложение", link),
			),
		)
	}
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send greeting",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

// miniAppLink points the web UI at its Telegram host mode
func (b *Bot) miniAppLink() string {
	if b.webAppURL == "" {
		return ""
	}
	u, err := url.Parse(b.webAppURL)
	if err != nil {
		b.logger.Warn("Invalid web app URL", zap.Error(err), zap.String("url", b.webAppURL))
		return ""
	}
	q := u.Query()
	q.Set("host", "telegram")
	u.RawQuery = q.Encode()
	return u.String()
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := fmt.Sprintf(`Команды:
/start - начать
/help - эта справка
/coins - сколько анализов осталось сегодня

Просто пришли текст, и я разберу его тон. В день доступно %d анализов.`, b.quota(message.Chat.ID).Allowance())

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleCoins(ctx context.Context, message *tgbotapi.Message) {
	unlock := b.lockChat(message.Chat.ID)
	defer unlock()

	q := b.quota(message.Chat.ID)
	if _, err := q.ResetIfNewDay(ctx); err != nil {
		b.logger.Error("Failed to reset quota", zap.Error(err), zap.Int64("chat_id", message.Chat.ID))
	}
	state, err := q.State(ctx)
	if err != nil {
		b.logger.Error("Failed to read coins", zap.Error(err), zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, msgStorageFailed)
		return
	}
	b.logger.Debug("Quota state",
		zap.Int64("chat_id", message.Chat.ID),
		zap.Int("remaining", state.Remaining),
		zap.String("last_reset", state.LastResetDate))

	b.sendMessage(message.Chat.ID, fmt.Sprintf("Осталось анализов сегодня: %d из %d", state.Remaining, q.Allowance()))
}

func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message, content string) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(content)
	if text == "" {
		b.sendMessage(chatID, b.picker.Random(persona.NoText))
		return
	}

	spent, err := b.spend(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to spend coin", zap.Error(err), zap.Int64("chat_id", chatID))
		b.sendErrorMessage(chatID, msgStorageFailed)
		return
	}
	if !spent {
		if b.metrics != nil {
			b.metrics.QuotaDenied("telegram")
		}
		b.sendMessage(chatID, b.picker.Random(persona.CoinsEmpty))
		return
	}

	analysisID := uuid.New().String()
	logger := b.logger.With(
		zap.String("analysis_id", analysisID),
		zap.Int64("chat_id", chatID))

	if _, err := b.sender.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		logger.Debug("Failed to send typing action", zap.Error(err))
	}

	analysis, err := b.analyzer.Analyze(ctx, text)
	if err != nil {
		logger.Warn("Analysis failed",
			zap.String("outcome", analyzer.Outcome(err)),
			zap.Error(err))
		b.sendErrorMessage(chatID, failureMessage(err))
		return
	}
	logger.Info("Analysis completed", zap.String("tone", string(analysis.Result.Tone)))

	if err := b.sendAnalysis(chatID, message.MessageID, render.TelegramMarkdown(render.NewView(&analysis.Result))); err != nil {
		logger.Error("Failed to send analysis", zap.Error(err))
		b.sendErrorMessage(chatID, msgDeliveryFailed)
		return
	}
	b.sendMessage(chatID, b.picker.Random(persona.AfterAnalyze))
}

// spend resets and charges the chat's quota as one step
func (b *Bot) spend(ctx context.Context, chatID int64) (bool, error) {
	unlock := b.lockChat(chatID)
	defer unlock()

	q := b.quota(chatID)
	if _, err := q.ResetIfNewDay(ctx); err != nil {
		return false, err
	}
	return q.TrySpend(ctx)
}

func (b *Bot) quota(chatID int64) *quota.Manager {
	store := storage.WithPrefix(b.store, fmt.Sprintf("chat:%d:", chatID))
	return quota.NewManager(store, b.allowance,
		quota.WithClock(b.clock),
		quota.WithLocation(b.location))
}

func (b *Bot) lockChat(chatID int64) func() {
	mu, _ := b.chatLocks.LoadOrStore(chatID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// sendAnalysis sends the rendered analysis, split to fit Telegram's message
// limit. Only the first part replies to the user's message.
func (b *Bot) sendAnalysis(chatID int64, replyToID int, text string) error {
	for i, part := range splitMessage(text, maxMessageRunes) {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		if i == 0 {
			msg.ReplyToMessageID = replyToID
		}
		if _, err := b.sender.Send(msg); err != nil {
			return fmt.Errorf("send part %d: %w", i+1, err)
		}
	}
	return nil
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
