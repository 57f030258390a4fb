package bot

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grimaldi/internal/analysis"
	"grimaldi/internal/composition"
	"grimaldi/internal/config"
	"grimaldi/internal/i18n"
	"grimaldi/internal/log"
	"grimaldi/internal/repository"
	"grimaldi/internal/session"
)

// API — методы Telegram, которые использует бот (реализует *tgbotapi.BotAPI)
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Analyzer запускает и читает анализы
type Analyzer interface {
	Run(ctx context.Context, req analysis.Request) (*analysis.Outcome, error)
	Latest(ctx context.Context, userID int64) (*analysis.Outcome, error)
}

// Profiles — хранилище профилей клиентов
type Profiles interface {
	Register(ctx context.Context, telegramID int64, name string) (*repository.Profile, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*repository.Profile, error)
	GetByUserID(ctx context.Context, userID int64) (*repository.Profile, error)
	UpdateBody(ctx context.Context, userID int64, p composition.Profile) error
}

// Records — чтение истории анализов
type Records interface {
	ListLatestPerUser(ctx context.Context) ([]repository.Record, error)
	History(ctx context.Context, userID int64, limit int) ([]repository.Record, error)
}

// Bot представляет Telegram бота
type Bot struct {
	api      API
	analyzer Analyzer
	profiles Profiles
	records  Records
	sessions *session.Store
	config   *config.Config
	logger   *slog.Logger

	wg sync.WaitGroup
}

// New создаёт новый экземпляр бота
func New(api API, analyzer Analyzer, profiles Profiles, records Records, sessions *session.Store, cfg *config.Config) *Bot {
	return &Bot{
		api:      api,
		analyzer: analyzer,
		profiles: profiles,
		records:  records,
		sessions: sessions,
		config:   cfg,
		logger:   log.With("component", "bot"),
	}
}

// Start читает обновления до отмены ctx. Каждое обновление обрабатывается
// в своей горутине; перед выходом дожидается незавершённых.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

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
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// HandleUpdate обрабатывает одно обновление
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("паника при обработке обновления", "update_id", update.UpdateID, "panic", r)
		}
	}()

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	sess, err := b.ensureSession(ctx, msg)
	if err != nil {
		b.logger.Error("сессия не открыта", "chat_id", msg.Chat.ID, "error", err)
		b.sendMessage(msg.Chat.ID, i18n.T("error", i18n.ParseLanguage(msg.From.LanguageCode)))
		return
	}

	switch {
	case msg.IsCommand():
		if b.config.IsStaff(msg.From.ID) && b.handleStaffCommand(ctx, sess, msg) {
			return
		}
		b.handleCommand(ctx, sess, msg)
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, sess, msg)
	default:
		b.handleText(ctx, sess, msg)
	}
}

// ensureSession открывает сессию при первом сообщении чата. Клиент
// регистрируется по telegram ID, сохранённый профиль кэшируется.
func (b *Bot) ensureSession(ctx context.Context, msg *tgbotapi.Message) (session.Session, error) {
	chatID := msg.Chat.ID
	if sess, ok := b.sessions.Get(chatID); ok {
		return sess, nil
	}

	p, err := b.profiles.Register(ctx, msg.From.ID, displayName(msg.From))
	if err != nil {
		return session.Session{}, err
	}

	b.sessions.Open(chatID, p.UserID, i18n.ParseLanguage(msg.From.LanguageCode))
	if p.Complete() {
		b.sessions.SetProfile(chatID, p.Composition())
	}

	sess, _ := b.sessions.Get(chatID)
	return sess, nil
}

func displayName(u *tgbotapi.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.UserName
}
