package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grimaldi/internal/i18n"
	"grimaldi/internal/repository"
)

// NotifyReminder отправляет клиенту напоминание о новой оценке.
// Язык берётся из открытой сессии, иначе португальский.
func (b *Bot) NotifyReminder(_ context.Context, p repository.Profile, days int) error {
	lang := i18n.DefaultLang
	if sess, ok := b.sessions.Get(p.TelegramID); ok {
		lang = sess.Lang
	}

	name := p.Name
	if name == "" {
		name = "cliente"
	}

	msg := tgbotapi.NewMessage(p.TelegramID, i18n.Tf("reminder", lang, name, days))
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	b.logger.Info("напоминание отправлено", "user_id", p.UserID)
	return nil
}
