package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grimaldi/internal/i18n"
	"grimaldi/internal/session"
)

const langCallbackPrefix = "lang_"

// handleLanguageMenu показывает выбор языка
func (b *Bot) handleLanguageMenu(sess session.Session) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🇧🇷 Português", langCallbackPrefix+string(i18n.LangPortuguese)),
			tgbotapi.NewInlineKeyboardButtonData("🇬🇧 English", langCallbackPrefix+string(i18n.LangEnglish)),
		),
	)
	b.sendMessageWithKeyboard(sess.ChatID, i18n.T("lang_choose", sess.Lang), keyboard)
}

// handleCallback обрабатывает нажатия inline-кнопок
func (b *Bot) handleCallback(_ context.Context, cb *tgbotapi.CallbackQuery) {
	// Подтверждаем получение callback
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback не подтверждён", "error", err)
	}
	if cb.Message == nil || !strings.HasPrefix(cb.Data, langCallbackPrefix) {
		return
	}

	code := strings.TrimPrefix(cb.Data, langCallbackPrefix)
	if !i18n.IsValidLanguage(code) {
		return
	}
	lang := i18n.ParseLanguage(code)
	chatID := cb.Message.Chat.ID

	// без сессии язык всё равно показываем, но не сохраняем
	b.sessions.SetLang(chatID, lang)

	edit := tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID,
		i18n.Tf("lang_changed", lang, i18n.GetLanguageName(lang)))
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("ошибка редактирования сообщения", "chat_id", chatID, "error", err)
	}
}
