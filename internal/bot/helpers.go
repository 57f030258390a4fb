package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grimaldi/internal/i18n"
	"grimaldi/internal/session"
)

// sendMessage sends message to user with error logging
func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	if err != nil {
		b.logger.Warn("сообщение не отправлено", "chat_id", chatID, "error", err)
	}
	return err
}

// sendMessageWithKeyboard sends message with reply markup
func (b *Bot) sendMessageWithKeyboard(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	if err != nil {
		b.logger.Warn("сообщение с клавиатурой не отправлено", "chat_id", chatID, "error", err)
	}
	return err
}

// sendError logs err and sends a translated message
func (b *Bot) sendError(sess session.Session, key string, err error) {
	if err != nil {
		b.logger.Error("ошибка обработки", "chat_id", sess.ChatID, "user_id", sess.UserID, "error", err)
	}
	b.sendMessage(sess.ChatID, i18n.T(key, sess.Lang))
}

// createCancelKeyboard creates a simple keyboard with just Cancel button
func createCancelKeyboard(lang i18n.Language) tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(i18n.T("cancel", lang)),
		),
	)
}

func createSexKeyboard(lang i18n.Language) tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(i18n.T("btn_male", lang)),
			tgbotapi.NewKeyboardButton(i18n.T("btn_female", lang)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(i18n.T("cancel", lang)),
		),
	)
}

// isCancel matches the cancel button in any language
func isCancel(text string) bool {
	for _, lang := range i18n.Languages {
		if text == i18n.T("cancel", lang) {
			return true
		}
	}
	return false
}
