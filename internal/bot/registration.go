package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grimaldi/internal/composition"
	"grimaldi/internal/i18n"
	"grimaldi/internal/session"
)

// startProfile начинает пошаговое заполнение профиля
func (b *Bot) startProfile(sess session.Session) {
	b.sessions.UpdateDraft(sess.ChatID, func(p *composition.Profile) {
		*p = composition.Profile{}
	})
	b.sessions.SetState(sess.ChatID, session.StateHeight)

	b.sendMessage(sess.ChatID, i18n.T("profile_title", sess.Lang))
	b.sendMessageWithKeyboard(sess.ChatID, i18n.T("profile_height", sess.Lang), createCancelKeyboard(sess.Lang))
}

// handleProfileStep обрабатывает ответ на текущий шаг профиля.
// Возвращает false, если сессия не в режиме заполнения.
func (b *Bot) handleProfileStep(ctx context.Context, sess session.Session, text string) bool {
	chatID := sess.ChatID
	lang := sess.Lang

	switch sess.State {
	case session.StateHeight:
		h, err := parseHeight(text)
		if err != nil {
			b.sendMessage(chatID, i18n.T("invalid_number", lang))
			return true
		}
		b.sessions.UpdateDraft(chatID, func(p *composition.Profile) { p.HeightM = h })
		b.sessions.SetState(chatID, session.StateWeight)
		b.sendMessage(chatID, i18n.T("profile_weight", lang))

	case session.StateWeight:
		w, err := parseWeight(text)
		if err != nil {
			b.sendMessage(chatID, i18n.T("invalid_number", lang))
			return true
		}
		b.sessions.UpdateDraft(chatID, func(p *composition.Profile) { p.WeightKg = w })
		b.sessions.SetState(chatID, session.StateAge)
		b.sendMessage(chatID, i18n.T("profile_age", lang))

	case session.StateAge:
		age, err := parseAge(text)
		if err != nil {
			b.sendMessage(chatID, i18n.T("invalid_number", lang))
			return true
		}
		b.sessions.UpdateDraft(chatID, func(p *composition.Profile) { p.Age = age })
		b.sessions.SetState(chatID, session.StateSex)
		b.sendMessageWithKeyboard(chatID, i18n.T("profile_sex", lang), createSexKeyboard(lang))

	case session.StateSex:
		sex, err := parseSex(text)
		if err != nil {
			b.sendMessage(chatID, i18n.T("invalid_sex", lang))
			return true
		}
		b.sessions.UpdateDraft(chatID, func(p *composition.Profile) { p.Sex = sex })
		b.finishProfile(ctx, chatID)

	default:
		return false
	}
	return true
}

func (b *Bot) finishProfile(ctx context.Context, chatID int64) {
	sess, ok := b.sessions.Get(chatID)
	if !ok {
		return
	}
	p := sess.Draft

	if err := b.profiles.UpdateBody(ctx, sess.UserID, p); err != nil {
		b.sessions.SetState(chatID, session.StateIdle)
		b.sendError(sess, "error", err)
		return
	}

	b.sessions.SetProfile(chatID, p)
	b.sessions.SetState(chatID, session.StateAwaitFoto)
	b.logger.Info("профиль обновлён", "user_id", sess.UserID)

	text := i18n.Tf("profile_saved", sess.Lang, p.HeightM, p.WeightKg, p.Age, string(p.Sex))
	b.sendMessageWithKeyboard(chatID, text, tgbotapi.NewRemoveKeyboard(true))
}

func (b *Bot) cancel(sess session.Session) {
	b.sessions.SetState(sess.ChatID, session.StateIdle)
	b.sendMessageWithKeyboard(sess.ChatID, i18n.T("cancelled", sess.Lang), tgbotapi.NewRemoveKeyboard(true))
}
