package bot

import (
	"bytes"
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grimaldi/internal/analysis"
	"grimaldi/internal/composition"
	"grimaldi/internal/excel"
	"grimaldi/internal/i18n"
	"grimaldi/internal/repository"
	"grimaldi/internal/session"
)

const historyLimit = 12

// handleCommand обрабатывает команды клиента
func (b *Bot) handleCommand(ctx context.Context, sess session.Session, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(sess, msg)
	case "perfil", "profile":
		b.startProfile(sess)
	case "medidas", "measures":
		b.handleMeasures(ctx, sess, msg.CommandArguments())
	case "resultado", "result":
		b.handleResult(ctx, sess)
	case "exportar", "export":
		b.handleExport(ctx, sess, sess.UserID)
	case "idioma", "language":
		b.handleLanguageMenu(sess)
	case "sair", "logout":
		b.handleLogout(sess)
	case "cancelar", "cancel":
		b.cancel(sess)
	case "ajuda", "help":
		b.sendMessage(sess.ChatID, i18n.T("help", sess.Lang))
	default:
		b.sendMessage(sess.ChatID, i18n.T("unknown_command", sess.Lang))
	}
}

// handleText — текст вне команд: шаги профиля или подсказка
func (b *Bot) handleText(ctx context.Context, sess session.Session, msg *tgbotapi.Message) {
	if isCancel(msg.Text) {
		b.cancel(sess)
		return
	}
	if b.handleProfileStep(ctx, sess, msg.Text) {
		return
	}
	b.sendMessage(sess.ChatID, i18n.T("help", sess.Lang))
}

func (b *Bot) handleStart(sess session.Session, msg *tgbotapi.Message) {
	name := displayName(msg.From)
	if sess.Profile == nil {
		b.sendMessage(sess.ChatID, i18n.Tf("welcome", sess.Lang, name))
		return
	}
	b.sessions.SetState(sess.ChatID, session.StateAwaitFoto)
	b.sendMessage(sess.ChatID, i18n.Tf("welcome_back", sess.Lang, name))
}

// handlePhoto запускает анализ по фото в полный рост. Если подпись
// содержит ссылку на боковое фото, она передаётся как вторая проекция.
func (b *Bot) handlePhoto(ctx context.Context, sess session.Session, msg *tgbotapi.Message) {
	if sess.Profile == nil {
		b.sendMessage(sess.ChatID, i18n.T("profile_required", sess.Lang))
		return
	}

	// последний размер — наибольший
	photo := msg.Photo[len(msg.Photo)-1]
	url, err := b.api.GetFileDirectURL(photo.FileID)
	if err != nil {
		b.sendError(sess, "photo_failed", err)
		return
	}

	b.runAnalysis(ctx, sess, analysis.Request{
		UserID:          sess.UserID,
		Profile:         *sess.Profile,
		FrontalImageURL: url,
		LateralImageURL: lateralURL(msg.Caption),
	})
}

func (b *Bot) handleMeasures(ctx context.Context, sess session.Session, args string) {
	if sess.Profile == nil {
		b.sendMessage(sess.ChatID, i18n.T("profile_required", sess.Lang))
		return
	}
	m, err := parseMeasurements(args)
	if err != nil {
		b.sendMessage(sess.ChatID, i18n.T("measures_usage", sess.Lang))
		return
	}

	b.runAnalysis(ctx, sess, analysis.Request{
		UserID:       sess.UserID,
		Profile:      *sess.Profile,
		Measurements: &m,
	})
}

func (b *Bot) runAnalysis(ctx context.Context, sess session.Session, req analysis.Request) {
	b.sendMessage(sess.ChatID, i18n.T("analysis_running", sess.Lang))

	out, err := b.analyzer.Run(ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, analysis.ErrAlreadyRunning):
		b.sendMessage(sess.ChatID, i18n.T("analysis_busy", sess.Lang))
		return
	case composition.IsValidationError(err):
		b.sendMessage(sess.ChatID, i18n.Tf("analysis_invalid", sess.Lang, err.Error()))
		return
	default:
		b.sendError(sess, "analysis_failed", err)
		return
	}

	b.sessions.SetState(sess.ChatID, session.StateIdle)
	if out.Fallback {
		b.sendMessage(sess.ChatID, i18n.T("analysis_fallback", sess.Lang))
	}
	b.sendMessage(sess.ChatID, formatResult(out, sess.Lang))
}

func (b *Bot) handleResult(ctx context.Context, sess session.Session) {
	out, err := b.analyzer.Latest(ctx, sess.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		b.sendMessage(sess.ChatID, i18n.T("no_result", sess.Lang))
		return
	}
	if err != nil {
		b.sendError(sess, "error", err)
		return
	}
	b.sendMessage(sess.ChatID, formatResult(out, sess.Lang))
}

// handleExport отправляет xlsx-отчёт по последнему анализу userID
func (b *Bot) handleExport(ctx context.Context, sess session.Session, userID int64) {
	out, err := b.analyzer.Latest(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		b.sendMessage(sess.ChatID, i18n.T("no_result", sess.Lang))
		return
	}
	if err != nil {
		b.sendError(sess, "error", err)
		return
	}

	name := ""
	if p, err := b.profiles.GetByUserID(ctx, userID); err == nil {
		name = p.Name
	}

	history, err := b.records.History(ctx, userID, historyLimit)
	if err != nil {
		b.logger.Warn("история недоступна", "user_id", userID, "error", err)
	}

	var buf bytes.Buffer
	err = excel.WriteReport(&buf, excel.Report{
		Name:       name,
		CreatedAt:  out.Record.CreatedAt,
		Result:     out.Result,
		VisionUsed: out.VisionUsed,
		History:    excel.HistoryFromRecords(history),
	})
	if err != nil {
		b.sendError(sess, "export_failed", err)
		return
	}

	doc := tgbotapi.NewDocument(sess.ChatID, tgbotapi.FileBytes{
		Name:  excel.ReportFileName(name, out.Record.CreatedAt),
		Bytes: buf.Bytes(),
	})
	doc.Caption = i18n.T("export_caption", sess.Lang)
	if _, err := b.api.Send(doc); err != nil {
		b.sendError(sess, "export_failed", err)
	}
}

func (b *Bot) handleLogout(sess session.Session) {
	b.sessions.Close(sess.ChatID)
	b.sendMessageWithKeyboard(sess.ChatID, i18n.T("logout", sess.Lang), tgbotapi.NewRemoveKeyboard(true))
}
