package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grimaldi/internal/composition"
	"grimaldi/internal/i18n"
	"grimaldi/internal/session"
)

// handleStaffCommand обрабатывает команды сотрудников.
// Возвращает false для команд, которые не относятся к панели.
func (b *Bot) handleStaffCommand(ctx context.Context, sess session.Session, msg *tgbotapi.Message) bool {
	switch msg.Command() {
	case "clientes", "clients":
		b.handleClients(ctx, sess)
	case "relatorio", "report":
		b.handleClientReport(ctx, sess, msg.CommandArguments())
	default:
		return false
	}
	return true
}

// handleClients — список клиентов с последней оценкой, лучшие сверху
func (b *Bot) handleClients(ctx context.Context, sess session.Session) {
	records, err := b.records.ListLatestPerUser(ctx)
	if err != nil {
		b.sendError(sess, "error", err)
		return
	}
	if len(records) == 0 {
		b.sendMessage(sess.ChatID, i18n.T("clients_empty", sess.Lang))
		return
	}

	var sb strings.Builder
	sb.WriteString(i18n.T("clients_header", sess.Lang))
	for _, r := range records {
		name := "—"
		if p, err := b.profiles.GetByUserID(ctx, r.UserID); err == nil && p.Name != "" {
			name = p.Name
		}
		label := composition.InterpretResults(r.Result()).CompositeScore
		sb.WriteString("\n")
		sb.WriteString(i18n.Tf("clients_row", sess.Lang, r.UserID, name, r.Score, label))
	}
	b.sendMessage(sess.ChatID, sb.String())
}

// handleClientReport отправляет сотруднику отчёт клиента
func (b *Bot) handleClientReport(ctx context.Context, sess session.Session, args string) {
	userID, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(args), "#"), 10, 64)
	if err != nil || userID <= 0 {
		b.sendMessage(sess.ChatID, i18n.T("report_usage", sess.Lang))
		return
	}
	if _, err := b.profiles.GetByUserID(ctx, userID); err != nil {
		b.sendMessage(sess.ChatID, i18n.T("not_found", sess.Lang))
		return
	}
	b.handleExport(ctx, sess, userID)
}
