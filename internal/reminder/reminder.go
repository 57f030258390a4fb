// Package reminder напоминает клиентам о повторном анализе.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron"

	"grimaldi/internal/log"
	"grimaldi/internal/repository"
)

const checkTimeout = 5 * time.Minute

// ProfileStore возвращает клиентов без свежего анализа
type ProfileStore interface {
	StaleSince(ctx context.Context, since time.Time) ([]repository.Profile, error)
}

// Notifier отправляет напоминание клиенту
type Notifier interface {
	NotifyReminder(ctx context.Context, p repository.Profile, days int) error
}

// Reminder — периодическая задача напоминаний
type Reminder struct {
	profiles  ProfileStore
	notifier  Notifier
	afterDays int
	now       func() time.Time

	cron   *cron.Cron
	logger *slog.Logger
}

// New создаёт задачу: напоминать, если анализа не было afterDays дней
func New(profiles ProfileStore, notifier Notifier, afterDays int) *Reminder {
	return &Reminder{
		profiles:  profiles,
		notifier:  notifier,
		afterDays: afterDays,
		now:       time.Now,
		logger:    log.With("component", "reminder"),
	}
}

// Start запускает проверку по расписанию (формат cron с секундами)
func (r *Reminder) Start(schedule string) error {
	if _, err := cron.Parse(schedule); err != nil {
		return fmt.Errorf("неверное расписание %q: %w", schedule, err)
	}

	r.cron = cron.New()
	if err := r.cron.AddFunc(schedule, r.run); err != nil {
		return err
	}
	r.cron.Start()

	r.logger.Info("напоминания запущены", "schedule", schedule, "after_days", r.afterDays)
	return nil
}

// Stop останавливает расписание
func (r *Reminder) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

func (r *Reminder) run() {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	sent, err := r.Check(ctx)
	if err != nil {
		r.logger.Error("ошибка проверки напоминаний", "error", err)
		return
	}
	r.logger.Info("напоминания отправлены", "count", sent)
}

// Check отправляет напоминания всем клиентам без анализа за последние afterDays дней.
// Ошибка отправки одному клиенту не прерывает рассылку.
func (r *Reminder) Check(ctx context.Context) (int, error) {
	since := r.now().AddDate(0, 0, -r.afterDays)

	profiles, err := r.profiles.StaleSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("ошибка поиска клиентов: %w", err)
	}

	sent := 0
	for _, p := range profiles {
		if p.TelegramID == 0 {
			continue
		}
		if err := r.notifier.NotifyReminder(ctx, p, r.afterDays); err != nil {
			r.logger.Warn("напоминание не отправлено", "user_id", p.UserID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}
