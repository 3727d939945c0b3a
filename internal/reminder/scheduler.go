// Package reminder runs the periodic due-review reminder job.
package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/skerrin/studylog/internal/domain/lesson"
)

// DueCounter reports how many lessons are due for review, grouped by owner.
type DueCounter interface {
	DueCounts(ctx context.Context, now time.Time) ([]lesson.DueCount, error)
}

// Notifier delivers a due-review reminder to one owner.
type Notifier interface {
	SendReminder(ownerID string, count int) error
}

// Scheduler checks hourly for owners with reviews due and notifies them.
// Reminders are only delivered between StartHour and EndHour, so nobody gets
// pinged in the middle of the night.
type Scheduler struct {
	scheduler *gocron.Scheduler
	counter   DueCounter
	notifier  Notifier
	logger    *slog.Logger

	startHour int
	endHour   int
}

// New creates a reminder scheduler.
func New(counter DueCounter, notifier Notifier, startHour, endHour int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.Local),
		counter:   counter,
		notifier:  notifier,
		logger:    logger,
		startHour: startHour,
		endHour:   endHour,
	}
}

// Start begins the hourly check without blocking.
func (s *Scheduler) Start() {
	_, _ = s.scheduler.Every(1).Hour().Do(s.CheckAndSend)
	s.scheduler.StartAsync()
}

// Stop terminates the scheduled job.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// CheckAndSend runs one reminder pass. It is exported so a manual trigger can
// reuse the same path the hourly job takes.
func (s *Scheduler) CheckAndSend() {
	now := time.Now()
	hour := now.Hour()
	if hour < s.startHour || hour > s.endHour {
		s.logger.Debug("outside reminder hours, skipping",
			"hour", hour, "start", s.startHour, "end", s.endHour)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	counts, err := s.counter.DueCounts(ctx, now)
	if err != nil {
		s.logger.Error("due-count query failed", "error", err)
		return
	}

	for _, dc := range counts {
		if dc.Count == 0 {
			continue
		}
		if err := s.notifier.SendReminder(dc.OwnerID, dc.Count); err != nil {
			s.logger.Error("sending reminder failed",
				"owner_id", dc.OwnerID, "error", err)
		}
	}
}

// LogNotifier writes reminders to the log. It stands in until a real delivery
// channel (email, chat webhook) is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) SendReminder(ownerID string, count int) error {
	n.Logger.Info("reviews due", "owner_id", ownerID, "count", count)
	return nil
}
