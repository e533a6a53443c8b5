package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Default configuration values.
const (
	DefaultMaxAge     = 30 * 24 * time.Hour
	DefaultStaleAfter = time.Hour
)

// Store — операции хранилища, нужные Sweeper.
type Store interface {
	DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error)
	FailStaleRunning(ctx context.Context, startedBefore time.Time, reason string) (int64, error)
}

// Report — итог одного прохода.
type Report struct {
	Deleted     int64
	FailedStale int64
}

// Sweeper удаляет старые runs и закрывает зависшие.
type Sweeper struct {
	store      Store
	schedule   string
	maxAge     time.Duration
	staleAfter time.Duration
	lock       LockFunc
	logger     *slog.Logger
	now        func() time.Time
}

// LockFunc пытается стать лидером на время одного прохода.
type LockFunc func(ctx context.Context) (unlock func(), acquired bool, err error)

// Config — конфигурация Sweeper.
type Config struct {
	Store Store

	// Schedule — cron-выражение (default: DefaultSchedule).
	Schedule string

	// MaxAge — сколько хранить завершённые runs (default: 30 дней).
	MaxAge time.Duration

	// StaleAfter — через сколько RUNNING run считается зависшим (default: 1h).
	// Отрицательное значение отключает закрытие зависших.
	StaleAfter time.Duration

	// Lock — опционально; при нескольких janitor'ах проход выполняет один.
	Lock LockFunc

	Logger *slog.Logger
}

// New создаёт Sweeper. Невалидное расписание — ошибка.
func New(cfg Config) (*Sweeper, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if err := ValidateCronExpr(cfg.Schedule); err != nil {
		return nil, err
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.StaleAfter == 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Sweeper{
		store:      cfg.Store,
		schedule:   cfg.Schedule,
		maxAge:     cfg.MaxAge,
		staleAfter: cfg.StaleAfter,
		lock:       cfg.Lock,
		logger:     cfg.Logger.With("component", "retention"),
		now:        time.Now,
	}, nil
}

// Sweep выполняет один проход. Ошибка одного шага не отменяет другой.
func (s *Sweeper) Sweep(ctx context.Context) (Report, error) {
	now := s.now()
	var (
		report Report
		errs   []error
	)

	deleted, err := s.store.DeleteFinishedBefore(ctx, now.Add(-s.maxAge))
	if err != nil {
		errs = append(errs, fmt.Errorf("delete finished runs: %w", err))
	}
	report.Deleted = deleted

	if s.staleAfter > 0 {
		reason := fmt.Sprintf("run interrupted: no progress for %s", s.staleAfter)
		failed, err := s.store.FailStaleRunning(ctx, now.Add(-s.staleAfter), reason)
		if err != nil {
			errs = append(errs, fmt.Errorf("fail stale runs: %w", err))
		}
		report.FailedStale = failed
	}

	s.logger.Info("retention sweep completed",
		"deleted", report.Deleted,
		"failed_stale", report.FailedStale,
		"max_age", s.maxAge,
	)
	return report, errors.Join(errs...)
}

// tick выполняет Sweep, если удалось взять lock.
// Возвращает false, если проход пропущен.
func (s *Sweeper) tick(ctx context.Context) (bool, error) {
	if s.lock != nil {
		unlock, acquired, err := s.lock(ctx)
		if err != nil {
			return false, fmt.Errorf("retention lock: %w", err)
		}
		if !acquired {
			s.logger.Debug("retention lock held by another janitor, skipping")
			return false, nil
		}
		defer unlock()
	}

	_, err := s.Sweep(ctx)
	return true, err
}

// Run выполняет Sweep по расписанию, пока ctx не отменён.
func (s *Sweeper) Run(ctx context.Context) error {
	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(time.UTC))

	_, err := c.AddFunc(s.schedule, func() {
		if _, err := s.tick(ctx); err != nil {
			s.logger.Error("retention sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}

	next, _ := NextDue(s.schedule, s.now())
	s.logger.Info("retention sweeper started", "schedule", s.schedule, "next_due", next)

	c.Start()
	<-ctx.Done()

	// Ждём завершения уже запущенного прохода
	<-c.Stop().Done()
	s.logger.Info("retention sweeper stopped")
	return nil
}
