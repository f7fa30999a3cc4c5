package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	SessionSweepSpec      = "*/10 * * * *"
	HistoryPruneSpec      = "0 3 * * *"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	pruneHistoryTimeout   = 5 * time.Minute
)

type sessionEvicter interface {
	EvictExpired(now time.Time) int
}

type historyPruner interface {
	DeleteSummariesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Scheduler struct {
	ctx       context.Context
	cron      *cron.Cron
	sessions  sessionEvicter
	history   historyPruner
	retention time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func New(
	ctx context.Context,
	sessions sessionEvicter,
	history historyPruner,
	retention time.Duration,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:       ctx,
		cron:      c,
		sessions:  sessions,
		history:   history,
		retention: retention,
		now:       time.Now,
		log:       log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(SessionSweepSpec, s.sweepSessions); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(HistoryPruneSpec, s.pruneHistory); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweepSessions() {
	evicted := s.sessions.EvictExpired(s.now())
	if evicted > 0 {
		s.log.InfoContext(s.ctx, "Expired sessions are evicted",
			"evicted", evicted)
	}
}

func (s *Scheduler) pruneHistory() {
	ctx, cancel := context.WithTimeout(s.ctx, pruneHistoryTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	cutoff := s.now().Add(-s.retention)

	deleted, err := s.history.DeleteSummariesBefore(ctx, cutoff)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to prune history",
			"error", err,
			"cutoff", cutoff)

		return
	}

	s.log.InfoContext(ctx, "History is pruned",
		"deleted", deleted,
		"cutoff", cutoff)
}
