package workers

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"interview_backend/internal/logger"
	"interview_backend/internal/services"
	"interview_backend/internal/services/dto"
)

const workerName = "match_worker"

// MatchWorker drains the match task queue and runs the fan-outs. Tasks are
// paced by a token bucket so a burst of ingestions cannot starve the API of
// database connections.
type MatchWorker struct {
	db       *gorm.DB
	matching services.MatchingService
	source   TaskSource
	limiter  *rate.Limiter
}

func NewMatchWorker(db *gorm.DB, matching services.MatchingService, source TaskSource, perSecond float64, burst int) *MatchWorker {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &MatchWorker{
		db:       db,
		matching: matching,
		source:   source,
		limiter:  rate.NewLimiter(limit, burst),
	}
}

// Start runs the worker loop in the background until ctx is cancelled.
func (w *MatchWorker) Start(ctx context.Context) {
	go w.Run(ctx)
}

func (w *MatchWorker) Run(ctx context.Context) {
	logger.Info("Match worker started")
	for {
		task, err := w.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("Match worker stopped")
				return
			}
			logger.WorkerLog(workerName, "next", err)
			// Back off on a broken connection instead of spinning
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if err := w.limiter.Wait(ctx); err != nil {
			logger.Info("Match worker stopped")
			return
		}

		_ = w.Handle(ctx, task)
	}
}

// Handle runs a single task. Failures are logged; the task is not retried.
func (w *MatchWorker) Handle(ctx context.Context, task dto.MatchTask) error {
	ctx = logger.WithTaskID(ctx, task.ID)
	start := time.Now()

	err := w.process(ctx, task)
	if err != nil {
		logger.CtxWithError(ctx, "Match task failed", err, "kind", task.Kind, "entity_id", task.EntityID)
	} else {
		logger.CtxInfo(ctx, "Match task done",
			"kind", task.Kind, "entity_id", task.EntityID, "duration", time.Since(start))
	}
	return err
}

func (w *MatchWorker) process(ctx context.Context, task dto.MatchTask) error {
	switch task.Kind {
	case dto.MatchTaskJob:
		_, err := w.matching.MatchAllCandidatesForJob(ctx, w.db, task.EntityID)
		return err
	case dto.MatchTaskCandidate:
		_, err := w.matching.MatchAllJobsForCandidate(ctx, w.db, task.EntityID)
		return err
	case dto.MatchTaskAll:
		_, err := w.matching.RecalculateAllMatches(ctx, w.db)
		return err
	}
	return fmt.Errorf("unknown match task kind %q", task.Kind)
}
