package workers

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"interview_backend/internal/logger"
	"interview_backend/internal/services"
	"interview_backend/internal/services/dto"
)

// RescoreScheduler periodically enqueues a full rescore so stored matches
// catch up with any skill or experience edits made outside the API.
type RescoreScheduler struct {
	cron       *cron.Cron
	dispatcher services.MatchDispatcher
	spec       string // cron spec, e.g. "@every 6h"
}

func NewRescoreScheduler(dispatcher services.MatchDispatcher, spec string) *RescoreScheduler {
	return &RescoreScheduler{
		cron:       cron.New(),
		dispatcher: dispatcher,
		spec:       spec,
	}
}

func (s *RescoreScheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.Enqueue(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc(%q): %w", s.spec, err)
	}

	s.cron.Start()
	logger.Info("Rescore scheduler started", "spec", s.spec)
	return nil
}

// Stop waits for a running enqueue to finish.
func (s *RescoreScheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("Rescore scheduler stopped")
}

func (s *RescoreScheduler) Enqueue(ctx context.Context) {
	task := services.NewMatchTask(dto.MatchTaskAll, 0)
	err := s.dispatcher.Dispatch(ctx, task)
	if err == nil {
		logger.Info("Scheduled rescore enqueued", "task_id", task.ID)
	}
	logger.WorkerLog("rescore_scheduler", "enqueue", err)
}
