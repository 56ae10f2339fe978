package services

import (
	"context"
	"time"

	"interview_backend/internal/logger"
	"interview_backend/internal/services/dto"
	"interview_backend/pkg/apperrors"

	"github.com/google/uuid"
)

// MatchDispatcher hands fan-out tasks to the background worker.
type MatchDispatcher interface {
	Dispatch(ctx context.Context, task dto.MatchTask) error
}

// EventPublisher announces committed matching batches.
type EventPublisher interface {
	Publish(ctx context.Context, event dto.MatchesUpdatedEvent) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, dto.MatchesUpdatedEvent) error { return nil }

func NewMatchTask(kind dto.MatchTaskKind, entityID uint) dto.MatchTask {
	return dto.MatchTask{
		ID:         uuid.NewString(),
		Kind:       kind,
		EntityID:   entityID,
		EnqueuedAt: time.Now().UTC(),
	}
}

func enqueueTask(ctx context.Context, dispatcher MatchDispatcher, kind dto.MatchTaskKind, entityID uint) (*dto.EnqueueResponse, error) {
	if dispatcher == nil {
		return nil, apperrors.ErrQueueUnavailable(nil)
	}

	task := NewMatchTask(kind, entityID)
	if err := dispatcher.Dispatch(ctx, task); err != nil {
		logger.CtxWithError(ctx, "Failed to enqueue match task", err, "kind", kind, "entity_id", entityID)
		return nil, apperrors.ErrQueueUnavailable(err)
	}

	logger.CtxInfo(ctx, "Match task enqueued", "task_id", task.ID, "kind", kind, "entity_id", entityID)
	return &dto.EnqueueResponse{
		TaskID:   task.ID,
		Kind:     string(kind),
		EntityID: entityID,
		Status:   "queued",
	}, nil
}
