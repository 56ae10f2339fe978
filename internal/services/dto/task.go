package dto

import "time"

type MatchTaskKind string

const (
	MatchTaskJob       MatchTaskKind = "job"       // score one job against every candidate
	MatchTaskCandidate MatchTaskKind = "candidate" // score one candidate against every job
	MatchTaskAll       MatchTaskKind = "all"       // rescore everything
)

func (k MatchTaskKind) Valid() bool {
	switch k {
	case MatchTaskJob, MatchTaskCandidate, MatchTaskAll:
		return true
	}
	return false
}

// MatchTask is a queued fan-out request.
type MatchTask struct {
	ID         string        `json:"id"`
	Kind       MatchTaskKind `json:"kind"`
	EntityID   uint          `json:"entity_id,omitempty"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}

// EventMatchesUpdated is the Redis channel message type sent after a matching
// batch commits.
const EventMatchesUpdated = "EVENT_MATCHES_UPDATED"

type MatchesUpdatedEvent struct {
	Type         string    `json:"type"`
	Source       string    `json:"source"` // job, candidate, batch, natural_key
	JobIDs       []uint    `json:"jobIds,omitempty"`
	CandidateIDs []uint    `json:"candidateIds,omitempty"`
	Count        int       `json:"count"`
	At           time.Time `json:"at"`
}
