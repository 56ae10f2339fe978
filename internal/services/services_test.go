package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"interview_backend/internal/algorithms"
	"interview_backend/internal/database/dbtest"
	"interview_backend/internal/models"
	"interview_backend/internal/repositories"
	"interview_backend/internal/services/dto"
)

func floatPtr(v float64) *float64 { return &v }

type recordingDispatcher struct {
	mu    sync.Mutex
	tasks []dto.MatchTask
	err   error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, task dto.MatchTask) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.tasks = append(d.tasks, task)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []dto.MatchesUpdatedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event dto.MatchesUpdatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

// failingMatchRepository lets the first failAfter upserts through and fails the rest.
type failingMatchRepository struct {
	repositories.MatchRepository
	failAfter int
	calls     int
}

func (r *failingMatchRepository) Upsert(db *gorm.DB, c *models.Candidate, j *models.Job, b algorithms.Breakdown) error {
	r.calls++
	if r.calls > r.failAfter {
		return errors.New("disk full")
	}
	return r.MatchRepository.Upsert(db, c, j, b)
}

type fixture struct {
	db         *gorm.DB
	matching   MatchingService
	profiles   ProfileService
	dispatcher *recordingDispatcher
	publisher  *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithMatchRepo(t, repositories.NewMatchRepository())
}

func newFixtureWithMatchRepo(t *testing.T, matchRepo repositories.MatchRepository) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	dispatcher := &recordingDispatcher{}
	publisher := &recordingPublisher{}
	candidateRepo := repositories.NewCandidateRepository()
	jobRepo := repositories.NewJobRepository()

	return &fixture{
		db:         db,
		matching:   NewMatchingService(candidateRepo, jobRepo, matchRepo, dispatcher, publisher, 4),
		profiles:   NewProfileService(candidateRepo, jobRepo, dispatcher),
		dispatcher: dispatcher,
		publisher:  publisher,
	}
}

func (f *fixture) candidate(t *testing.T, name, email string, years *float64, skills ...string) *models.Candidate {
	t.Helper()
	c := &models.Candidate{FullName: name, Email: email, OverallExperienceYears: years}
	require.NoError(t, c.SetSkillMap(map[string][]string{"Key Skills": skills}))
	require.NoError(t, repositories.NewCandidateRepository().Create(f.db, c))
	return c
}

func (f *fixture) job(t *testing.T, title string, minYears *float64, required, preferred []string) *models.Job {
	t.Helper()
	j := &models.Job{Title: title, CompanyName: "Acme", MinRequiredExperienceYears: minYears}
	require.NoError(t, j.SetSkills(required, preferred))
	require.NoError(t, repositories.NewJobRepository().Create(f.db, j))
	return j
}

func (f *fixture) matchCount(t *testing.T) int64 {
	t.Helper()
	n, err := repositories.NewMatchRepository().Count(f.db)
	require.NoError(t, err)
	return n
}
