package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"interview_backend/internal/algorithms"
	"interview_backend/internal/logger"
	"interview_backend/internal/models"
	"interview_backend/internal/repositories"
	"interview_backend/internal/services/dto"
	"interview_backend/pkg/apperrors"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type MatchingService interface {
	// Fan-out: score and persist, one transaction per call
	MatchAllCandidatesForJob(ctx context.Context, db *gorm.DB, jobID uint) ([]*dto.MatchResult, error)
	MatchAllJobsForCandidate(ctx context.Context, db *gorm.DB, candidateID uint) ([]*dto.MatchResult, error)
	MatchCandidatesToJob(ctx context.Context, db *gorm.DB, candidateIDs []uint, jobID uint) (*dto.BatchMatchResponse, error)
	RecalculateAllMatches(ctx context.Context, db *gorm.DB) (*RecalculateSummary, error)

	// Ranking view (recomputes live)
	RankedMatchesForJob(ctx context.Context, db *gorm.DB, jobID uint) (*dto.RankedMatchesResponse, error)

	// Persisted rows only
	GetStoredMatchesForJob(ctx context.Context, db *gorm.DB, jobID uint) (*dto.StoredMatchesResponse, error)
	GetStoredMatchesForCandidate(ctx context.Context, db *gorm.DB, candidateID uint) (*dto.StoredMatchesResponse, error)

	// Natural keys with an ephemeral fallback
	MatchByNaturalKeys(ctx context.Context, db *gorm.DB, req *dto.MatchRequest) (*dto.MatchResponse, error)
	ScoreEphemeral(req *dto.MatchRequest) *dto.MatchResponse

	// Queued fan-out
	EnqueueFanOut(ctx context.Context, db *gorm.DB, kind dto.MatchTaskKind, entityID uint) (*dto.EnqueueResponse, error)
}

type RecalculateSummary struct {
	Jobs    int `json:"jobs"`
	Skipped int `json:"skipped"`
	Scored  int `json:"scored"`
}

type matchingService struct {
	candidateRepo repositories.CandidateRepository
	jobRepo       repositories.JobRepository
	matchRepo     repositories.MatchRepository
	dispatcher    MatchDispatcher
	publisher     EventPublisher
	concurrency   int
}

func NewMatchingService(
	candidateRepo repositories.CandidateRepository,
	jobRepo repositories.JobRepository,
	matchRepo repositories.MatchRepository,
	dispatcher MatchDispatcher,
	publisher EventPublisher,
	concurrency int,
) MatchingService {
	if concurrency < 1 {
		concurrency = 1
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &matchingService{
		candidateRepo: candidateRepo,
		jobRepo:       jobRepo,
		matchRepo:     matchRepo,
		dispatcher:    dispatcher,
		publisher:     publisher,
		concurrency:   concurrency,
	}
}

// pair is one (candidate, job) scoring unit of a batch.
type pair struct {
	candidate *models.Candidate
	job       *models.Job

	candidateProfile algorithms.CandidateProfile
	jobProfile       algorithms.JobProfile
	breakdown        algorithms.Breakdown
}

func (p *pair) result() *dto.MatchResult {
	r := dto.NewMatchResult(p.candidateProfile, p.jobProfile, p.breakdown)
	r.CandidateID = p.candidate.ID
	r.JobID = p.job.ID
	return r
}

// -------------------------------
// Fan-out
// -------------------------------

func (s *matchingService) MatchAllCandidatesForJob(ctx context.Context, db *gorm.DB, jobID uint) ([]*dto.MatchResult, error) {
	_, results, err := s.matchJob(ctx, db, jobID)
	return results, err
}

// matchJob scores every candidate against the job and commits once. The job
// is returned for callers that need its title or company.
func (s *matchingService) matchJob(ctx context.Context, db *gorm.DB, jobID uint) (*models.Job, []*dto.MatchResult, error) {
	start := time.Now()
	log := logger.FromContext(ctx).With("job_id", jobID)

	tx := db.Begin()
	if tx.Error != nil {
		return nil, nil, apperrors.ErrPersistence(tx.Error)
	}
	defer tx.Rollback()

	job, err := s.jobRepo.FindByID(tx, jobID)
	if err != nil {
		return nil, nil, handleMatchingError(err, jobID, 0)
	}

	candidates, err := s.candidateRepo.FindAll(tx)
	if err != nil {
		return nil, nil, apperrors.ErrPersistence(err)
	}
	if len(candidates) == 0 {
		log.Info("No candidates to match against job")
		return job, []*dto.MatchResult{}, nil
	}

	pairs := make([]pair, len(candidates))
	for i := range candidates {
		pairs[i] = pair{candidate: &candidates[i], job: job}
	}

	results, err := s.scoreAndPersist(ctx, tx, pairs)
	if err != nil {
		logger.MatchLog("job_fanout", jobID, 0, time.Since(start), err)
		return nil, nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.MatchLog("job_fanout", jobID, 0, time.Since(start), err)
		return nil, nil, apperrors.ErrPersistence(err)
	}
	logger.MatchLog("job_fanout", jobID, len(results), time.Since(start), nil)

	s.publish(ctx, dto.MatchesUpdatedEvent{
		Source: "job",
		JobIDs: []uint{job.ID},
		Count:  len(results),
	})
	return job, results, nil
}

func (s *matchingService) MatchAllJobsForCandidate(ctx context.Context, db *gorm.DB, candidateID uint) ([]*dto.MatchResult, error) {
	start := time.Now()
	log := logger.FromContext(ctx).With("candidate_id", candidateID)

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.ErrPersistence(tx.Error)
	}
	defer tx.Rollback()

	candidate, err := s.candidateRepo.FindByID(tx, candidateID)
	if err != nil {
		return nil, handleMatchingError(err, 0, candidateID)
	}

	jobs, err := s.jobRepo.FindAll(tx)
	if err != nil {
		return nil, apperrors.ErrPersistence(err)
	}
	if len(jobs) == 0 {
		log.Info("No jobs to match against candidate")
		return []*dto.MatchResult{}, nil
	}

	pairs := make([]pair, len(jobs))
	for i := range jobs {
		pairs[i] = pair{candidate: candidate, job: &jobs[i]}
	}

	results, err := s.scoreAndPersist(ctx, tx, pairs)
	if err != nil {
		logger.MatchLog("candidate_fanout", candidateID, 0, time.Since(start), err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.MatchLog("candidate_fanout", candidateID, 0, time.Since(start), err)
		return nil, apperrors.ErrPersistence(err)
	}
	logger.MatchLog("candidate_fanout", candidateID, len(results), time.Since(start), nil)

	s.publish(ctx, dto.MatchesUpdatedEvent{
		Source:       "candidate",
		CandidateIDs: []uint{candidate.ID},
		Count:        len(results),
	})
	return results, nil
}

// MatchCandidatesToJob scores an explicit candidate list. A missing job fails
// the whole call; a missing candidate becomes a per-item error and the rest of
// the list is still scored and committed.
func (s *matchingService) MatchCandidatesToJob(ctx context.Context, db *gorm.DB, candidateIDs []uint, jobID uint) (*dto.BatchMatchResponse, error) {
	start := time.Now()

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.ErrPersistence(tx.Error)
	}
	defer tx.Rollback()

	job, err := s.jobRepo.FindByID(tx, jobID)
	if err != nil {
		return nil, handleMatchingError(err, jobID, 0)
	}

	found, err := s.candidateRepo.FindByIDs(tx, candidateIDs)
	if err != nil {
		return nil, apperrors.ErrPersistence(err)
	}
	byID := make(map[uint]*models.Candidate, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	// Outcomes keep the order of the request
	outcomes := make([]dto.MatchOutcome, len(candidateIDs))
	pairs := make([]pair, 0, len(candidateIDs))
	pairIndex := make([]int, 0, len(candidateIDs))
	for i, id := range candidateIDs {
		candidate, ok := byID[id]
		if !ok {
			outcomes[i] = dto.MatchOutcome{CandidateID: id, Error: "not found"}
			logger.CtxWarn(ctx, "Candidate not found, skipping", "candidate_id", id, "job_id", jobID)
			continue
		}
		pairs = append(pairs, pair{candidate: candidate, job: job})
		pairIndex = append(pairIndex, i)
	}

	results, err := s.scoreAndPersist(ctx, tx, pairs)
	if err != nil {
		logger.MatchLog("candidates_to_job", jobID, 0, time.Since(start), err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.MatchLog("candidates_to_job", jobID, 0, time.Since(start), err)
		return nil, apperrors.ErrPersistence(err)
	}
	logger.MatchLog("candidates_to_job", jobID, len(results), time.Since(start), nil)

	for k, r := range results {
		outcomes[pairIndex[k]] = dto.MatchOutcome{CandidateID: r.CandidateID, Result: r}
	}

	if len(results) > 0 {
		ids := make([]uint, len(results))
		for k, r := range results {
			ids[k] = r.CandidateID
		}
		s.publish(ctx, dto.MatchesUpdatedEvent{
			Source:       "batch",
			JobIDs:       []uint{job.ID},
			CandidateIDs: ids,
			Count:        len(results),
		})
	}

	return &dto.BatchMatchResponse{
		JobID:        job.ID,
		TotalMatched: len(results),
		Results:      outcomes,
	}, nil
}

// RecalculateAllMatches rescores every job against every candidate, one
// transaction per job. Jobs deleted while the run is in progress are skipped.
func (s *matchingService) RecalculateAllMatches(ctx context.Context, db *gorm.DB) (*RecalculateSummary, error) {
	jobs, err := s.jobRepo.FindAll(db)
	if err != nil {
		return nil, apperrors.ErrPersistence(err)
	}

	summary := &RecalculateSummary{}
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		results, err := s.MatchAllCandidatesForJob(ctx, db, job.ID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrJobNotFound(job.ID)) {
				summary.Skipped++
				continue
			}
			return summary, err
		}
		summary.Jobs++
		summary.Scored += len(results)
	}

	logger.CtxInfo(ctx, "Recalculated all matches",
		"jobs", summary.Jobs, "skipped", summary.Skipped, "scored", summary.Scored)
	return summary, nil
}

// scoreAndPersist scores the pairs concurrently and upserts them one by one
// inside tx. Any upsert failure aborts the batch; the caller's deferred
// rollback discards whatever was written.
func (s *matchingService) scoreAndPersist(ctx context.Context, tx *gorm.DB, pairs []pair) ([]*dto.MatchResult, error) {
	if err := s.scorePairs(ctx, pairs); err != nil {
		return nil, apperrors.InternalError(err)
	}

	results := make([]*dto.MatchResult, 0, len(pairs))
	for i := range pairs {
		p := &pairs[i]
		if err := s.matchRepo.Upsert(tx, p.candidate, p.job, p.breakdown); err != nil {
			logger.CtxWithError(ctx, "Failed to upsert match", err,
				"candidate_id", p.candidate.ID, "job_id", p.job.ID)
			return nil, apperrors.ErrPersistence(err)
		}
		logger.CtxDebug(ctx, "Matched",
			"candidate_id", p.candidate.ID, "job_id", p.job.ID, "final", p.breakdown.Final)
		results = append(results, p.result())
	}
	return results, nil
}

// scorePairs runs the pure score calculator on up to s.concurrency goroutines.
func (s *matchingService) scorePairs(ctx context.Context, pairs []pair) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range pairs {
		p := &pairs[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.candidateProfile = algorithms.CandidateProfileFrom(p.candidate)
			p.jobProfile = algorithms.JobProfileFrom(p.job)
			p.breakdown = algorithms.ScoreProfiles(p.candidateProfile, p.jobProfile)
			return nil
		})
	}
	return g.Wait()
}

// -------------------------------
// Ranking
// -------------------------------

// RankedMatchesForJob recomputes the job's matches and ranks them by final
// score, highest first; equal scores are ordered by candidate id.
func (s *matchingService) RankedMatchesForJob(ctx context.Context, db *gorm.DB, jobID uint) (*dto.RankedMatchesResponse, error) {
	job, results, err := s.matchJob(ctx, db, jobID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, apperrors.ErrNoCandidates()
	}

	RankResults(results)

	ranked := make([]dto.RankedCandidate, len(results))
	for i, r := range results {
		ranked[i] = dto.RankedCandidate{
			Rank:                   i + 1,
			CandidateID:            r.CandidateID,
			CandidateName:          r.CandidateName,
			ExperienceYears:        r.CandidateExperienceYears,
			MatchScores:            r.MatchScores,
			MatchedRequiredSkills:  r.MatchedRequiredSkills,
			MissingRequiredSkills:  r.MissingRequiredSkills,
			MatchedPreferredSkills: r.MatchedPreferredSkills,
		}
	}

	return &dto.RankedMatchesResponse{
		JobID:           job.ID,
		JobTitle:        job.Title,
		CompanyName:     job.CompanyName,
		TotalCandidates: len(ranked),
		Candidates:      ranked,
	}, nil
}

// RankResults sorts in place: final score descending, then candidate id ascending.
func RankResults(results []*dto.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].MatchScores.FinalMatchPercentage, results[j].MatchScores.FinalMatchPercentage
		if a != b {
			return a > b
		}
		return results[i].CandidateID < results[j].CandidateID
	})
}

// -------------------------------
// Stored matches
// -------------------------------

func (s *matchingService) GetStoredMatchesForJob(ctx context.Context, db *gorm.DB, jobID uint) (*dto.StoredMatchesResponse, error) {
	if _, err := s.jobRepo.FindByID(db, jobID); err != nil {
		return nil, handleMatchingError(err, jobID, 0)
	}

	matches, err := s.matchRepo.ListByJob(db, jobID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return toStoredMatches(matches), nil
}

func (s *matchingService) GetStoredMatchesForCandidate(ctx context.Context, db *gorm.DB, candidateID uint) (*dto.StoredMatchesResponse, error) {
	if _, err := s.candidateRepo.FindByID(db, candidateID); err != nil {
		return nil, handleMatchingError(err, 0, candidateID)
	}

	matches, err := s.matchRepo.ListByCandidate(db, candidateID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return toStoredMatches(matches), nil
}

func toStoredMatches(matches []models.Match) *dto.StoredMatchesResponse {
	out := make([]dto.StoredMatch, len(matches))
	for i, m := range matches {
		out[i] = dto.StoredMatch{
			ID:            m.ID,
			CandidateID:   m.CandidateID,
			JobID:         m.JobID,
			CandidateName: m.CandidateName,
			JobTitle:      m.JobTitle,
			MatchScores: dto.MatchScores{
				RequiredSkillsScore:  m.RequiredSkillsScore,
				PreferredSkillsScore: m.PreferredSkillsScore,
				ExperienceScore:      m.ExperienceScore,
				FinalMatchPercentage: m.FinalMatchPercentage,
			},
			MatchedRequiredSkills:  nonNil(m.GetMatchedRequiredSkills()),
			MissingRequiredSkills:  nonNil(m.GetMissingRequiredSkills()),
			MatchedPreferredSkills: nonNil(m.GetMatchedPreferredSkills()),
			UpdatedAt:              m.UpdatedAt.UTC().Format(time.RFC3339),
		}
	}
	return &dto.StoredMatchesResponse{Total: len(out), Matches: out}
}

// -------------------------------
// Natural keys / ephemeral scoring
// -------------------------------

const ephemeralNote = "In-memory match, not saved"

// MatchByNaturalKeys resolves the candidate by email and the job by title.
// When both exist the pair is scored and persisted; otherwise the inline
// profiles are scored ephemerally and nothing is written.
func (s *matchingService) MatchByNaturalKeys(ctx context.Context, db *gorm.DB, req *dto.MatchRequest) (*dto.MatchResponse, error) {
	candidate, err := s.lookupCandidate(db, req.Candidate.Email)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	job, err := s.lookupJob(db, req.Job.Title)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if candidate == nil || job == nil {
		logger.CtxWarn(ctx, "Candidate or job not stored, scoring in memory only",
			"email", req.Candidate.Email, "title", req.Job.Title)
		return s.ScoreEphemeral(req), nil
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.ErrPersistence(tx.Error)
	}
	defer tx.Rollback()

	pairs := []pair{{candidate: candidate, job: job}}
	results, err := s.scoreAndPersist(ctx, tx, pairs)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.ErrPersistence(err)
	}

	s.publish(ctx, dto.MatchesUpdatedEvent{
		Source:       "natural_key",
		JobIDs:       []uint{job.ID},
		CandidateIDs: []uint{candidate.ID},
		Count:        1,
	})
	return &dto.MatchResponse{Persisted: true, MatchResult: results[0]}, nil
}

func (s *matchingService) lookupCandidate(db *gorm.DB, email string) (*models.Candidate, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	candidate, err := s.candidateRepo.FindByEmail(db, email)
	if errors.Is(err, repositories.ErrCandidateNotFound) {
		return nil, nil
	}
	return candidate, err
}

func (s *matchingService) lookupJob(db *gorm.DB, title string) (*models.Job, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	job, err := s.jobRepo.FindByTitle(db, title)
	if errors.Is(err, repositories.ErrJobNotFound) {
		return nil, nil
	}
	return job, err
}

// ScoreEphemeral scores two inline profiles without touching storage.
func (s *matchingService) ScoreEphemeral(req *dto.MatchRequest) *dto.MatchResponse {
	candidate := &models.Candidate{
		FullName:               req.Candidate.FullName,
		OverallExperienceYears: req.Candidate.OverallExperienceYears,
	}
	_ = candidate.SetSkillMap(req.Candidate.Skills)

	job := &models.Job{
		Title:                      req.Job.Title,
		MinRequiredExperienceYears: req.Job.MinRequiredExperienceYears,
	}
	_ = job.SetSkills(req.Job.RequiredSkills, req.Job.PreferredSkills)

	cp := algorithms.CandidateProfileFrom(candidate)
	jp := algorithms.JobProfileFrom(job)
	if jp.Title == "" {
		jp.Title = "Unknown"
	}

	return &dto.MatchResponse{
		Persisted:   false,
		Note:        ephemeralNote,
		MatchResult: dto.NewMatchResult(cp, jp, algorithms.ScoreProfiles(cp, jp)),
	}
}

// -------------------------------
// Queued fan-out
// -------------------------------

// EnqueueFanOut checks that the entity exists and hands a task to the dispatcher.
func (s *matchingService) EnqueueFanOut(ctx context.Context, db *gorm.DB, kind dto.MatchTaskKind, entityID uint) (*dto.EnqueueResponse, error) {
	switch kind {
	case dto.MatchTaskJob:
		if _, err := s.jobRepo.FindByID(db, entityID); err != nil {
			return nil, handleMatchingError(err, entityID, 0)
		}
	case dto.MatchTaskCandidate:
		if _, err := s.candidateRepo.FindByID(db, entityID); err != nil {
			return nil, handleMatchingError(err, 0, entityID)
		}
	case dto.MatchTaskAll:
		entityID = 0
	default:
		return nil, apperrors.NewBadRequestError("unknown match task kind")
	}

	return enqueueTask(ctx, s.dispatcher, kind, entityID)
}

// -------------------------------
// Helpers
// -------------------------------

func (s *matchingService) publish(ctx context.Context, event dto.MatchesUpdatedEvent) {
	event.Type = dto.EventMatchesUpdated
	event.At = time.Now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.CtxWarn(ctx, "publish EVENT_MATCHES_UPDATED failed", "error", err)
	}
}

func handleMatchingError(err error, jobID, candidateID uint) error {
	switch {
	case errors.Is(err, repositories.ErrJobNotFound):
		return apperrors.ErrJobNotFound(jobID)
	case errors.Is(err, repositories.ErrCandidateNotFound):
		return apperrors.ErrCandidateNotFound(candidateID)
	}
	return apperrors.ErrPersistence(err)
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
