package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview_backend/internal/repositories"
	"interview_backend/internal/services/dto"
	"interview_backend/pkg/apperrors"
)

var ctx = context.Background()

func TestMatchAllCandidatesForJob_ReferenceScenario(t *testing.T) {
	f := newFixture(t)
	c := f.candidate(t, "Ada", "ada@example.com", floatPtr(3), "Python", "SQL")
	j := f.job(t, "Data Engineer", floatPtr(2), []string{"python", "java"}, []string{"sql"})

	results, err := f.matching.MatchAllCandidatesForJob(ctx, f.db, j.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, c.ID, r.CandidateID)
	assert.Equal(t, j.ID, r.JobID)
	assert.Equal(t, 25.0, r.MatchScores.RequiredSkillsScore)
	assert.Equal(t, 20.0, r.MatchScores.PreferredSkillsScore)
	assert.Equal(t, 30.0, r.MatchScores.ExperienceScore)
	assert.Equal(t, 75.0, r.MatchScores.FinalMatchPercentage)
	assert.Equal(t, []string{"python"}, r.MatchedRequiredSkills)
	assert.Equal(t, []string{"java"}, r.MissingRequiredSkills)
	assert.Equal(t, []string{"sql"}, r.MatchedPreferredSkills)
	assert.Equal(t, "50%", r.ScoreWeights.RequiredSkills)

	stored, err := repositories.NewMatchRepository().FindByPair(f.db, c.ID, j.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, stored.FinalMatchPercentage)
	assert.Equal(t, "Ada", stored.CandidateName)
	assert.Equal(t, "Data Engineer", stored.JobTitle)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, dto.EventMatchesUpdated, f.publisher.events[0].Type)
	assert.Equal(t, []uint{j.ID}, f.publisher.events[0].JobIDs)
}

func TestMatchAllCandidatesForJob_NoCandidatesIsEmptyList(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "Lonely", nil, []string{"go"}, nil)

	results, err := f.matching.MatchAllCandidatesForJob(ctx, f.db, j.ID)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Empty(t, f.publisher.events)
}

func TestMatchAllCandidatesForJob_MissingJob(t *testing.T) {
	f := newFixture(t)
	f.candidate(t, "Ada", "ada@example.com", nil, "go")

	_, err := f.matching.MatchAllCandidatesForJob(ctx, f.db, 404)
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeJobNotFound, appErr.Code)
	assert.Equal(t, 404, appErr.HTTPCode)
	assert.EqualValues(t, 0, f.matchCount(t))
}

func TestMatchAllCandidatesForJob_IdempotentUpsert(t *testing.T) {
	f := newFixture(t)
	c := f.candidate(t, "Ada", "ada@example.com", floatPtr(3), "python", "sql")
	j := f.job(t, "Data Engineer", floatPtr(2), []string{"python", "java"}, []string{"sql"})
	repo := repositories.NewMatchRepository()

	_, err := f.matching.MatchAllCandidatesForJob(ctx, f.db, j.ID)
	require.NoError(t, err)
	first, err := repo.FindByPair(f.db, c.ID, j.ID)
	require.NoError(t, err)

	_, err = f.matching.MatchAllCandidatesForJob(ctx, f.db, j.ID)
	require.NoError(t, err)
	_, err = f.matching.MatchAllJobsForCandidate(ctx, f.db, c.ID)
	require.NoError(t, err)

	count, err := repo.CountByPair(f.db, c.ID, j.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	second, err := repo.FindByPair(f.db, c.ID, j.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.FinalMatchPercentage, second.FinalMatchPercentage)
	assert.Equal(t, first.GetMissingRequiredSkills(), second.GetMissingRequiredSkills())
}

func TestMatchAllJobsForCandidate(t *testing.T) {
	f := newFixture(t)
	c := f.candidate(t, "Ada", "ada@example.com", floatPtr(1), "go")
	j1 := f.job(t, "Gopher", floatPtr(2), []string{"go"}, nil)
	j2 := f.job(t, "Open Role", nil, nil, nil)

	results, err := f.matching.MatchAllJobsForCandidate(ctx, f.db, c.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, j1.ID, results[0].JobID)
	assert.Equal(t, 50.0, results[0].MatchScores.RequiredSkillsScore)
	assert.Equal(t, 15.0, results[0].MatchScores.ExperienceScore)
	assert.Equal(t, 65.0, results[0].MatchScores.FinalMatchPercentage)

	assert.Equal(t, j2.ID, results[1].JobID)
	assert.Equal(t, 80.0, results[1].MatchScores.FinalMatchPercentage)
	assert.EqualValues(t, 2, f.matchCount(t))
}

func TestMatchAllJobsForCandidate_NoJobsAndMissingCandidate(t *testing.T) {
	f := newFixture(t)
	c := f.candidate(t, "Ada", "ada@example.com", nil)

	results, err := f.matching.MatchAllJobsForCandidate(ctx, f.db, c.ID)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = f.matching.MatchAllJobsForCandidate(ctx, f.db, 999)
	assert.ErrorIs(t, err, apperrors.ErrCandidateNotFound(999))
}

func TestMatchCandidatesToJob_PartialSuccess(t *testing.T) {
	f := newFixture(t)
	c1 := f.candidate(t, "Ada", "ada@example.com", floatPtr(3), "python", "sql")
	j := f.job(t, "Data Engineer", floatPtr(2), []string{"python", "java"}, []string{"sql"})
	missing := c1.ID + 1

	res, err := f.matching.MatchCandidatesToJob(ctx, f.db, []uint{c1.ID, missing}, j.ID)
	require.NoError(t, err)

	assert.Equal(t, j.ID, res.JobID)
	assert.Equal(t, 1, res.TotalMatched)
	require.Len(t, res.Results, 2)

	assert.False(t, res.Results[0].Failed())
	assert.Equal(t, 75.0, res.Results[0].Result.MatchScores.FinalMatchPercentage)

	assert.True(t, res.Results[1].Failed())
	assert.Equal(t, missing, res.Results[1].CandidateID)

	raw, err := json.Marshal(res.Results[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"candidate_id": 2, "error": "not found"}`, string(raw))

	assert.EqualValues(t, 1, f.matchCount(t))
}

func TestMatchCandidatesToJob_MissingJobFailsWholeCall(t *testing.T) {
	f := newFixture(t)
	c := f.candidate(t, "Ada", "ada@example.com", nil, "go")

	res, err := f.matching.MatchCandidatesToJob(ctx, f.db, []uint{c.ID}, 77)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, apperrors.ErrJobNotFound(77))
	assert.EqualValues(t, 0, f.matchCount(t))
}

func TestMatchAllCandidatesForJob_PersistenceFailureRollsBackBatch(t *testing.T) {
	failing := &failingMatchRepository{MatchRepository: repositories.NewMatchRepository(), failAfter: 1}
	f := newFixtureWithMatchRepo(t, failing)
	f.candidate(t, "Ada", "ada@example.com", nil, "go")
	f.candidate(t, "Bob", "bob@example.com", nil, "rust")
	j := f.job(t, "Gopher", nil, []string{"go"}, nil)

	results, err := f.matching.MatchAllCandidatesForJob(ctx, f.db, j.ID)
	assert.Nil(t, results)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeDatabaseError, appErr.Code)

	// The first upsert went through inside the transaction and was rolled back
	assert.Equal(t, 2, failing.calls)
	assert.EqualValues(t, 0, f.matchCount(t))
	assert.Empty(t, f.publisher.events)
}

func TestRankedMatchesForJob_OrdersAndRanks(t *testing.T) {
	f := newFixture(t)
	// 25+10+30, 25+10+0 and 50+0+30
	mid := f.candidate(t, "Mid", "mid@example.com", floatPtr(3), "python", "sql")
	low := f.candidate(t, "Low", "low@example.com", floatPtr(0), "sql", "python")
	top := f.candidate(t, "Top", "top@example.com", floatPtr(3), "python", "java")
	j := f.job(t, "Data Engineer", floatPtr(2), []string{"python", "java"}, []string{"sql", "go"})

	ranked, err := f.matching.RankedMatchesForJob(ctx, f.db, j.ID)
	require.NoError(t, err)

	assert.Equal(t, j.ID, ranked.JobID)
	assert.Equal(t, "Data Engineer", ranked.JobTitle)
	assert.Equal(t, "Acme", ranked.CompanyName)
	assert.Equal(t, 3, ranked.TotalCandidates)
	require.Len(t, ranked.Candidates, 3)

	assert.Equal(t, top.ID, ranked.Candidates[0].CandidateID)
	assert.Equal(t, 80.0, ranked.Candidates[0].MatchScores.FinalMatchPercentage)
	assert.Equal(t, mid.ID, ranked.Candidates[1].CandidateID)
	assert.Equal(t, 65.0, ranked.Candidates[1].MatchScores.FinalMatchPercentage)
	assert.Equal(t, low.ID, ranked.Candidates[2].CandidateID)
	assert.Equal(t, 35.0, ranked.Candidates[2].MatchScores.FinalMatchPercentage)

	for i, rc := range ranked.Candidates {
		assert.Equal(t, i+1, rc.Rank)
	}
}

func TestRankResults_SpecScores(t *testing.T) {
	results := []*dto.MatchResult{
		{CandidateID: 1, MatchScores: dto.MatchScores{FinalMatchPercentage: 75}},
		{CandidateID: 2, MatchScores: dto.MatchScores{FinalMatchPercentage: 40}},
		{CandidateID: 3, MatchScores: dto.MatchScores{FinalMatchPercentage: 90}},
	}

	RankResults(results)

	var scores []float64
	for _, r := range results {
		scores = append(scores, r.MatchScores.FinalMatchPercentage)
	}
	assert.Equal(t, []float64{90, 75, 40}, scores)
}

func TestRankResults_TieBreakByCandidateID(t *testing.T) {
	results := []*dto.MatchResult{
		{CandidateID: 9, MatchScores: dto.MatchScores{FinalMatchPercentage: 50}},
		{CandidateID: 2, MatchScores: dto.MatchScores{FinalMatchPercentage: 50}},
		{CandidateID: 5, MatchScores: dto.MatchScores{FinalMatchPercentage: 70}},
	}

	RankResults(results)

	assert.Equal(t, uint(5), results[0].CandidateID)
	assert.Equal(t, uint(2), results[1].CandidateID)
	assert.Equal(t, uint(9), results[2].CandidateID)
}

func TestRankedMatchesForJob_Failures(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "Empty", nil, nil, nil)

	_, err := f.matching.RankedMatchesForJob(ctx, f.db, j.ID)
	assert.ErrorIs(t, err, apperrors.ErrNoCandidates())

	_, err = f.matching.RankedMatchesForJob(ctx, f.db, 12345)
	assert.ErrorIs(t, err, apperrors.ErrJobNotFound(12345))
}

func TestGetStoredMatches(t *testing.T) {
	f := newFixture(t)
	c := f.candidate(t, "Ada", "ada@example.com", floatPtr(3), "python")
	j := f.job(t, "Data Engineer", nil, []string{"python"}, nil)

	empty, err := f.matching.GetStoredMatchesForJob(ctx, f.db, j.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total)

	_, err = f.matching.MatchAllCandidatesForJob(ctx, f.db, j.ID)
	require.NoError(t, err)

	byJob, err := f.matching.GetStoredMatchesForJob(ctx, f.db, j.ID)
	require.NoError(t, err)
	require.Equal(t, 1, byJob.Total)
	assert.Equal(t, 80.0, byJob.Matches[0].MatchScores.FinalMatchPercentage)
	assert.Equal(t, []string{"python"}, byJob.Matches[0].MatchedRequiredSkills)
	assert.Equal(t, []string{}, byJob.Matches[0].MissingRequiredSkills)

	byCandidate, err := f.matching.GetStoredMatchesForCandidate(ctx, f.db, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, byCandidate.Total)

	_, err = f.matching.GetStoredMatchesForCandidate(ctx, f.db, 999)
	assert.ErrorIs(t, err, apperrors.ErrCandidateNotFound(999))
}

func TestMatchByNaturalKeys(t *testing.T) {
	f := newFixture(t)
	f.candidate(t, "Ada", "ada@example.com", floatPtr(3), "python", "sql")
	f.job(t, "Data Engineer", floatPtr(2), []string{"python", "java"}, []string{"sql"})

	t.Run("both stored", func(t *testing.T) {
		res, err := f.matching.MatchByNaturalKeys(ctx, f.db, &dto.MatchRequest{
			Candidate: dto.InlineCandidate{Email: "ada@example.com"},
			Job:       dto.InlineJob{Title: "Data Engineer"},
		})
		require.NoError(t, err)
		assert.True(t, res.Persisted)
		assert.Equal(t, 75.0, res.MatchScores.FinalMatchPercentage)
		assert.EqualValues(t, 1, f.matchCount(t))
	})

	t.Run("falls back to ephemeral", func(t *testing.T) {
		res, err := f.matching.MatchByNaturalKeys(ctx, f.db, &dto.MatchRequest{
			Candidate: dto.InlineCandidate{
				FullName:               "Grace",
				Email:                  "grace@example.com",
				OverallExperienceYears: floatPtr(1),
				Skills:                 map[string][]string{"Languages": {"COBOL", "Python"}},
			},
			Job: dto.InlineJob{
				Title:                      "Data Engineer",
				RequiredSkills:             []string{"python"},
				MinRequiredExperienceYears: floatPtr(4),
			},
		})
		require.NoError(t, err)
		assert.False(t, res.Persisted)
		assert.NotEmpty(t, res.Note)
		assert.Equal(t, "Grace", res.CandidateName)
		assert.Equal(t, 50.0, res.MatchScores.RequiredSkillsScore)
		assert.Equal(t, 7.5, res.MatchScores.ExperienceScore)
		assert.EqualValues(t, 1, f.matchCount(t))
	})
}

func TestScoreEphemeral_UsesSameFormula(t *testing.T) {
	f := newFixture(t)

	res := f.matching.ScoreEphemeral(&dto.MatchRequest{
		Candidate: dto.InlineCandidate{
			OverallExperienceYears: floatPtr(3),
			Skills:                 map[string][]string{"a": {"python"}, "b": {"sql"}},
		},
		Job: dto.InlineJob{
			RequiredSkills:             []string{"python", "java"},
			PreferredSkills:            []string{"sql"},
			MinRequiredExperienceYears: floatPtr(2),
		},
	})

	assert.False(t, res.Persisted)
	assert.Equal(t, "Unknown", res.CandidateName)
	assert.Equal(t, "Unknown", res.JobTitle)
	assert.Equal(t, 75.0, res.MatchScores.FinalMatchPercentage)
}

func TestRecalculateAllMatches(t *testing.T) {
	f := newFixture(t)
	f.candidate(t, "Ada", "ada@example.com", nil, "go")
	f.candidate(t, "Bob", "bob@example.com", nil, "rust")
	f.job(t, "Gopher", nil, []string{"go"}, nil)
	f.job(t, "Rustacean", nil, []string{"rust"}, nil)
	f.job(t, "Polyglot", nil, []string{"go", "rust"}, nil)

	summary, err := f.matching.RecalculateAllMatches(ctx, f.db)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Jobs)
	assert.Equal(t, 6, summary.Scored)
	assert.EqualValues(t, 6, f.matchCount(t))
	assert.Len(t, f.publisher.events, 3)
}

func TestEnqueueFanOut(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "Gopher", nil, nil, nil)

	res, err := f.matching.EnqueueFanOut(ctx, f.db, dto.MatchTaskJob, j.ID)
	require.NoError(t, err)
	assert.Equal(t, "queued", res.Status)
	require.Len(t, f.dispatcher.tasks, 1)
	assert.Equal(t, dto.MatchTaskJob, f.dispatcher.tasks[0].Kind)
	assert.Equal(t, j.ID, f.dispatcher.tasks[0].EntityID)
	assert.Equal(t, res.TaskID, f.dispatcher.tasks[0].ID)

	_, err = f.matching.EnqueueFanOut(ctx, f.db, dto.MatchTaskCandidate, 999)
	assert.ErrorIs(t, err, apperrors.ErrCandidateNotFound(999))

	f.dispatcher.err = assert.AnError
	_, err = f.matching.EnqueueFanOut(ctx, f.db, dto.MatchTaskAll, 0)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeQueueUnavailable, appErr.Code)
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = assert.AnError
	f.candidate(t, "Ada", "ada@example.com", nil, "go")
	j := f.job(t, "Gopher", nil, []string{"go"}, nil)

	results, err := f.matching.MatchAllCandidatesForJob(ctx, f.db, j.ID)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.EqualValues(t, 1, f.matchCount(t))
}
