package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"interview_backend/internal/database/dbtest"
	"interview_backend/internal/export"
	"interview_backend/internal/middleware"
	"interview_backend/internal/repositories"
	"interview_backend/internal/services"
	"interview_backend/internal/services/dto"
	"interview_backend/internal/validator"
	"interview_backend/pkg/apperrors"
)

type fakeDispatcher struct {
	tasks []dto.MatchTask
}

func (d *fakeDispatcher) Dispatch(_ context.Context, task dto.MatchTask) error {
	d.tasks = append(d.tasks, task)
	return nil
}

type testAPI struct {
	router     *gin.Engine
	db         *gorm.DB
	dispatcher *fakeDispatcher
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	dispatcher := &fakeDispatcher{}
	candidateRepo := repositories.NewCandidateRepository()
	jobRepo := repositories.NewJobRepository()
	matching := services.NewMatchingService(candidateRepo, jobRepo, repositories.NewMatchRepository(), dispatcher, nil, 2)
	profiles := services.NewProfileService(candidateRepo, jobRepo, dispatcher)

	base := NewBaseHandler(validator.New())
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware(), middleware.DBMiddleware(db))
	router.GET("/health", NewHealthHandler(base, nil).Health)
	api := router.Group("/api/v1")
	NewProfileHandler(base, profiles).RegisterRoutes(api)
	NewMatchingHandler(base, matching).RegisterRoutes(api)

	return &testAPI{router: router, db: db, dispatcher: dispatcher}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) apperrors.ErrorCode {
	t.Helper()
	var body struct {
		Error struct {
			Code apperrors.ErrorCode `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error.Code
}

func (a *testAPI) seed(t *testing.T) (candidateID, jobID uint) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/candidates", map[string]any{
		"full_name":                "Ada",
		"email":                    "ada@example.com",
		"overall_experience_years": 3,
		"skills":                   map[string][]string{"Key Skills": {"Python", "SQL"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	candidateID = decode[dto.CreateCandidateResponse](t, w).Candidate.ID

	w = a.do(t, http.MethodPost, "/api/v1/jobs", map[string]any{
		"title":                         "Data Engineer",
		"company_name":                  "Acme",
		"min_required_experience_years": 2,
		"required_skills":               []string{"python", "java"},
		"preferred_skills":              []string{"sql"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	jobID = decode[dto.CreateJobResponse](t, w).Job.ID
	return candidateID, jobID
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok", "checks": {"database": "ok"}}`, w.Body.String())
}

func TestProfileEndpoints(t *testing.T) {
	api := newTestAPI(t)
	candidateID, jobID := api.seed(t)
	assert.Len(t, api.dispatcher.tasks, 2)

	w := api.do(t, http.MethodGet, "/api/v1/candidates/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ada@example.com", decode[dto.CandidateResponse](t, w).Email)

	w = api.do(t, http.MethodGet, "/api/v1/jobs?page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	jobs := decode[dto.ListResponse[dto.JobResponse]](t, w)
	assert.EqualValues(t, 1, jobs.Total)
	assert.Equal(t, 10, jobs.Limit)

	w = api.do(t, http.MethodPost, "/api/v1/candidates", map[string]any{"full_name": "Dup", "email": "ADA@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/candidates", map[string]any{"full_name": "No Mail"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.CodeValidationFailed, errorCode(t, w))

	w = api.do(t, http.MethodGet, "/api/v1/candidates/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodDelete, "/api/v1/jobs/"+itoa(jobID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(t, http.MethodGet, "/api/v1/jobs/"+itoa(jobID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodDelete, "/api/v1/candidates/"+itoa(candidateID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMatchCandidatesToJobEndpoint(t *testing.T) {
	api := newTestAPI(t)
	candidateID, jobID := api.seed(t)

	w := api.do(t, http.MethodPost, "/api/v1/match/candidates-to-job", map[string]any{
		"candidate_ids": []uint{candidateID, candidateID + 1},
		"job_id":        jobID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		JobID        uint             `json:"job_id"`
		TotalMatched int              `json:"total_matched"`
		Results      []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, jobID, body.JobID)
	assert.Equal(t, 1, body.TotalMatched)
	require.Len(t, body.Results, 2)
	assert.Equal(t, "Ada", body.Results[0]["candidate_name"])
	assert.Equal(t, 75.0, body.Results[0]["match_scores"].(map[string]any)["final_match_percentage"])
	assert.Equal(t, "not found", body.Results[1]["error"])

	w = api.do(t, http.MethodPost, "/api/v1/match/candidates-to-job", map[string]any{
		"candidate_ids": []uint{candidateID},
		"job_id":        999,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.CodeJobNotFound, errorCode(t, w))

	w = api.do(t, http.MethodPost, "/api/v1/match/candidates-to-job", map[string]any{"job_id": jobID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRankedAndStoredEndpoints(t *testing.T) {
	api := newTestAPI(t)
	candidateID, jobID := api.seed(t)

	w := api.do(t, http.MethodGet, "/api/v1/matches/job/"+itoa(jobID)+"/stored", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[dto.StoredMatchesResponse](t, w).Total)

	w = api.do(t, http.MethodGet, "/api/v1/matches/job/"+itoa(jobID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ranked := decode[dto.RankedMatchesResponse](t, w)
	assert.Equal(t, "Data Engineer", ranked.JobTitle)
	assert.Equal(t, "Acme", ranked.CompanyName)
	require.Equal(t, 1, ranked.TotalCandidates)
	assert.Equal(t, 1, ranked.Candidates[0].Rank)
	assert.Equal(t, 75.0, ranked.Candidates[0].MatchScores.FinalMatchPercentage)

	w = api.do(t, http.MethodGet, "/api/v1/matches/candidate/"+itoa(candidateID)+"/stored", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[dto.StoredMatchesResponse](t, w).Total)

	w = api.do(t, http.MethodGet, "/api/v1/matches/job/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRankedMatches_NoCandidates(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPost, "/api/v1/jobs", map[string]any{"title": "Lonely"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/matches/job/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.CodeNoCandidates, errorCode(t, w))
}

func TestExportRankedMatches(t *testing.T) {
	api := newTestAPI(t)
	_, jobID := api.seed(t)

	w := api.do(t, http.MethodGet, "/api/v1/matches/job/"+itoa(jobID)+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, export.ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), export.FileName(jobID))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.RankedSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestFanOutEndpoints(t *testing.T) {
	api := newTestAPI(t)
	candidateID, jobID := api.seed(t)

	w := api.do(t, http.MethodPost, "/api/v1/match/jobs/"+itoa(jobID)+"/run", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fanOut := decode[dto.FanOutResponse](t, w)
	assert.Equal(t, "job", fanOut.EntityType)
	assert.Equal(t, 1, fanOut.Total)

	w = api.do(t, http.MethodPost, "/api/v1/match/candidates/"+itoa(candidateID)+"/run", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[dto.FanOutResponse](t, w).Total)

	before := len(api.dispatcher.tasks)
	w = api.do(t, http.MethodPost, "/api/v1/match/jobs/"+itoa(jobID)+"/enqueue", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "queued", decode[dto.EnqueueResponse](t, w).Status)

	w = api.do(t, http.MethodPost, "/api/v1/match/recalculate", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, api.dispatcher.tasks, before+2)

	w = api.do(t, http.MethodPost, "/api/v1/match/candidates/999/enqueue", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMatchNaturalKeysEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	w := api.do(t, http.MethodPost, "/api/v1/match", map[string]any{
		"candidate": map[string]any{"email": "ada@example.com"},
		"job":       map[string]any{"title": "Data Engineer"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	persisted := decode[map[string]any](t, w)
	assert.Equal(t, true, persisted["persisted"])
	assert.Equal(t, 75.0, persisted["match_scores"].(map[string]any)["final_match_percentage"])

	w = api.do(t, http.MethodPost, "/api/v1/match", map[string]any{
		"candidate": map[string]any{"full_name": "Eve", "skills": map[string][]string{"x": {"rust"}}},
		"job":       map[string]any{"title": "Rustacean", "required_skills": []string{"rust"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ephemeral := decode[map[string]any](t, w)
	assert.Equal(t, false, ephemeral["persisted"])
	assert.NotEmpty(t, ephemeral["note"])
	assert.Equal(t, 80.0, ephemeral["match_scores"].(map[string]any)["final_match_percentage"])
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
