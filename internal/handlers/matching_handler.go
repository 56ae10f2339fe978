package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"interview_backend/internal/export"
	"interview_backend/internal/services"
	"interview_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type MatchingHandler struct {
	*BaseHandler
	matchingService services.MatchingService
}

func NewMatchingHandler(base *BaseHandler, matchingService services.MatchingService) *MatchingHandler {
	return &MatchingHandler{
		BaseHandler:     base,
		matchingService: matchingService,
	}
}

func (h *MatchingHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/match", h.Match)

	match := r.Group("/match")
	{
		match.POST("/candidates-to-job", h.MatchCandidatesToJob)
		match.POST("/jobs/:jobId/run", h.RunJobFanOut)
		match.POST("/candidates/:candidateId/run", h.RunCandidateFanOut)
		match.POST("/jobs/:jobId/enqueue", h.EnqueueJobFanOut)
		match.POST("/candidates/:candidateId/enqueue", h.EnqueueCandidateFanOut)
		match.POST("/recalculate", h.EnqueueRecalculate)
	}

	matches := r.Group("/matches")
	{
		matches.GET("/job/:jobId", h.GetRankedMatches)
		matches.GET("/job/:jobId/export", h.ExportRankedMatches)
		matches.GET("/job/:jobId/stored", h.GetStoredMatchesForJob)
		matches.GET("/candidate/:candidateId/stored", h.GetStoredMatchesForCandidate)
	}
}

// --- Batch scoring ---

// MatchCandidatesToJob godoc
// @Summary Score a list of candidates against one job
// @Tags matching
// @Accept json
// @Produce json
// @Param request body dto.MatchCandidatesToJobRequest true "Candidate ids and job id"
// @Success 200 {object} dto.BatchMatchResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /match/candidates-to-job [post]
func (h *MatchingHandler) MatchCandidatesToJob(c *gin.Context) {
	var req dto.MatchCandidatesToJobRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	res, err := h.matchingService.MatchCandidatesToJob(c.Request.Context(), h.GetDB(c), req.CandidateIDs, req.JobID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *MatchingHandler) RunJobFanOut(c *gin.Context) {
	jobID, ok := ParseParamUint(c, "jobId")
	if !ok {
		return
	}

	results, err := h.matchingService.MatchAllCandidatesForJob(c.Request.Context(), h.GetDB(c), jobID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FanOutResponse{
		EntityType: "job",
		EntityID:   jobID,
		Total:      len(results),
		Results:    results,
	})
}

func (h *MatchingHandler) RunCandidateFanOut(c *gin.Context) {
	candidateID, ok := ParseParamUint(c, "candidateId")
	if !ok {
		return
	}

	results, err := h.matchingService.MatchAllJobsForCandidate(c.Request.Context(), h.GetDB(c), candidateID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FanOutResponse{
		EntityType: "candidate",
		EntityID:   candidateID,
		Total:      len(results),
		Results:    results,
	})
}

// --- Queued scoring ---

func (h *MatchingHandler) EnqueueJobFanOut(c *gin.Context) {
	h.enqueue(c, dto.MatchTaskJob, "jobId")
}

func (h *MatchingHandler) EnqueueCandidateFanOut(c *gin.Context) {
	h.enqueue(c, dto.MatchTaskCandidate, "candidateId")
}

func (h *MatchingHandler) EnqueueRecalculate(c *gin.Context) {
	h.enqueue(c, dto.MatchTaskAll, "")
}

func (h *MatchingHandler) enqueue(c *gin.Context, kind dto.MatchTaskKind, param string) {
	var entityID uint
	if param != "" {
		id, ok := ParseParamUint(c, param)
		if !ok {
			return
		}
		entityID = id
	}

	res, err := h.matchingService.EnqueueFanOut(c.Request.Context(), h.GetDB(c), kind, entityID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, res)
}

// --- Views ---

// GetRankedMatches godoc
// @Summary Rescore and rank every candidate for a job
// @Tags matching
// @Produce json
// @Param jobId path int true "Job ID"
// @Success 200 {object} dto.RankedMatchesResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /matches/job/{jobId} [get]
func (h *MatchingHandler) GetRankedMatches(c *gin.Context) {
	jobID, ok := ParseParamUint(c, "jobId")
	if !ok {
		return
	}

	ranked, err := h.matchingService.RankedMatchesForJob(c.Request.Context(), h.GetDB(c), jobID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ranked)
}

func (h *MatchingHandler) ExportRankedMatches(c *gin.Context) {
	jobID, ok := ParseParamUint(c, "jobId")
	if !ok {
		return
	}

	ranked, err := h.matchingService.RankedMatchesForJob(c.Request.Context(), h.GetDB(c), jobID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.RankedMatchesToXLSX(&buf, ranked, time.Now()); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(jobID)))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}

func (h *MatchingHandler) GetStoredMatchesForJob(c *gin.Context) {
	jobID, ok := ParseParamUint(c, "jobId")
	if !ok {
		return
	}

	res, err := h.matchingService.GetStoredMatchesForJob(c.Request.Context(), h.GetDB(c), jobID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *MatchingHandler) GetStoredMatchesForCandidate(c *gin.Context) {
	candidateID, ok := ParseParamUint(c, "candidateId")
	if !ok {
		return
	}

	res, err := h.matchingService.GetStoredMatchesForCandidate(c.Request.Context(), h.GetDB(c), candidateID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// --- Natural keys ---

// Match godoc
// @Summary Score a candidate against a job by email and title
// @Description Persists when both records exist, otherwise scores the inline profiles in memory.
// @Tags matching
// @Accept json
// @Produce json
// @Param request body dto.MatchRequest true "Inline candidate and job"
// @Success 200 {object} dto.MatchResponse
// @Router /match [post]
func (h *MatchingHandler) Match(c *gin.Context) {
	var req dto.MatchRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	res, err := h.matchingService.MatchByNaturalKeys(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
