package handlers

import (
	"net/http"

	"interview_backend/internal/services"
	"interview_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// ProfileHandler serves the structured candidate and job records.
type ProfileHandler struct {
	*BaseHandler
	profileService services.ProfileService
}

func NewProfileHandler(base *BaseHandler, profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:    base,
		profileService: profileService,
	}
}

func (h *ProfileHandler) RegisterRoutes(r *gin.RouterGroup) {
	candidates := r.Group("/candidates")
	{
		candidates.POST("", h.CreateCandidate)
		candidates.GET("", h.ListCandidates)
		candidates.GET("/:id", h.GetCandidate)
		candidates.DELETE("/:id", h.DeleteCandidate)
	}

	jobs := r.Group("/jobs")
	{
		jobs.POST("", h.CreateJob)
		jobs.GET("", h.ListJobs)
		jobs.GET("/:id", h.GetJob)
		jobs.DELETE("/:id", h.DeleteJob)
	}
}

// --- Candidates ---

// CreateCandidate godoc
// @Summary Store a candidate
// @Tags candidates
// @Accept json
// @Produce json
// @Param request body dto.CreateCandidateRequest true "Candidate"
// @Success 201 {object} dto.CreateCandidateResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /candidates [post]
func (h *ProfileHandler) CreateCandidate(c *gin.Context) {
	var req dto.CreateCandidateRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	res, err := h.profileService.CreateCandidate(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *ProfileHandler) GetCandidate(c *gin.Context) {
	id, ok := ParseParamUint(c, "id")
	if !ok {
		return
	}

	candidate, err := h.profileService.GetCandidate(c.Request.Context(), h.GetDB(c), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, candidate)
}

func (h *ProfileHandler) ListCandidates(c *gin.Context) {
	limit, offset := ParsePagination(c)

	res, err := h.profileService.ListCandidates(c.Request.Context(), h.GetDB(c), limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *ProfileHandler) DeleteCandidate(c *gin.Context) {
	id, ok := ParseParamUint(c, "id")
	if !ok {
		return
	}

	if err := h.profileService.DeleteCandidate(c.Request.Context(), h.GetDB(c), id); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// --- Jobs ---

// CreateJob godoc
// @Summary Store a job
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body dto.CreateJobRequest true "Job"
// @Success 201 {object} dto.CreateJobResponse
// @Router /jobs [post]
func (h *ProfileHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	res, err := h.profileService.CreateJob(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *ProfileHandler) GetJob(c *gin.Context) {
	id, ok := ParseParamUint(c, "id")
	if !ok {
		return
	}

	job, err := h.profileService.GetJob(c.Request.Context(), h.GetDB(c), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *ProfileHandler) ListJobs(c *gin.Context) {
	limit, offset := ParsePagination(c)

	res, err := h.profileService.ListJobs(c.Request.Context(), h.GetDB(c), limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *ProfileHandler) DeleteJob(c *gin.Context) {
	id, ok := ParseParamUint(c, "id")
	if !ok {
		return
	}

	if err := h.profileService.DeleteJob(c.Request.Context(), h.GetDB(c), id); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
