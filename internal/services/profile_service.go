package services

import (
	"context"
	"errors"
	"strings"

	"interview_backend/internal/logger"
	"interview_backend/internal/models"
	"interview_backend/internal/repositories"
	"interview_backend/internal/services/dto"
	"interview_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// ProfileService stores structured candidate and job records coming from the
// extraction pipeline. Fan-out is queued after the insert commits; it is never
// part of the insert transaction.
type ProfileService interface {
	CreateCandidate(ctx context.Context, db *gorm.DB, req *dto.CreateCandidateRequest) (*dto.CreateCandidateResponse, error)
	GetCandidate(ctx context.Context, db *gorm.DB, id uint) (*dto.CandidateResponse, error)
	ListCandidates(ctx context.Context, db *gorm.DB, limit, offset int) (*dto.ListResponse[*dto.CandidateResponse], error)
	DeleteCandidate(ctx context.Context, db *gorm.DB, id uint) error

	CreateJob(ctx context.Context, db *gorm.DB, req *dto.CreateJobRequest) (*dto.CreateJobResponse, error)
	GetJob(ctx context.Context, db *gorm.DB, id uint) (*dto.JobResponse, error)
	ListJobs(ctx context.Context, db *gorm.DB, limit, offset int) (*dto.ListResponse[*dto.JobResponse], error)
	DeleteJob(ctx context.Context, db *gorm.DB, id uint) error
}

type ProfileServiceImpl struct {
	candidateRepo repositories.CandidateRepository
	jobRepo       repositories.JobRepository
	dispatcher    MatchDispatcher
}

func NewProfileService(
	candidateRepo repositories.CandidateRepository,
	jobRepo repositories.JobRepository,
	dispatcher MatchDispatcher,
) ProfileService {
	return &ProfileServiceImpl{
		candidateRepo: candidateRepo,
		jobRepo:       jobRepo,
		dispatcher:    dispatcher,
	}
}

// -------------------------------
// Candidates
// -------------------------------

func (s *ProfileServiceImpl) CreateCandidate(ctx context.Context, db *gorm.DB, req *dto.CreateCandidateRequest) (*dto.CreateCandidateResponse, error) {
	candidate := &models.Candidate{
		FullName:               strings.TrimSpace(req.FullName),
		Email:                  strings.ToLower(strings.TrimSpace(req.Email)),
		PhoneNumber:            req.PhoneNumber,
		City:                   req.City,
		State:                  req.State,
		Country:                req.Country,
		CurrentDesignation:     req.CurrentDesignation,
		CurrentCompany:         req.CurrentCompany,
		OverallExperienceYears: req.OverallExperienceYears,
		Summary:                req.Summary,
		ResumeLink:             req.ResumeLink,
	}
	if err := candidate.SetSkillMap(req.Skills); err != nil {
		return nil, apperrors.NewBadRequestError("invalid skills")
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.candidateRepo.Create(tx, candidate); err != nil {
		return nil, handleProfileError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Candidate stored", "candidate_id", candidate.ID)

	return &dto.CreateCandidateResponse{
		Candidate: toCandidateResponse(candidate),
		MatchTask: s.queueFanOut(ctx, dto.MatchTaskCandidate, candidate.ID),
	}, nil
}

func (s *ProfileServiceImpl) GetCandidate(ctx context.Context, db *gorm.DB, id uint) (*dto.CandidateResponse, error) {
	candidate, err := s.candidateRepo.FindByID(db, id)
	if err != nil {
		return nil, handleProfileError(err)
	}
	return toCandidateResponse(candidate), nil
}

func (s *ProfileServiceImpl) ListCandidates(ctx context.Context, db *gorm.DB, limit, offset int) (*dto.ListResponse[*dto.CandidateResponse], error) {
	candidates, total, err := s.candidateRepo.List(db, limit, offset)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]*dto.CandidateResponse, len(candidates))
	for i := range candidates {
		items[i] = toCandidateResponse(&candidates[i])
	}
	return &dto.ListResponse[*dto.CandidateResponse]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *ProfileServiceImpl) DeleteCandidate(ctx context.Context, db *gorm.DB, id uint) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.candidateRepo.Delete(tx, id); err != nil {
		return handleProfileError(err)
	}
	return tx.Commit().Error
}

// -------------------------------
// Jobs
// -------------------------------

func (s *ProfileServiceImpl) CreateJob(ctx context.Context, db *gorm.DB, req *dto.CreateJobRequest) (*dto.CreateJobResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperrors.ErrJobTitleRequired
	}

	job := &models.Job{
		Title:                      title,
		CompanyName:                req.CompanyName,
		MinRequiredExperienceYears: req.MinRequiredExperienceYears,
		MaxRequiredExperienceYears: req.MaxRequiredExperienceYears,
		Location:                   req.Location,
		EmploymentType:             req.EmploymentType,
		Summary:                    req.Summary,
		DescriptionLink:            req.DescriptionLink,
	}
	if err := job.SetSkills(req.RequiredSkills, req.PreferredSkills); err != nil {
		return nil, apperrors.NewBadRequestError("invalid skills")
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.jobRepo.Create(tx, job); err != nil {
		return nil, handleProfileError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Job stored", "job_id", job.ID)

	return &dto.CreateJobResponse{
		Job:       toJobResponse(job),
		MatchTask: s.queueFanOut(ctx, dto.MatchTaskJob, job.ID),
	}, nil
}

func (s *ProfileServiceImpl) GetJob(ctx context.Context, db *gorm.DB, id uint) (*dto.JobResponse, error) {
	job, err := s.jobRepo.FindByID(db, id)
	if err != nil {
		return nil, handleProfileError(err)
	}
	return toJobResponse(job), nil
}

func (s *ProfileServiceImpl) ListJobs(ctx context.Context, db *gorm.DB, limit, offset int) (*dto.ListResponse[*dto.JobResponse], error) {
	jobs, total, err := s.jobRepo.List(db, limit, offset)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]*dto.JobResponse, len(jobs))
	for i := range jobs {
		items[i] = toJobResponse(&jobs[i])
	}
	return &dto.ListResponse[*dto.JobResponse]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *ProfileServiceImpl) DeleteJob(ctx context.Context, db *gorm.DB, id uint) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.jobRepo.Delete(tx, id); err != nil {
		return handleProfileError(err)
	}
	return tx.Commit().Error
}

// -------------------------------
// Helpers
// -------------------------------

// queueFanOut is best effort: the record is already stored, so a queue outage
// only delays matching and is logged rather than returned.
func (s *ProfileServiceImpl) queueFanOut(ctx context.Context, kind dto.MatchTaskKind, id uint) *dto.EnqueueResponse {
	if s.dispatcher == nil {
		return nil
	}
	res, err := enqueueTask(ctx, s.dispatcher, kind, id)
	if err != nil {
		return nil
	}
	return res
}

func toCandidateResponse(c *models.Candidate) *dto.CandidateResponse {
	return &dto.CandidateResponse{
		ID:                     c.ID,
		FullName:               c.FullName,
		Email:                  c.Email,
		PhoneNumber:            c.PhoneNumber,
		City:                   c.City,
		State:                  c.State,
		Country:                c.Country,
		CurrentDesignation:     c.CurrentDesignation,
		CurrentCompany:         c.CurrentCompany,
		OverallExperienceYears: c.OverallExperienceYears,
		Summary:                c.Summary,
		Skills:                 c.SkillMap(),
		ResumeLink:             c.ResumeLink,
		CreatedAt:              c.CreatedAt,
		UpdatedAt:              c.UpdatedAt,
	}
}

func toJobResponse(j *models.Job) *dto.JobResponse {
	return &dto.JobResponse{
		ID:                         j.ID,
		Title:                      j.Title,
		CompanyName:                j.CompanyName,
		MinRequiredExperienceYears: j.MinRequiredExperienceYears,
		MaxRequiredExperienceYears: j.MaxRequiredExperienceYears,
		Location:                   j.Location,
		EmploymentType:             j.EmploymentType,
		Summary:                    j.Summary,
		RequiredSkills:             nonNil(j.GetRequiredSkills()),
		PreferredSkills:            nonNil(j.GetPreferredSkills()),
		DescriptionLink:            j.DescriptionLink,
		CreatedAt:                  j.CreatedAt,
		UpdatedAt:                  j.UpdatedAt,
	}
}

func handleProfileError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrCandidateAlreadyExists):
		return apperrors.ErrCandidateAlreadyExists
	case errors.Is(err, repositories.ErrCandidateNotFound),
		errors.Is(err, repositories.ErrJobNotFound):
		return apperrors.ErrNotFound(err)
	}
	return apperrors.InternalError(err)
}
