package dto

import "time"

// ==========================
// Create Requests
// ==========================

// CreateCandidateRequest is the structured record handed over by the resume
// extraction pipeline.
type CreateCandidateRequest struct {
	FullName               string              `json:"full_name" validate:"required,max=255"`
	Email                  string              `json:"email" validate:"required,email"`
	PhoneNumber            string              `json:"phone_number" validate:"omitempty,max=50"`
	City                   string              `json:"city"`
	State                  string              `json:"state"`
	Country                string              `json:"country"`
	CurrentDesignation     string              `json:"current_designation"`
	CurrentCompany         string              `json:"current_company"`
	OverallExperienceYears *float64            `json:"overall_experience_years"`
	Summary                string              `json:"summary" validate:"omitempty,max=5000"`
	Skills                 map[string][]string `json:"skills" validate:"omitempty,dive,skill-list"`
	ResumeLink             string              `json:"resume_link" validate:"omitempty,url"`
}

type CreateJobRequest struct {
	Title                      string   `json:"title" validate:"required,max=255"`
	CompanyName                string   `json:"company_name" validate:"omitempty,max=255"`
	MinRequiredExperienceYears *float64 `json:"min_required_experience_years"`
	MaxRequiredExperienceYears *float64 `json:"max_required_experience_years"`
	Location                   string   `json:"location"`
	EmploymentType             string   `json:"employment_type"`
	Summary                    string   `json:"summary" validate:"omitempty,max=5000"`
	RequiredSkills             []string `json:"required_skills" validate:"omitempty,skill-list"`
	PreferredSkills            []string `json:"preferred_skills" validate:"omitempty,skill-list"`
	DescriptionLink            string   `json:"description_link" validate:"omitempty,url"`
}

// ==========================
// Responses
// ==========================

type CandidateResponse struct {
	ID                     uint                `json:"id"`
	FullName               string              `json:"full_name"`
	Email                  string              `json:"email"`
	PhoneNumber            string              `json:"phone_number,omitempty"`
	City                   string              `json:"city,omitempty"`
	State                  string              `json:"state,omitempty"`
	Country                string              `json:"country,omitempty"`
	CurrentDesignation     string              `json:"current_designation,omitempty"`
	CurrentCompany         string              `json:"current_company,omitempty"`
	OverallExperienceYears *float64            `json:"overall_experience_years"`
	Summary                string              `json:"summary,omitempty"`
	Skills                 map[string][]string `json:"skills"`
	ResumeLink             string              `json:"resume_link,omitempty"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
}

type JobResponse struct {
	ID                         uint      `json:"id"`
	Title                      string    `json:"title"`
	CompanyName                string    `json:"company_name"`
	MinRequiredExperienceYears *float64  `json:"min_required_experience_years"`
	MaxRequiredExperienceYears *float64  `json:"max_required_experience_years,omitempty"`
	Location                   string    `json:"location,omitempty"`
	EmploymentType             string    `json:"employment_type,omitempty"`
	Summary                    string    `json:"summary,omitempty"`
	RequiredSkills             []string  `json:"required_skills"`
	PreferredSkills            []string  `json:"preferred_skills"`
	DescriptionLink            string    `json:"description_link,omitempty"`
	CreatedAt                  time.Time `json:"created_at"`
	UpdatedAt                  time.Time `json:"updated_at"`
}

// CreateCandidateResponse reports the stored record plus the fan-out task queued for it.
type CreateCandidateResponse struct {
	Candidate *CandidateResponse `json:"candidate"`
	MatchTask *EnqueueResponse   `json:"match_task,omitempty"`
}

type CreateJobResponse struct {
	Job       *JobResponse     `json:"job"`
	MatchTask *EnqueueResponse `json:"match_task,omitempty"`
}

type ListResponse[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
