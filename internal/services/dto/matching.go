package dto

import (
	"encoding/json"
	"fmt"

	"interview_backend/internal/algorithms"
)

// ==========================
// Scores
// ==========================

type MatchScores struct {
	RequiredSkillsScore  float64 `json:"required_skills_score"`  // out of 50
	PreferredSkillsScore float64 `json:"preferred_skills_score"` // out of 20
	ExperienceScore      float64 `json:"experience_score"`       // out of 30
	FinalMatchPercentage float64 `json:"final_match_percentage"` // out of 100
}

type ScoreWeights struct {
	RequiredSkills  string `json:"required_skills"`
	PreferredSkills string `json:"preferred_skills"`
	WorkExperience  string `json:"work_experience"`
}

var DefaultScoreWeights = ScoreWeights{
	RequiredSkills:  fmt.Sprintf("%g%%", algorithms.WeightRequiredSkills),
	PreferredSkills: fmt.Sprintf("%g%%", algorithms.WeightPreferredSkills),
	WorkExperience:  fmt.Sprintf("%g%%", algorithms.WeightExperience),
}

// MatchResult is one scored (candidate, job) pair as returned to callers.
type MatchResult struct {
	CandidateID              uint         `json:"candidate_id,omitempty"`
	JobID                    uint         `json:"job_id,omitempty"`
	CandidateName            string       `json:"candidate_name"`
	JobTitle                 string       `json:"job_title"`
	CandidateExperienceYears float64      `json:"candidate_experience_years"`
	MinRequiredExperience    float64      `json:"min_required_experience"`
	MatchedRequiredSkills    []string     `json:"matched_required_skills"`
	MissingRequiredSkills    []string     `json:"missing_required_skills"`
	MatchedPreferredSkills   []string     `json:"matched_preferred_skills"`
	MatchScores              MatchScores  `json:"match_scores"`
	ScoreWeights             ScoreWeights `json:"score_weights"`
}

func NewMatchResult(candidate algorithms.CandidateProfile, job algorithms.JobProfile, b algorithms.Breakdown) *MatchResult {
	name := candidate.Name
	if name == "" {
		name = "Unknown"
	}
	return &MatchResult{
		CandidateName:            name,
		JobTitle:                 job.Title,
		CandidateExperienceYears: candidate.ExperienceYears,
		MinRequiredExperience:    job.MinExperienceYears,
		MatchedRequiredSkills:    b.MatchedRequired,
		MissingRequiredSkills:    b.MissingRequired,
		MatchedPreferredSkills:   b.MatchedPreferred,
		MatchScores: MatchScores{
			RequiredSkillsScore:  b.RequiredSkillsScore,
			PreferredSkillsScore: b.PreferredSkillsScore,
			ExperienceScore:      b.ExperienceScore,
			FinalMatchPercentage: b.Final,
		},
		ScoreWeights: DefaultScoreWeights,
	}
}

// ==========================
// Batch (explicit candidate list)
// ==========================

// MatchOutcome is either a scored result or a per-candidate error. It encodes
// as the bare MatchResult or as {"candidate_id": 2, "error": "not found"}.
type MatchOutcome struct {
	CandidateID uint
	Result      *MatchResult
	Error       string
}

func (o MatchOutcome) Failed() bool {
	return o.Error != ""
}

func (o MatchOutcome) MarshalJSON() ([]byte, error) {
	if o.Failed() {
		return json.Marshal(struct {
			CandidateID uint   `json:"candidate_id"`
			Error       string `json:"error"`
		}{o.CandidateID, o.Error})
	}
	return json.Marshal(o.Result)
}

type MatchCandidatesToJobRequest struct {
	CandidateIDs []uint `json:"candidate_ids" validate:"required,min=1,max=500,dive,gt=0"`
	JobID        uint   `json:"job_id" validate:"required,gt=0"`
}

type BatchMatchResponse struct {
	JobID        uint           `json:"job_id"`
	TotalMatched int            `json:"total_matched"`
	Results      []MatchOutcome `json:"results"`
}

// FanOutResponse wraps a synchronous job or candidate fan-out.
type FanOutResponse struct {
	EntityType string         `json:"entity_type"` // job, candidate
	EntityID   uint           `json:"entity_id"`
	Total      int            `json:"total"`
	Results    []*MatchResult `json:"results"`
}

type EnqueueResponse struct {
	TaskID   string `json:"task_id"`
	Kind     string `json:"kind"`
	EntityID uint   `json:"entity_id,omitempty"`
	Status   string `json:"status"`
}

// ==========================
// Ranking
// ==========================

type RankedCandidate struct {
	Rank                   int         `json:"rank"`
	CandidateID            uint        `json:"candidate_id"`
	CandidateName          string      `json:"candidate_name"`
	ExperienceYears        float64     `json:"experience_years"`
	MatchScores            MatchScores `json:"match_scores"`
	MatchedRequiredSkills  []string    `json:"matched_required_skills"`
	MissingRequiredSkills  []string    `json:"missing_required_skills"`
	MatchedPreferredSkills []string    `json:"matched_preferred_skills"`
}

type RankedMatchesResponse struct {
	JobID           uint              `json:"job_id"`
	JobTitle        string            `json:"job_title"`
	CompanyName     string            `json:"company_name"`
	TotalCandidates int               `json:"total_candidates"`
	Candidates      []RankedCandidate `json:"candidates"`
}

// ==========================
// Stored matches
// ==========================

type StoredMatch struct {
	ID                     uint        `json:"id"`
	CandidateID            uint        `json:"candidate_id"`
	JobID                  uint        `json:"job_id"`
	CandidateName          string      `json:"candidate_name"`
	JobTitle               string      `json:"job_title"`
	MatchScores            MatchScores `json:"match_scores"`
	MatchedRequiredSkills  []string    `json:"matched_required_skills"`
	MissingRequiredSkills  []string    `json:"missing_required_skills"`
	MatchedPreferredSkills []string    `json:"matched_preferred_skills"`
	UpdatedAt              string      `json:"updated_at"`
}

type StoredMatchesResponse struct {
	Total   int           `json:"total"`
	Matches []StoredMatch `json:"matches"`
}

// ==========================
// Natural keys / ephemeral scoring
// ==========================

// InlineCandidate is a candidate profile carried in the request body.
type InlineCandidate struct {
	FullName               string              `json:"full_name"`
	Email                  string              `json:"email" validate:"omitempty,email"`
	OverallExperienceYears *float64            `json:"overall_experience_years"`
	Skills                 map[string][]string `json:"skills" validate:"omitempty,dive,skill-list"`
}

type InlineJob struct {
	Title                      string   `json:"title"`
	CompanyName                string   `json:"company_name"`
	MinRequiredExperienceYears *float64 `json:"min_required_experience_years"`
	RequiredSkills             []string `json:"required_skills" validate:"omitempty,skill-list"`
	PreferredSkills            []string `json:"preferred_skills" validate:"omitempty,skill-list"`
}

type MatchRequest struct {
	Candidate InlineCandidate `json:"candidate" validate:"required"`
	Job       InlineJob       `json:"job" validate:"required"`
}

type MatchResponse struct {
	Persisted bool   `json:"persisted"`
	Note      string `json:"note,omitempty"`
	*MatchResult
}
