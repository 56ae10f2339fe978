package models

import (
	"gorm.io/datatypes"
)

// Match is the persisted score of one (candidate, job) pair. There is at most one
// row per pair; rescoring overwrites it in place.
type Match struct {
	BaseModel
	CandidateID uint `gorm:"not null;uniqueIndex:uq_matches_candidate_job,priority:1;index" json:"candidate_id"`
	JobID       uint `gorm:"not null;uniqueIndex:uq_matches_candidate_job,priority:2;index" json:"job_id"`

	CandidateName string `json:"candidate_name"`
	JobTitle      string `json:"job_title"`

	RequiredSkillsScore  float64 `json:"required_skills_score"`  // max 50
	PreferredSkillsScore float64 `json:"preferred_skills_score"` // max 20
	ExperienceScore      float64 `json:"experience_score"`       // max 30
	FinalMatchPercentage float64 `gorm:"index" json:"final_match_percentage"`

	MatchedRequiredSkills  datatypes.JSON `json:"matched_required_skills" swaggertype:"array,string"`
	MissingRequiredSkills  datatypes.JSON `json:"missing_required_skills" swaggertype:"array,string"`
	MatchedPreferredSkills datatypes.JSON `json:"matched_preferred_skills" swaggertype:"array,string"`

	// Rows disappear with either parent
	Candidate *Candidate `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Job       *Job       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (m *Match) GetMatchedRequiredSkills() []string {
	return decodeStringList(m.MatchedRequiredSkills)
}

func (m *Match) GetMissingRequiredSkills() []string {
	return decodeStringList(m.MissingRequiredSkills)
}

func (m *Match) GetMatchedPreferredSkills() []string {
	return decodeStringList(m.MatchedPreferredSkills)
}
