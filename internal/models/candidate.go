package models

import (
	"encoding/json"
	"sort"

	"gorm.io/datatypes"
)

// Candidate is a structured profile produced by the resume extraction pipeline.
// Matching only reads it.
type Candidate struct {
	BaseModel
	FullName               string         `gorm:"not null" json:"full_name"`
	Email                  string         `gorm:"uniqueIndex;not null" json:"email"`
	PhoneNumber            string         `json:"phone_number,omitempty"`
	City                   string         `json:"city,omitempty"`
	State                  string         `json:"state,omitempty"`
	Country                string         `json:"country,omitempty"`
	CurrentDesignation     string         `json:"current_designation,omitempty"`
	CurrentCompany         string         `json:"current_company,omitempty"`
	OverallExperienceYears *float64       `json:"overall_experience_years"`
	Summary                string         `json:"summary,omitempty"`
	Skills                 datatypes.JSON `json:"skills" swaggertype:"object"` // {"Languages": ["Go", "SQL"]}
	ResumeLink             string         `json:"resume_link,omitempty"`
}

// SkillMap returns the skills grouped by category.
func (c *Candidate) SkillMap() map[string][]string {
	skills := map[string][]string{}
	if len(c.Skills) > 0 {
		_ = json.Unmarshal(c.Skills, &skills)
	}
	return skills
}

// FlattenedSkills returns every skill across all categories. Categories are
// visited in name order so the output is stable.
func (c *Candidate) FlattenedSkills() []string {
	skillMap := c.SkillMap()

	categories := make([]string, 0, len(skillMap))
	for category := range skillMap {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var flat []string
	for _, category := range categories {
		flat = append(flat, skillMap[category]...)
	}
	return flat
}

// ExperienceYears treats a missing value as zero.
func (c *Candidate) ExperienceYears() float64 {
	if c.OverallExperienceYears == nil {
		return 0
	}
	return *c.OverallExperienceYears
}

// SetSkillMap encodes the category map into the JSON column.
func (c *Candidate) SetSkillMap(skills map[string][]string) error {
	if skills == nil {
		skills = map[string][]string{}
	}
	raw, err := json.Marshal(skills)
	if err != nil {
		return err
	}
	c.Skills = datatypes.JSON(raw)
	return nil
}
