package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Job is a structured profile produced by the job description extraction pipeline.
type Job struct {
	BaseModel
	Title                      string         `gorm:"not null;index" json:"title"`
	CompanyName                string         `json:"company_name"`
	MinRequiredExperienceYears *float64       `json:"min_required_experience_years"`
	MaxRequiredExperienceYears *float64       `json:"max_required_experience_years,omitempty"`
	Location                   string         `json:"location,omitempty"`
	EmploymentType             string         `json:"employment_type,omitempty"`
	Summary                    string         `json:"summary,omitempty"`
	RequiredSkills             datatypes.JSON `json:"required_skills" swaggertype:"array,string"`
	PreferredSkills            datatypes.JSON `json:"preferred_skills" swaggertype:"array,string"`
	DescriptionLink            string         `json:"description_link,omitempty"`
}

func (j *Job) GetRequiredSkills() []string {
	return decodeStringList(j.RequiredSkills)
}

func (j *Job) GetPreferredSkills() []string {
	return decodeStringList(j.PreferredSkills)
}

// MinExperienceYears treats a missing floor as zero, meaning "no floor".
func (j *Job) MinExperienceYears() float64 {
	if j.MinRequiredExperienceYears == nil {
		return 0
	}
	return *j.MinRequiredExperienceYears
}

func (j *Job) SetSkills(required, preferred []string) error {
	if required == nil {
		required = []string{}
	}
	if preferred == nil {
		preferred = []string{}
	}
	req, err := json.Marshal(required)
	if err != nil {
		return err
	}
	pref, err := json.Marshal(preferred)
	if err != nil {
		return err
	}
	j.RequiredSkills = datatypes.JSON(req)
	j.PreferredSkills = datatypes.JSON(pref)
	return nil
}
