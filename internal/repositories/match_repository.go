package repositories

import (
	"encoding/json"
	"errors"
	"time"

	"interview_backend/internal/algorithms"
	"interview_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrMatchNotFound = errors.New("match not found")

// MatchRepository never begins, commits or rolls back: callers pass a
// transaction and own its outcome.
type MatchRepository interface {
	Upsert(db *gorm.DB, candidate *models.Candidate, job *models.Job, result algorithms.Breakdown) error
	FindByPair(db *gorm.DB, candidateID, jobID uint) (*models.Match, error)
	CountByPair(db *gorm.DB, candidateID, jobID uint) (int64, error)
	ListByJob(db *gorm.DB, jobID uint) ([]models.Match, error)
	ListByCandidate(db *gorm.DB, candidateID uint) ([]models.Match, error)
	Count(db *gorm.DB) (int64, error)
}

type MatchRepositoryImpl struct{}

func NewMatchRepository() MatchRepository {
	return &MatchRepositoryImpl{}
}

// upsertColumns are overwritten when the (candidate_id, job_id) row exists.
// id and created_at are never touched.
var upsertColumns = []string{
	"candidate_name",
	"job_title",
	"required_skills_score",
	"preferred_skills_score",
	"experience_score",
	"final_match_percentage",
	"matched_required_skills",
	"missing_required_skills",
	"matched_preferred_skills",
	"updated_at",
}

// Upsert writes the score of one pair in a single INSERT ... ON CONFLICT
// statement keyed by the uq_matches_candidate_job index.
func (r *MatchRepositoryImpl) Upsert(db *gorm.DB, candidate *models.Candidate, job *models.Job, result algorithms.Breakdown) error {
	row := &models.Match{
		CandidateID:            candidate.ID,
		JobID:                  job.ID,
		CandidateName:          candidateName(candidate),
		JobTitle:               job.Title,
		RequiredSkillsScore:    result.RequiredSkillsScore,
		PreferredSkillsScore:   result.PreferredSkillsScore,
		ExperienceScore:        result.ExperienceScore,
		FinalMatchPercentage:   result.Final,
		MatchedRequiredSkills:  encodeSkills(result.MatchedRequired),
		MissingRequiredSkills:  encodeSkills(result.MissingRequired),
		MatchedPreferredSkills: encodeSkills(result.MatchedPreferred),
	}
	row.UpdatedAt = time.Now()

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "candidate_id"}, {Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(row).Error
}

func (r *MatchRepositoryImpl) FindByPair(db *gorm.DB, candidateID, jobID uint) (*models.Match, error) {
	var match models.Match
	err := db.Where("candidate_id = ? AND job_id = ?", candidateID, jobID).First(&match).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &match, nil
}

func (r *MatchRepositoryImpl) CountByPair(db *gorm.DB, candidateID, jobID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Match{}).
		Where("candidate_id = ? AND job_id = ?", candidateID, jobID).
		Count(&count).Error
	return count, err
}

// ListByJob returns the stored matches of a job, best first; equal scores are
// ordered by candidate id.
func (r *MatchRepositoryImpl) ListByJob(db *gorm.DB, jobID uint) ([]models.Match, error) {
	var matches []models.Match
	err := db.Where("job_id = ?", jobID).
		Order("final_match_percentage DESC, candidate_id ASC").
		Find(&matches).Error
	return matches, err
}

func (r *MatchRepositoryImpl) ListByCandidate(db *gorm.DB, candidateID uint) ([]models.Match, error) {
	var matches []models.Match
	err := db.Where("candidate_id = ?", candidateID).
		Order("final_match_percentage DESC, job_id ASC").
		Find(&matches).Error
	return matches, err
}

func (r *MatchRepositoryImpl) Count(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.Match{}).Count(&count).Error
	return count, err
}

func candidateName(c *models.Candidate) string {
	if c.FullName == "" {
		return "Unknown"
	}
	return c.FullName
}

func encodeSkills(skills []string) datatypes.JSON {
	if skills == nil {
		skills = []string{}
	}
	raw, _ := json.Marshal(skills)
	return datatypes.JSON(raw)
}
