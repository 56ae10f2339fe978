package repositories

import (
	"errors"

	"interview_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrCandidateNotFound      = errors.New("candidate not found")
	ErrCandidateAlreadyExists = errors.New("candidate already exists")
)

type CandidateRepository interface {
	Create(db *gorm.DB, candidate *models.Candidate) error
	FindByID(db *gorm.DB, id uint) (*models.Candidate, error)
	FindByEmail(db *gorm.DB, email string) (*models.Candidate, error)
	FindByIDs(db *gorm.DB, ids []uint) ([]models.Candidate, error)
	FindAll(db *gorm.DB) ([]models.Candidate, error)
	List(db *gorm.DB, limit, offset int) ([]models.Candidate, int64, error)
	Count(db *gorm.DB) (int64, error)
	Delete(db *gorm.DB, id uint) error
}

type CandidateRepositoryImpl struct{}

func NewCandidateRepository() CandidateRepository {
	return &CandidateRepositoryImpl{}
}

// Create inserts a candidate; the email is the ingestion natural key.
func (r *CandidateRepositoryImpl) Create(db *gorm.DB, candidate *models.Candidate) error {
	var count int64
	if err := db.Model(&models.Candidate{}).Where("email = ?", candidate.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrCandidateAlreadyExists
	}

	if err := db.Create(candidate).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCandidateAlreadyExists
		}
		return err
	}
	return nil
}

func (r *CandidateRepositoryImpl) FindByID(db *gorm.DB, id uint) (*models.Candidate, error) {
	var candidate models.Candidate
	err := db.First(&candidate, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}
	return &candidate, nil
}

func (r *CandidateRepositoryImpl) FindByEmail(db *gorm.DB, email string) (*models.Candidate, error) {
	var candidate models.Candidate
	err := db.Where("email = ?", email).First(&candidate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}
	return &candidate, nil
}

// FindByIDs returns the existing candidates among ids, ordered by id. Missing ids
// are simply absent from the result.
func (r *CandidateRepositoryImpl) FindByIDs(db *gorm.DB, ids []uint) ([]models.Candidate, error) {
	var candidates []models.Candidate
	if len(ids) == 0 {
		return candidates, nil
	}
	err := db.Where("id IN ?", ids).Order("id ASC").Find(&candidates).Error
	return candidates, err
}

func (r *CandidateRepositoryImpl) FindAll(db *gorm.DB) ([]models.Candidate, error) {
	var candidates []models.Candidate
	err := db.Order("id ASC").Find(&candidates).Error
	return candidates, err
}

func (r *CandidateRepositoryImpl) List(db *gorm.DB, limit, offset int) ([]models.Candidate, int64, error) {
	var candidates []models.Candidate
	var total int64

	if err := db.Model(&models.Candidate{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("id ASC").Limit(limit).Offset(offset).Find(&candidates).Error
	return candidates, total, err
}

func (r *CandidateRepositoryImpl) Count(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.Candidate{}).Count(&count).Error
	return count, err
}

// Delete removes the candidate; its match rows go with it via the cascade.
func (r *CandidateRepositoryImpl) Delete(db *gorm.DB, id uint) error {
	result := db.Delete(&models.Candidate{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCandidateNotFound
	}
	return nil
}
