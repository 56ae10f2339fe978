package repositories

import (
	"errors"

	"interview_backend/internal/models"

	"gorm.io/gorm"
)

var ErrJobNotFound = errors.New("job not found")

type JobRepository interface {
	Create(db *gorm.DB, job *models.Job) error
	FindByID(db *gorm.DB, id uint) (*models.Job, error)
	FindByTitle(db *gorm.DB, title string) (*models.Job, error)
	FindAll(db *gorm.DB) ([]models.Job, error)
	List(db *gorm.DB, limit, offset int) ([]models.Job, int64, error)
	Count(db *gorm.DB) (int64, error)
	Delete(db *gorm.DB, id uint) error
}

type JobRepositoryImpl struct{}

func NewJobRepository() JobRepository {
	return &JobRepositoryImpl{}
}

func (r *JobRepositoryImpl) Create(db *gorm.DB, job *models.Job) error {
	return db.Create(job).Error
}

func (r *JobRepositoryImpl) FindByID(db *gorm.DB, id uint) (*models.Job, error) {
	var job models.Job
	err := db.First(&job, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// FindByTitle returns the oldest job with this exact title. Titles are not
// unique, so the lowest id wins.
func (r *JobRepositoryImpl) FindByTitle(db *gorm.DB, title string) (*models.Job, error) {
	var job models.Job
	err := db.Where("title = ?", title).Order("id ASC").First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *JobRepositoryImpl) FindAll(db *gorm.DB) ([]models.Job, error) {
	var jobs []models.Job
	err := db.Order("id ASC").Find(&jobs).Error
	return jobs, err
}

func (r *JobRepositoryImpl) List(db *gorm.DB, limit, offset int) ([]models.Job, int64, error) {
	var jobs []models.Job
	var total int64

	if err := db.Model(&models.Job{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("id ASC").Limit(limit).Offset(offset).Find(&jobs).Error
	return jobs, total, err
}

func (r *JobRepositoryImpl) Count(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.Job{}).Count(&count).Error
	return count, err
}

func (r *JobRepositoryImpl) Delete(db *gorm.DB, id uint) error {
	result := db.Delete(&models.Job{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}
