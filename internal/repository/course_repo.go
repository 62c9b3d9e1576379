package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dipoade/resulta-api/internal/models"
)

// CourseRepository defines read operations for the course catalog.
type CourseRepository interface {
	CoreCoursesForLevel(ctx context.Context, departmentID uint, level int) ([]models.Course, error)
}

// DepartmentRepository defines read operations for departments.
type DepartmentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Department, error)
	ListAll(ctx context.Context) ([]models.Department, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates the repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) CoreCoursesForLevel(ctx context.Context, departmentID uint, level int) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).
		Preload("BorrowedFrom").
		Where("department_id = ?", departmentID).
		Where("level = ?", level).
		Where("is_core = ?", true).
		Order("code ASC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}

	return courses, nil
}

type departmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository instantiates the repository.
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) GetByID(ctx context.Context, id uint) (models.Department, error) {
	var department models.Department
	if err := r.db.WithContext(ctx).First(&department, id).Error; err != nil {
		return models.Department{}, err
	}

	return department, nil
}

func (r *departmentRepository) ListAll(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&departments).Error
	if err != nil {
		return nil, err
	}

	return departments, nil
}
