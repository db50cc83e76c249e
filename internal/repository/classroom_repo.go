package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/aula-labs/aula-go-api/internal/models"
)

// ClassroomRepository defines persistence operations for classrooms, batches
// and departments.
type ClassroomRepository interface {
	Create(ctx context.Context, classroom *models.Classroom) error
	GetByID(ctx context.Context, id uint) (models.Classroom, error)
	List(ctx context.Context) ([]models.Classroom, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]models.Classroom, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Classroom, error)
	Search(ctx context.Context, query string) ([]models.Classroom, error)
	Update(ctx context.Context, classroom *models.Classroom) error
	Delete(ctx context.Context, id uint) error
	AddBatch(ctx context.Context, classroomID, batchID uint) error
	AddStudentToBatches(ctx context.Context, classroomID, studentID uint) error
	RemoveStudentFromBatches(ctx context.Context, classroomID, studentID uint) error
	ListStudents(ctx context.Context, classroomID uint) ([]models.Student, error)
	CreateDepartment(ctx context.Context, department *models.Department) error
	CreateBatch(ctx context.Context, batch *models.Batch) error
	GetBatch(ctx context.Context, id uint) (models.Batch, error)
}

type classroomRepository struct {
	db *gorm.DB
}

// NewClassroomRepository constructs a GORM-backed classroom repository.
func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

func (r *classroomRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Classroom{}).
		Preload("Teacher").
		Preload("Batches").
		Preload("Batches.Department")
}

func (r *classroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	return r.db.WithContext(ctx).Create(classroom).Error
}

func (r *classroomRepository) GetByID(ctx context.Context, id uint) (models.Classroom, error) {
	var classroom models.Classroom
	if err := r.baseQuery(ctx).First(&classroom, id).Error; err != nil {
		return models.Classroom{}, err
	}

	return classroom, nil
}

func (r *classroomRepository) List(ctx context.Context) ([]models.Classroom, error) {
	var classrooms []models.Classroom
	if err := r.baseQuery(ctx).Order("created_at DESC").Find(&classrooms).Error; err != nil {
		return nil, err
	}

	return classrooms, nil
}

func (r *classroomRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Classroom, error) {
	var classrooms []models.Classroom
	if err := r.baseQuery(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&classrooms).Error; err != nil {
		return nil, err
	}

	return classrooms, nil
}

func (r *classroomRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Classroom, error) {
	var classrooms []models.Classroom
	if err := r.baseQuery(ctx).
		Distinct("classrooms.*").
		Joins("JOIN classroom_batches cb ON cb.classroom_id = classrooms.id").
		Joins("JOIN batch_students bs ON bs.batch_id = cb.batch_id").
		Where("bs.student_id = ?", studentID).
		Find(&classrooms).Error; err != nil {
		return nil, err
	}

	return classrooms, nil
}

func (r *classroomRepository) Search(ctx context.Context, query string) ([]models.Classroom, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	var classrooms []models.Classroom
	if err := r.baseQuery(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(course_no) LIKE ?", pattern, pattern).
		Find(&classrooms).Error; err != nil {
		return nil, err
	}

	return classrooms, nil
}

func (r *classroomRepository) Update(ctx context.Context, classroom *models.Classroom) error {
	return r.db.WithContext(ctx).Save(classroom).Error
}

// Delete removes the classroom and cascades to its assessments; question and
// submission rows fall with their assessment through the FK constraints.
func (r *classroomRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("classroom_id = ?", id).Delete(&models.Assessment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Classroom{}, id).Error
	})
}

func (r *classroomRepository) AddBatch(ctx context.Context, classroomID, batchID uint) error {
	classroom := models.Classroom{ID: classroomID}
	batch := models.Batch{ID: batchID}
	return r.db.WithContext(ctx).Model(&classroom).Association("Batches").Append(&batch)
}

func (r *classroomRepository) AddStudentToBatches(ctx context.Context, classroomID, studentID uint) error {
	classroom, err := r.GetByID(ctx, classroomID)
	if err != nil {
		return err
	}

	student := models.Student{ID: studentID}
	for i := range classroom.Batches {
		if err := r.db.WithContext(ctx).Model(&classroom.Batches[i]).Association("Students").Append(&student); err != nil {
			return err
		}
	}

	return nil
}

func (r *classroomRepository) RemoveStudentFromBatches(ctx context.Context, classroomID, studentID uint) error {
	classroom, err := r.GetByID(ctx, classroomID)
	if err != nil {
		return err
	}

	student := models.Student{ID: studentID}
	for i := range classroom.Batches {
		if err := r.db.WithContext(ctx).Model(&classroom.Batches[i]).Association("Students").Delete(&student); err != nil {
			return err
		}
	}

	return nil
}

func (r *classroomRepository) ListStudents(ctx context.Context, classroomID uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).Model(&models.Student{}).
		Distinct("students.*").
		Joins("JOIN batch_students bs ON bs.student_id = students.id").
		Joins("JOIN classroom_batches cb ON cb.batch_id = bs.batch_id").
		Where("cb.classroom_id = ?", classroomID).
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *classroomRepository) CreateDepartment(ctx context.Context, department *models.Department) error {
	return r.db.WithContext(ctx).Create(department).Error
}

func (r *classroomRepository) CreateBatch(ctx context.Context, batch *models.Batch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *classroomRepository) GetBatch(ctx context.Context, id uint) (models.Batch, error) {
	var batch models.Batch
	if err := r.db.WithContext(ctx).Preload("Department").Preload("Students").First(&batch, id).Error; err != nil {
		return models.Batch{}, err
	}

	return batch, nil
}
