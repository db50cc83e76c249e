package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aula-labs/aula-go-api/internal/dto"
	"github.com/aula-labs/aula-go-api/internal/models"
	"github.com/aula-labs/aula-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func ptrInt(v int) *int {
	return &v
}

// fakeAssessmentRepo serves a fixed set of assessments from memory.
type fakeAssessmentRepo struct {
	assessments map[uint]models.Assessment
	updated     []models.Assessment
}

func newFakeAssessmentRepo(assessments ...models.Assessment) *fakeAssessmentRepo {
	repo := &fakeAssessmentRepo{assessments: make(map[uint]models.Assessment)}
	for _, assessment := range assessments {
		repo.assessments[assessment.ID] = assessment
	}
	return repo
}

func (f *fakeAssessmentRepo) Create(ctx context.Context, assessment *models.Assessment) error {
	assessment.ID = uint(len(f.assessments) + 1)
	assessment.CreatedAt = time.Now()
	f.assessments[assessment.ID] = *assessment
	return nil
}

func (f *fakeAssessmentRepo) GetByID(ctx context.Context, id uint) (models.Assessment, error) {
	assessment, ok := f.assessments[id]
	if !ok {
		return models.Assessment{}, gorm.ErrRecordNotFound
	}
	return assessment, nil
}

func (f *fakeAssessmentRepo) GetByClassroom(ctx context.Context, id, classroomID uint) (models.Assessment, error) {
	assessment, ok := f.assessments[id]
	if !ok || assessment.ClassroomID != classroomID {
		return models.Assessment{}, gorm.ErrRecordNotFound
	}
	return assessment, nil
}

func (f *fakeAssessmentRepo) ListByClassroom(ctx context.Context, classroomID uint) ([]models.Assessment, error) {
	var result []models.Assessment
	for _, assessment := range f.assessments {
		if assessment.ClassroomID == classroomID {
			result = append(result, assessment)
		}
	}
	return result, nil
}

func (f *fakeAssessmentRepo) Update(ctx context.Context, assessment *models.Assessment) error {
	f.assessments[assessment.ID] = *assessment
	f.updated = append(f.updated, *assessment)
	return nil
}

func (f *fakeAssessmentRepo) Delete(ctx context.Context, id uint) error {
	delete(f.assessments, id)
	return nil
}

// fakeSubmissionRepo keeps submissions in memory and applies locked updates
// synchronously.
type fakeSubmissionRepo struct {
	submissions map[uint]models.Submission
	nextID      uint
	createErr   error
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{submissions: make(map[uint]models.Submission), nextID: 1}
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.submissions {
		if existing.StudentID == submission.StudentID && existing.AssessmentID == submission.AssessmentID {
			return gorm.ErrDuplicatedKey
		}
	}
	submission.ID = f.nextID
	f.nextID++
	submission.CreatedAt = time.Now()
	f.submissions[submission.ID] = *submission
	return nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	submission, ok := f.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (f *fakeSubmissionRepo) GetByStudentAndAssessment(ctx context.Context, studentID, assessmentID uint) (models.Submission, error) {
	for _, submission := range f.submissions {
		if submission.StudentID == studentID && submission.AssessmentID == assessmentID {
			return submission, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Submission, error) {
	var result []models.Submission
	for _, submission := range f.submissions {
		if submission.AssessmentID == assessmentID {
			result = append(result, submission)
		}
	}
	return result, nil
}

func (f *fakeSubmissionRepo) ListScoresByAssessment(ctx context.Context, assessmentID uint) ([]float64, error) {
	var scores []float64
	for _, submission := range f.submissions {
		if submission.AssessmentID == assessmentID {
			scores = append(scores, submission.Score)
		}
	}
	return scores, nil
}

func (f *fakeSubmissionRepo) UpdateLocked(ctx context.Context, id uint, mutate func(*models.Submission) error) (models.Submission, error) {
	submission, ok := f.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	if err := mutate(&submission); err != nil {
		return models.Submission{}, err
	}
	f.submissions[id] = submission
	return submission, nil
}

// fakeStudentRepo serves fixed student records.
type fakeStudentRepo struct {
	students map[uint]models.Student
}

func newFakeStudentRepo(students ...models.Student) *fakeStudentRepo {
	repo := &fakeStudentRepo{students: make(map[uint]models.Student)}
	for _, student := range students {
		repo.students[student.ID] = student
	}
	return repo
}

func (f *fakeStudentRepo) GetByID(ctx context.Context, id uint) (models.Student, error) {
	student, ok := f.students[id]
	if !ok {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (f *fakeStudentRepo) GetByUserID(ctx context.Context, userID string) (models.Student, error) {
	for _, student := range f.students {
		if student.UserID == userID {
			return student, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (f *fakeStudentRepo) GetByIDs(ctx context.Context, ids []uint) ([]models.Student, error) {
	var result []models.Student
	for _, id := range ids {
		if student, ok := f.students[id]; ok {
			result = append(result, student)
		}
	}
	return result, nil
}

// fakeClassroomRepo embeds the interface and overrides only what the tests
// exercise; unimplemented methods panic.
type fakeClassroomRepo struct {
	repository.ClassroomRepository
	classrooms map[uint]models.Classroom
	roster     []models.Student
}

func newFakeClassroomRepo(classrooms ...models.Classroom) *fakeClassroomRepo {
	repo := &fakeClassroomRepo{classrooms: make(map[uint]models.Classroom)}
	for _, classroom := range classrooms {
		repo.classrooms[classroom.ID] = classroom
	}
	return repo
}

func (f *fakeClassroomRepo) GetByID(ctx context.Context, id uint) (models.Classroom, error) {
	classroom, ok := f.classrooms[id]
	if !ok {
		return models.Classroom{}, gorm.ErrRecordNotFound
	}
	return classroom, nil
}

func (f *fakeClassroomRepo) ListStudents(ctx context.Context, classroomID uint) ([]models.Student, error) {
	return f.roster, nil
}

// fakeNotifier records published notifications without any transport.
type fakeNotifier struct {
	NotificationService
	published []dto.NotificationCreateRequest
}

func (f *fakeNotifier) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	f.published = append(f.published, payload)
	return dto.NotificationResponse{UserID: payload.UserID, Type: payload.Type, Message: payload.Message}, nil
}

func (f *fakeNotifier) PublishBatch(ctx context.Context, payloads []dto.NotificationCreateRequest) error {
	f.published = append(f.published, payloads...)
	return nil
}
