package models

import "time"

// Department groups batches by faculty or subject area.
type Department struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Batch is a cohort of students within a department. The (section, year,
// department) triple is unique.
type Batch struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Section      string     `gorm:"size:10;not null;uniqueIndex:idx_batch_section_year_department" json:"section"`
	Year         int        `gorm:"not null;uniqueIndex:idx_batch_section_year_department" json:"year"`
	DepartmentID uint       `gorm:"not null;uniqueIndex:idx_batch_section_year_department" json:"department_id"`
	Department   Department `json:"department"`
	Students     []Student  `gorm:"many2many:batch_students" json:"students"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Classroom is owned by a teacher and enrolls students through batches.
// Deleting a classroom cascades to its assessments and their submissions.
type Classroom struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	CourseNo    string    `gorm:"size:50" json:"course_no"`
	Description string    `gorm:"type:text" json:"description"`
	TeacherID   uint      `gorm:"not null;index" json:"teacher_id"`
	Teacher     Teacher   `json:"teacher"`
	Batches     []Batch   `gorm:"many2many:classroom_batches" json:"batches"`
	IsArchived  bool      `gorm:"not null;default:false" json:"is_archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Announcement is a classroom-wide or batch-scoped notice.
type Announcement struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Content     string       `gorm:"type:text;not null" json:"content"`
	ClassroomID uint         `gorm:"not null;index" json:"classroom_id"`
	BatchID     *uint        `json:"batch_id"`
	Attachments []Attachment `gorm:"constraint:OnDelete:CASCADE" json:"attachments"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Attachment references an externally stored file linked to an announcement.
// Upload and storage happen outside this service; only the URL is recorded.
type Attachment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AnnouncementID uint      `gorm:"not null;index" json:"announcement_id"`
	FileURL        string    `gorm:"size:512;not null" json:"file_url"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
