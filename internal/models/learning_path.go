package models

import "time"

// Task categories within a learning path.
const (
	TaskCategoryPrerequisite = "PREREQUISITE"
	TaskCategoryWeek         = "WEEK"
	TaskCategoryResource     = "RESOURCE"
)

// LearningPath is an AI-generated study plan owned by a student.
type LearningPath struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	StudentID uint       `gorm:"not null;index" json:"student_id"`
	Title     string     `gorm:"size:200;not null" json:"title"`
	Deadline  *time.Time `json:"deadline"`
	Tasks     []PathTask `gorm:"constraint:OnDelete:CASCADE" json:"tasks"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CompletionPercentage derives progress from the attached tasks.
func (p LearningPath) CompletionPercentage() float64 {
	if len(p.Tasks) == 0 {
		return 0
	}
	completed := 0
	for _, task := range p.Tasks {
		if task.IsCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(p.Tasks)) * 100
}

// PathTask is one ordered step of a learning path.
type PathTask struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	LearningPathID uint      `gorm:"not null;index" json:"learning_path_id"`
	Title          string    `gorm:"size:200;not null" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	Category       string    `gorm:"size:20;not null" json:"category"`
	WeekNumber     *int      `json:"week_number"`
	DayRange       string    `gorm:"size:50" json:"day_range"`
	WeekTitle      string    `gorm:"size:255" json:"week_title"`
	IsCompleted    bool      `gorm:"not null;default:false" json:"is_completed"`
	Order          int       `gorm:"not null;default:0" json:"order"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
