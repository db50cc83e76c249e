package ai

import (
	"context"
	"time"
)

// PlanInput describes the study goal a plan is generated for.
type PlanInput struct {
	Goal            string
	Deadline        *time.Time
	PriorPaths      []string
	AdditionalNotes string
}

// PlanTask is one step of a generated study plan.
type PlanTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	WeekNumber  *int   `json:"week_number,omitempty"`
	DayRange    string `json:"day_range,omitempty"`
	WeekTitle   string `json:"week_title,omitempty"`
}

// Plan is the structured study plan returned by the model.
type Plan struct {
	Title string                 `json:"title"`
	Tasks []PlanTask             `json:"tasks"`
	Raw   map[string]interface{} `json:"raw,omitempty"`
}

// Planner describes an AI model capable of generating study plans.
type Planner interface {
	GeneratePlan(ctx context.Context, input PlanInput) (Plan, error)
}
