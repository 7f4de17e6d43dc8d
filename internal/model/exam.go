package model

import "time"

// ExamStatus enumerates the lifecycle states of an exam.
type ExamStatus string

const (
	ExamStatusDraft    ExamStatus = "DRAFT"
	ExamStatusActive   ExamStatus = "ACTIVE"
	ExamStatusArchived ExamStatus = "ARCHIVED"
)

// Exam is a mock-test definition.
type Exam struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Category          string     `json:"category"`
	DurationMinutes   int        `json:"duration_minutes"`
	TotalQuestions    int        `json:"total_questions"`
	PassingPercentage int        `json:"passing_percentage"`
	Status            ExamStatus `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ExamForm is the submitted form state for creating or editing an exam.
type ExamForm struct {
	ID                string `json:"id"`
	Name              string `json:"name" binding:"required,min=3,max=255"`
	Category          string `json:"category" binding:"required,min=1,max=100"`
	DurationMinutes   int    `json:"duration_minutes" binding:"required,min=1,max=480"`
	TotalQuestions    int    `json:"total_questions" binding:"required,min=1,max=500"`
	PassingPercentage int    `json:"passing_percentage" binding:"required,min=1,max=100"`
	Status            string `json:"status" binding:"omitempty,oneof=DRAFT ACTIVE ARCHIVED"`
}
