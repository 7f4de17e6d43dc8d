package model

import "time"

// Option labels of a multiple-choice question, in display order.
var OptionLabels = []string{"A", "B", "C", "D"}

// Question is a multiple-choice question record.
type Question struct {
	ID          string            `json:"id"`
	ExamID      string            `json:"exam_id,omitempty"`
	ExamName    string            `json:"exam_name,omitempty"` // Denormalized at write time
	Category    string            `json:"category"`
	Text        string            `json:"text"`
	Options     map[string]string `json:"options"`
	Answer      string            `json:"answer"`
	Difficulty  string            `json:"difficulty,omitempty"`
	Explanation string            `json:"explanation,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// QuestionForm is the submitted form state for creating or editing a
// question. An empty ID means insert; a non-empty ID means update in place.
type QuestionForm struct {
	ID          string            `json:"id"`
	ExamID      string            `json:"exam_id" binding:"omitempty,uuid"`
	Category    string            `json:"category" binding:"required,min=1,max=100"`
	Text        string            `json:"text" binding:"required,min=1,max=2000"`
	Options     map[string]string `json:"options" binding:"required"`
	Answer      string            `json:"answer" binding:"required,oneof=A B C D"`
	Difficulty  string            `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Explanation string            `json:"explanation" binding:"omitempty,max=2000"`
}
