package model

import "time"

// Activity is one entry of the admin activity trail, written asynchronously
// by the activity worker after each mutating operation.
type Activity struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"user_email"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardStats is the aggregate view shown on the dashboard landing tab.
type DashboardStats struct {
	TotalQuestions  int        `json:"total_questions"`
	TotalExams      int        `json:"total_exams"`
	TotalUsers      int        `json:"total_users"`
	TodayActivities int        `json:"today_activities"`
	RecentActivity  []Activity `json:"recent_activity"`
}
