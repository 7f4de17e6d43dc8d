// Package render projects resource records into the display rows shown by
// the admin console. Projections are pure: output order equals input order
// and every call produces a fresh slice that fully replaces the previous
// render.
package render

import (
	"fmt"
	"time"

	"github.com/sanu276140-eng/examsk24/internal/model"
)

// Action identifies a per-row action trigger.
type Action string

const (
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Row is one rendered list entry.
type Row struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Subtitle string            `json:"subtitle,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
	Actions  []Action          `json:"actions"`
}

func crudActions() []Action {
	return []Action{ActionEdit, ActionDelete}
}

// QuestionRows renders a question listing.
func QuestionRows(questions []model.Question) []Row {
	rows := make([]Row, 0, len(questions))
	for _, q := range questions {
		meta := map[string]string{
			"category": q.Category,
			"answer":   q.Answer,
		}
		if q.ExamName != "" {
			meta["exam"] = q.ExamName
		}
		if q.Difficulty != "" {
			meta["difficulty"] = q.Difficulty
		}
		rows = append(rows, Row{
			ID:      q.ID,
			Title:   q.Text,
			Meta:    meta,
			Actions: crudActions(),
		})
	}
	return rows
}

// ExamRows renders an exam listing.
func ExamRows(exams []model.Exam) []Row {
	rows := make([]Row, 0, len(exams))
	for _, e := range exams {
		rows = append(rows, Row{
			ID:       e.ID,
			Title:    e.Name,
			Subtitle: e.Category,
			Meta: map[string]string{
				"duration":  fmt.Sprintf("%d min", e.DurationMinutes),
				"questions": fmt.Sprintf("%d", e.TotalQuestions),
				"passing":   fmt.Sprintf("%d%%", e.PassingPercentage),
				"status":    string(e.Status),
			},
			Actions: crudActions(),
		})
	}
	return rows
}

// UserRows renders a user listing.
func UserRows(users []model.User) []Row {
	rows := make([]Row, 0, len(users))
	for _, u := range users {
		rows = append(rows, Row{
			ID:       u.ID,
			Title:    u.Name,
			Subtitle: u.Email,
			Meta: map[string]string{
				"role":   u.Role,
				"status": u.Status,
			},
			Actions: crudActions(),
		})
	}
	return rows
}

// ActivityRows renders the dashboard activity feed. Activity entries have no
// edit or delete actions.
func ActivityRows(entries []model.Activity, now time.Time) []Row {
	rows := make([]Row, 0, len(entries))
	for _, a := range entries {
		rows = append(rows, Row{
			ID:       a.ID,
			Title:    a.Action,
			Subtitle: a.Detail,
			Meta: map[string]string{
				"user": a.UserEmail,
				"when": RelativeTime(a.CreatedAt, now),
			},
			Actions: []Action{},
		})
	}
	return rows
}

// RelativeTime formats a timestamp the way the activity feed displays it.
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	}
}
