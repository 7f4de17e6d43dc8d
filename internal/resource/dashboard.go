package resource

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sanu276140-eng/examsk24/internal/model"
	"github.com/sanu276140-eng/examsk24/internal/store"
)

// RecentActivityLimit bounds the dashboard activity feed.
const RecentActivityLimit = 10

// DashboardManager aggregates the landing-tab statistics.
type DashboardManager struct {
	st  store.Store
	log zerolog.Logger
}

// NewDashboardManager creates a DashboardManager.
func NewDashboardManager(st store.Store, log zerolog.Logger) *DashboardManager {
	return &DashboardManager{
		st:  st,
		log: log.With().Str("component", "dashboard").Logger(),
	}
}

// Stats returns collection counts, today's activity volume and the most
// recent activity entries, newest first.
func (m *DashboardManager) Stats(ctx context.Context) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{}

	var err error
	if stats.TotalQuestions, err = m.st.Collection(QuestionsCollection).Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalExams, err = m.st.Collection(ExamsCollection).Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalUsers, err = m.st.Collection(UsersCollection).Count(ctx); err != nil {
		return nil, err
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if stats.TodayActivities, err = m.st.Collection(ActivityCollection).
		Where(store.FieldCreatedAt, store.OpGte, midnight).
		Count(ctx); err != nil {
		return nil, err
	}

	docs, err := m.st.Collection(ActivityCollection).
		OrderBy(store.FieldCreatedAt, store.Desc).
		Limit(RecentActivityLimit).
		Get(ctx)
	if err != nil {
		return nil, err
	}

	stats.RecentActivity = make([]model.Activity, 0, len(docs))
	for _, d := range docs {
		stats.RecentActivity = append(stats.RecentActivity, model.Activity{
			ID:        d.ID,
			UserEmail: store.Str(d.Fields, "user_email"),
			Action:    store.Str(d.Fields, "action"),
			Detail:    store.Str(d.Fields, "detail"),
			CreatedAt: d.CreatedAt,
		})
	}

	return stats, nil
}
