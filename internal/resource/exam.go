package resource

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sanu276140-eng/examsk24/internal/events"
	"github.com/sanu276140-eng/examsk24/internal/model"
	"github.com/sanu276140-eng/examsk24/internal/store"
)

// ExamManager handles exam CRUD and list synchronization.
type ExamManager struct {
	base
}

// NewExamManager creates an ExamManager.
func NewExamManager(st store.Store, rec events.Recorder, log zerolog.Logger) *ExamManager {
	return &ExamManager{base{
		st:  st,
		rec: rec,
		log: log.With().Str("component", "exams").Logger(),
	}}
}

// ExamListOptions filter and bound an exam listing.
type ExamListOptions struct {
	Category string
	Status   string
	Limit    int
}

// List returns a finite snapshot of exams, newest first.
func (m *ExamManager) List(ctx context.Context, opts ExamListOptions) ([]model.Exam, error) {
	q := store.Query(m.st.Collection(ExamsCollection))
	if opts.Category != "" {
		q = q.Where("category", store.OpEq, opts.Category)
	}
	if opts.Status != "" {
		q = q.Where("status", store.OpEq, opts.Status)
	}
	q = q.OrderBy(store.FieldCreatedAt, store.Desc)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	docs, err := q.Get(ctx)
	if err != nil {
		return nil, err
	}

	exams := make([]model.Exam, 0, len(docs))
	for _, d := range docs {
		exams = append(exams, docToExam(d))
	}
	return exams, nil
}

// Get returns one exam or store.ErrNotFound.
func (m *ExamManager) Get(ctx context.Context, id string) (*model.Exam, error) {
	doc, err := m.st.Collection(ExamsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, err
	}
	e := docToExam(doc)
	return &e, nil
}

// Save persists the form state: update in place when it carries an id,
// insert otherwise. New exams default to DRAFT.
func (m *ExamManager) Save(ctx context.Context, form model.ExamForm) (string, error) {
	status := form.Status
	if status == "" {
		status = string(model.ExamStatusDraft)
	}

	fields := map[string]any{
		"name":               form.Name,
		"category":           form.Category,
		"duration_minutes":   form.DurationMinutes,
		"total_questions":    form.TotalQuestions,
		"passing_percentage": form.PassingPercentage,
		"status":             status,
	}

	id := form.ID
	if id != "" {
		if err := m.st.Collection(ExamsCollection).Doc(id).Update(ctx, fields); err != nil {
			return "", err
		}
	} else {
		var err error
		if id, err = m.st.Collection(ExamsCollection).Add(ctx, fields); err != nil {
			return "", err
		}
	}

	m.mutated(ctx, "exam.save", form.Name)
	return id, nil
}

// Delete removes an exam. Callers must have obtained explicit user
// confirmation; deletion is immediate and irreversible.
func (m *ExamManager) Delete(ctx context.Context, id string) error {
	if err := m.st.Collection(ExamsCollection).Doc(id).Delete(ctx); err != nil {
		return err
	}
	m.mutated(ctx, "exam.delete", id)
	return nil
}

func docToExam(d store.Document) model.Exam {
	return model.Exam{
		ID:                d.ID,
		Name:              store.Str(d.Fields, "name"),
		Category:          store.Str(d.Fields, "category"),
		DurationMinutes:   store.Int(d.Fields, "duration_minutes"),
		TotalQuestions:    store.Int(d.Fields, "total_questions"),
		PassingPercentage: store.Int(d.Fields, "passing_percentage"),
		Status:            model.ExamStatus(store.Str(d.Fields, "status")),
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}
