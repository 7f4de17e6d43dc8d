package resource

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanu276140-eng/examsk24/internal/model"
	"github.com/sanu276140-eng/examsk24/internal/store"
)

func validExamForm() model.ExamForm {
	return model.ExamForm{
		Name:              "Math Mock 1",
		Category:          "math",
		DurationMinutes:   60,
		TotalQuestions:    20,
		PassingPercentage: 50,
	}
}

func TestExamSaveDefaultsToDraft(t *testing.T) {
	m := NewExamManager(store.NewMemory(), &memRecorder{}, zerolog.Nop())
	ctx := context.Background()

	id, err := m.Save(ctx, validExamForm())
	require.NoError(t, err)

	exam, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ExamStatusDraft, exam.Status)
	assert.Equal(t, 60, exam.DurationMinutes)
	assert.Equal(t, 20, exam.TotalQuestions)
}

func TestExamSaveUpdateChangesStatus(t *testing.T) {
	m := NewExamManager(store.NewMemory(), &memRecorder{}, zerolog.Nop())
	ctx := context.Background()

	id, err := m.Save(ctx, validExamForm())
	require.NoError(t, err)

	form := validExamForm()
	form.ID = id
	form.Status = string(model.ExamStatusActive)

	got, err := m.Save(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	exam, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ExamStatusActive, exam.Status)
}

func TestExamListStatusFilter(t *testing.T) {
	m := NewExamManager(store.NewMemory(), &memRecorder{}, zerolog.Nop())
	ctx := context.Background()

	_, err := m.Save(ctx, validExamForm())
	require.NoError(t, err)

	active := validExamForm()
	active.Name = "Science Mock"
	active.Status = string(model.ExamStatusActive)
	_, err = m.Save(ctx, active)
	require.NoError(t, err)

	drafts, err := m.List(ctx, ExamListOptions{Status: string(model.ExamStatusDraft)})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Math Mock 1", drafts[0].Name)
}

func TestExamDeleteRecordsActivity(t *testing.T) {
	rec := &memRecorder{}
	m := NewExamManager(store.NewMemory(), rec, zerolog.Nop())
	ctx := context.Background()

	id, err := m.Save(ctx, validExamForm())
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, id))

	require.Len(t, rec.actions, 2)
	assert.Equal(t, "exam.save", rec.actions[0])
	assert.Equal(t, "exam.delete", rec.actions[1])
	assert.Equal(t, id, rec.details[1])

	_, err = m.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
