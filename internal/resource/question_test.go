package resource

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanu276140-eng/examsk24/internal/events"
	"github.com/sanu276140-eng/examsk24/internal/model"
	"github.com/sanu276140-eng/examsk24/internal/store"
)

// memRecorder captures activity events for assertion.
type memRecorder struct {
	actions []string
	details []string
}

func (r *memRecorder) Record(_ context.Context, action, detail string) {
	r.actions = append(r.actions, action)
	r.details = append(r.details, detail)
}

var _ events.Recorder = (*memRecorder)(nil)

func validQuestionForm() model.QuestionForm {
	return model.QuestionForm{
		Category: "math",
		Text:     "What is 2+2?",
		Options:  map[string]string{"A": "3", "B": "4", "C": "5", "D": "6"},
		Answer:   "B",
	}
}

func TestQuestionSaveInsertAndRoundTrip(t *testing.T) {
	st := store.NewMemory()
	rec := &memRecorder{}
	m := NewQuestionManager(st, rec, zerolog.Nop())
	ctx := context.Background()

	id, err := m.Save(ctx, validQuestionForm())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	q, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "What is 2+2?", q.Text)
	assert.Equal(t, "B", q.Answer)
	assert.Equal(t, map[string]string{"A": "3", "B": "4", "C": "5", "D": "6"}, q.Options)

	require.Len(t, rec.actions, 1)
	assert.Equal(t, "question.save", rec.actions[0])
}

func TestQuestionSaveUpdateKeepsID(t *testing.T) {
	st := store.NewMemory()
	m := NewQuestionManager(st, &memRecorder{}, zerolog.Nop())
	ctx := context.Background()

	id, err := m.Save(ctx, validQuestionForm())
	require.NoError(t, err)

	form := validQuestionForm()
	form.ID = id
	form.Text = "What is 3+3?"
	form.Answer = "D"
	form.Options["D"] = "6"

	got, err := m.Save(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	questions, err := m.List(ctx, QuestionListOptions{})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "What is 3+3?", questions[0].Text)
}

func TestQuestionSaveRejectsAnswerOutsideOptions(t *testing.T) {
	m := NewQuestionManager(store.NewMemory(), &memRecorder{}, zerolog.Nop())

	form := validQuestionForm()
	form.Answer = "E"
	_, err := m.Save(context.Background(), form)
	assert.ErrorIs(t, err, ErrAnswerNotInOptions)
}

func TestQuestionSaveRejectsMissingOption(t *testing.T) {
	m := NewQuestionManager(store.NewMemory(), &memRecorder{}, zerolog.Nop())

	form := validQuestionForm()
	delete(form.Options, "C")
	_, err := m.Save(context.Background(), form)
	assert.ErrorIs(t, err, ErrIncompleteOptions)
}

func TestQuestionSaveDenormalizesExamName(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	exams := NewExamManager(st, &memRecorder{}, zerolog.Nop())
	examID, err := exams.Save(ctx, model.ExamForm{
		Name:              "Math Mock 1",
		Category:          "math",
		DurationMinutes:   60,
		TotalQuestions:    20,
		PassingPercentage: 50,
	})
	require.NoError(t, err)

	m := NewQuestionManager(st, &memRecorder{}, zerolog.Nop())
	form := validQuestionForm()
	form.ExamID = examID

	id, err := m.Save(ctx, form)
	require.NoError(t, err)

	q, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Math Mock 1", q.ExamName)
}

func TestQuestionSaveSurvivesMissingExam(t *testing.T) {
	m := NewQuestionManager(store.NewMemory(), &memRecorder{}, zerolog.Nop())
	ctx := context.Background()

	form := validQuestionForm()
	form.ExamID = "00000000-0000-0000-0000-000000000000"

	// The referenced exam does not exist; the save still goes through, just
	// without the denormalized name.
	id, err := m.Save(ctx, form)
	require.NoError(t, err)

	q, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, q.ExamName)
	assert.Equal(t, form.ExamID, q.ExamID)
}

func TestQuestionListNewestFirstWithFilters(t *testing.T) {
	st := store.NewMemory()
	m := NewQuestionManager(st, &memRecorder{}, zerolog.Nop())
	ctx := context.Background()

	var ids []string
	for _, category := range []string{"math", "science", "math"} {
		form := validQuestionForm()
		form.Category = category
		id, err := m.Save(ctx, form)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	all, err := m.List(ctx, QuestionListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID, "newest first")

	math, err := m.List(ctx, QuestionListOptions{Category: "math"})
	require.NoError(t, err)
	assert.Len(t, math, 2)

	limited, err := m.List(ctx, QuestionListOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, ids[2], limited[0].ID)
}

func TestQuestionDelete(t *testing.T) {
	m := NewQuestionManager(store.NewMemory(), &memRecorder{}, zerolog.Nop())
	ctx := context.Background()

	id, err := m.Save(ctx, validQuestionForm())
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, id))

	_, err = m.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, m.Delete(ctx, id), store.ErrNotFound)
}

func TestQuestionMutationHooks(t *testing.T) {
	m := NewQuestionManager(store.NewMemory(), &memRecorder{}, zerolog.Nop())
	ctx := context.Background()

	fired := 0
	unsub := m.OnMutate(func() { fired++ })

	id, err := m.Save(ctx, validQuestionForm())
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	require.NoError(t, m.Delete(ctx, id))
	assert.Equal(t, 2, fired)

	// Failed saves fire nothing.
	form := validQuestionForm()
	form.Answer = "E"
	_, err = m.Save(ctx, form)
	require.Error(t, err)
	assert.Equal(t, 2, fired)

	unsub()
	_, err = m.Save(ctx, validQuestionForm())
	require.NoError(t, err)
	assert.Equal(t, 2, fired)
}

func TestQuestionWatchReplaysSnapshots(t *testing.T) {
	m := NewQuestionManager(store.NewMemory(), &memRecorder{}, zerolog.Nop())
	ctx := context.Background()

	snapshots, stop, err := m.Watch(ctx, QuestionListOptions{})
	require.NoError(t, err)
	defer stop()

	assert.Empty(t, waitQuestions(t, snapshots))

	id, err := m.Save(ctx, validQuestionForm())
	require.NoError(t, err)

	got := waitQuestions(t, snapshots)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)

	require.NoError(t, m.Delete(ctx, id))
	assert.Empty(t, waitQuestions(t, snapshots))
}

func TestQuestionSaveActivityDetailCutsOnRunes(t *testing.T) {
	rec := &memRecorder{}
	m := NewQuestionManager(store.NewMemory(), rec, zerolog.Nop())

	form := validQuestionForm()
	form.Text = strings.Repeat("数", 100)

	_, err := m.Save(context.Background(), form)
	require.NoError(t, err)

	require.Len(t, rec.details, 1)
	detail := rec.details[0]
	assert.True(t, utf8.ValidString(detail))
	assert.Equal(t, 81, utf8.RuneCountInString(detail)) // 80 runes plus the ellipsis
	assert.True(t, strings.HasSuffix(detail, "…"))
}

func waitQuestions(t *testing.T, ch <-chan []model.Question) []model.Question {
	t.Helper()
	select {
	case qs := <-ch:
		return qs
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
		return nil
	}
}
