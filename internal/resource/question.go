package resource

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sanu276140-eng/examsk24/internal/events"
	"github.com/sanu276140-eng/examsk24/internal/model"
	"github.com/sanu276140-eng/examsk24/internal/store"
)

// QuestionManager handles question CRUD and list synchronization.
type QuestionManager struct {
	base
}

// NewQuestionManager creates a QuestionManager.
func NewQuestionManager(st store.Store, rec events.Recorder, log zerolog.Logger) *QuestionManager {
	return &QuestionManager{base{
		st:  st,
		rec: rec,
		log: log.With().Str("component", "questions").Logger(),
	}}
}

// QuestionListOptions filter and bound a question listing.
type QuestionListOptions struct {
	ExamID   string
	Category string
	Limit    int
}

func (o QuestionListOptions) apply(q store.Query) store.Query {
	if o.ExamID != "" {
		q = q.Where("exam_id", store.OpEq, o.ExamID)
	}
	if o.Category != "" {
		q = q.Where("category", store.OpEq, o.Category)
	}
	q = q.OrderBy(store.FieldCreatedAt, store.Desc)
	if o.Limit > 0 {
		q = q.Limit(o.Limit)
	}
	return q
}

// List returns a finite snapshot of questions, newest first.
func (m *QuestionManager) List(ctx context.Context, opts QuestionListOptions) ([]model.Question, error) {
	docs, err := opts.apply(m.st.Collection(QuestionsCollection)).Get(ctx)
	if err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(docs))
	for _, d := range docs {
		questions = append(questions, docToQuestion(d))
	}
	return questions, nil
}

// Watch opens a live listing: the returned channel carries a full replacement
// snapshot now and after every change to the questions collection. Stop the
// subscription on view teardown.
func (m *QuestionManager) Watch(ctx context.Context, opts QuestionListOptions) (<-chan []model.Question, func(), error) {
	sub, err := opts.apply(m.st.Collection(QuestionsCollection)).Subscribe(ctx)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan []model.Question, 1)
	go func() {
		defer close(out)
		for docs := range sub.C {
			questions := make([]model.Question, 0, len(docs))
			for _, d := range docs {
				questions = append(questions, docToQuestion(d))
			}
			// Replace any snapshot the receiver has not consumed yet.
			select {
			case out <- questions:
			default:
				select {
				case <-out:
				default:
				}
				out <- questions
			}
		}
	}()

	return out, sub.Stop, nil
}

// Get returns one question or store.ErrNotFound.
func (m *QuestionManager) Get(ctx context.Context, id string) (*model.Question, error) {
	doc, err := m.st.Collection(QuestionsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, err
	}
	q := docToQuestion(doc)
	return &q, nil
}

// Save persists the form state: update in place when it carries an id,
// insert otherwise. When an exam is referenced, its name is denormalized
// onto the question before the write; a failed exam lookup degrades to
// saving without the name rather than aborting.
func (m *QuestionManager) Save(ctx context.Context, form model.QuestionForm) (string, error) {
	for _, label := range model.OptionLabels {
		if form.Options[label] == "" {
			return "", fmt.Errorf("option %s: %w", label, ErrIncompleteOptions)
		}
	}
	if form.Options[form.Answer] == "" {
		return "", ErrAnswerNotInOptions
	}

	fields := map[string]any{
		"exam_id":     form.ExamID,
		"category":    form.Category,
		"text":        form.Text,
		"options":     form.Options,
		"answer":      form.Answer,
		"difficulty":  form.Difficulty,
		"explanation": form.Explanation,
	}

	if form.ExamID != "" {
		// Best-effort enrichment, resolved before the write.
		examDoc, err := m.st.Collection(ExamsCollection).Doc(form.ExamID).Get(ctx)
		if err != nil {
			m.log.Debug().Err(err).
				Str("exam_id", form.ExamID).
				Msg("Exam lookup failed, saving question without exam name")
		} else {
			fields["exam_name"] = store.Str(examDoc.Fields, "name")
		}
	}

	id := form.ID
	if id != "" {
		if err := m.st.Collection(QuestionsCollection).Doc(id).Update(ctx, fields); err != nil {
			return "", err
		}
	} else {
		var err error
		if id, err = m.st.Collection(QuestionsCollection).Add(ctx, fields); err != nil {
			return "", err
		}
	}

	m.mutated(ctx, "question.save", truncate(form.Text, 80))
	return id, nil
}

// Delete removes a question. Callers must have obtained explicit user
// confirmation; deletion is immediate and irreversible.
func (m *QuestionManager) Delete(ctx context.Context, id string) error {
	if err := m.st.Collection(QuestionsCollection).Doc(id).Delete(ctx); err != nil {
		return err
	}
	m.mutated(ctx, "question.delete", id)
	return nil
}

func docToQuestion(d store.Document) model.Question {
	return model.Question{
		ID:          d.ID,
		ExamID:      store.Str(d.Fields, "exam_id"),
		ExamName:    store.Str(d.Fields, "exam_name"),
		Category:    store.Str(d.Fields, "category"),
		Text:        store.Str(d.Fields, "text"),
		Options:     store.StrMap(d.Fields, "options"),
		Answer:      store.Str(d.Fields, "answer"),
		Difficulty:  store.Str(d.Fields, "difficulty"),
		Explanation: store.Str(d.Fields, "explanation"),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// truncate cuts on rune boundaries so the result stays valid UTF-8.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
