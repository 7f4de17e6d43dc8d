package resource

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sanu276140-eng/examsk24/internal/events"
	"github.com/sanu276140-eng/examsk24/internal/model"
	"github.com/sanu276140-eng/examsk24/internal/store"
)

// UserManager handles platform-user CRUD from the admin panel.
type UserManager struct {
	base
}

// NewUserManager creates a UserManager.
func NewUserManager(st store.Store, rec events.Recorder, log zerolog.Logger) *UserManager {
	return &UserManager{base{
		st:  st,
		rec: rec,
		log: log.With().Str("component", "users").Logger(),
	}}
}

// UserListOptions filter and bound a user listing.
type UserListOptions struct {
	Role   string
	Status string
	Limit  int
}

// List returns a finite snapshot of users, newest first.
func (m *UserManager) List(ctx context.Context, opts UserListOptions) ([]model.User, error) {
	q := store.Query(m.st.Collection(UsersCollection))
	if opts.Role != "" {
		q = q.Where("role", store.OpEq, opts.Role)
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

	users := make([]model.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, docToUser(d))
	}
	return users, nil
}

// Get returns one user or store.ErrNotFound.
func (m *UserManager) Get(ctx context.Context, id string) (*model.User, error) {
	doc, err := m.st.Collection(UsersCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, err
	}
	u := docToUser(doc)
	return &u, nil
}

// Save persists the form state: update in place when it carries an id,
// insert otherwise. New users default to an active student.
func (m *UserManager) Save(ctx context.Context, form model.UserForm) (string, error) {
	role := form.Role
	if role == "" {
		role = "student"
	}
	status := form.Status
	if status == "" {
		status = "active"
	}

	fields := map[string]any{
		"email":  form.Email,
		"name":   form.Name,
		"role":   role,
		"status": status,
	}

	id := form.ID
	if id != "" {
		if err := m.st.Collection(UsersCollection).Doc(id).Update(ctx, fields); err != nil {
			return "", err
		}
	} else {
		var err error
		if id, err = m.st.Collection(UsersCollection).Add(ctx, fields); err != nil {
			return "", err
		}
	}

	m.mutated(ctx, "user.save", form.Email)
	return id, nil
}

// Delete removes a user record. Callers must have obtained explicit user
// confirmation; deletion is immediate and irreversible.
func (m *UserManager) Delete(ctx context.Context, id string) error {
	if err := m.st.Collection(UsersCollection).Doc(id).Delete(ctx); err != nil {
		return err
	}
	m.mutated(ctx, "user.delete", id)
	return nil
}

func docToUser(d store.Document) model.User {
	return model.User{
		ID:        d.ID,
		Email:     store.Str(d.Fields, "email"),
		Name:      store.Str(d.Fields, "name"),
		Role:      store.Str(d.Fields, "role"),
		Status:    store.Str(d.Fields, "status"),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
