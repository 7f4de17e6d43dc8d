package session

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanu276140-eng/examsk24/internal/identity"
	"github.com/sanu276140-eng/examsk24/internal/model"
)

type staticAuth struct {
	identities map[string]*model.Identity
}

func (a *staticAuth) Authenticate(_ context.Context, email, password string) (*model.Identity, error) {
	if ident, ok := a.identities[email]; ok && password == "correct" {
		return ident, nil
	}
	return nil, identity.ErrInvalidCredentials
}

type allowList map[string]bool

func (a allowList) IsAdmin(_ context.Context, ident *model.Identity) bool {
	return ident != nil && a[ident.ID]
}

// viewCall records one view transition for assertion.
type viewCall struct {
	name  string
	msg   string
	email string
	label string
}

type recordingView struct {
	calls []viewCall
}

func (v *recordingView) ShowLogin(msg string) {
	v.calls = append(v.calls, viewCall{name: "login", msg: msg})
}

func (v *recordingView) ShowDashboard(ident model.Identity, label string) {
	v.calls = append(v.calls, viewCall{name: "dashboard", email: ident.Email, label: label})
}

func (v *recordingView) last() viewCall {
	return v.calls[len(v.calls)-1]
}

func newTestController(admins allowList) (*Controller, *recordingView, *int) {
	auth := &staticAuth{identities: map[string]*model.Identity{
		"gk@examsk24.online":  {ID: "gk", Email: "gk@examsk24.online", DisplayName: "GK"},
		"random@example.com":  {ID: "rnd", Email: "random@example.com"},
		"unnamed@example.com": {ID: "anon", Email: "unnamed@example.com"},
	}}

	gw := identity.NewSession(auth)
	view := &recordingView{}
	loads := 0
	ctrl := NewController(gw, admins, view, LoaderFunc(func(context.Context) { loads++ }), zerolog.Nop())
	return ctrl, view, &loads
}

func TestControllerStartShowsLogin(t *testing.T) {
	ctrl, view, loads := newTestController(allowList{})
	defer ctrl.Stop()

	ctrl.Start(context.Background())

	assert.Equal(t, StateUnauthenticated, ctrl.State())
	require.Len(t, view.calls, 1)
	assert.Equal(t, viewCall{name: "login"}, view.calls[0])
	assert.Zero(t, *loads)
}

func TestControllerAdminLoginShowsDashboard(t *testing.T) {
	ctrl, view, loads := newTestController(allowList{"gk": true})
	defer ctrl.Stop()
	ctx := context.Background()

	ctrl.Start(ctx)
	require.NoError(t, ctrl.Login(ctx, "gk@examsk24.online", "correct"))

	assert.Equal(t, StateAuthorized, ctrl.State())
	last := view.last()
	assert.Equal(t, "dashboard", last.name)
	assert.Equal(t, "gk@examsk24.online", last.email)
	assert.Equal(t, "GK", last.label)
	assert.Equal(t, 1, *loads, "initial data load runs once after admission")
}

func TestControllerLabelFallsBackToEmailLocalPart(t *testing.T) {
	ctrl, view, _ := newTestController(allowList{"anon": true})
	defer ctrl.Stop()
	ctx := context.Background()

	ctrl.Start(ctx)
	require.NoError(t, ctrl.Login(ctx, "unnamed@example.com", "correct"))

	assert.Equal(t, "unnamed", view.last().label)
}

func TestControllerNonAdminDeniedAndSignedOut(t *testing.T) {
	ctrl, view, loads := newTestController(allowList{"gk": true})
	defer ctrl.Stop()
	ctx := context.Background()

	ctrl.Start(ctx)
	require.NoError(t, ctrl.Login(ctx, "random@example.com", "correct"))

	// The forced sign-out lands first, then the denial message so it is what
	// the user actually sees.
	require.GreaterOrEqual(t, len(view.calls), 3)
	assert.Equal(t, viewCall{name: "login"}, view.calls[len(view.calls)-2])
	assert.Equal(t, viewCall{name: "login", msg: AccessDeniedMessage}, view.last())

	assert.Equal(t, StateUnauthenticated, ctrl.State())
	assert.Zero(t, *loads, "denied identity never triggers a data load")

	for _, call := range view.calls {
		assert.NotEqual(t, "dashboard", call.name)
	}
}

func TestControllerBadCredentialsLeaveLoginView(t *testing.T) {
	ctrl, view, _ := newTestController(allowList{"gk": true})
	defer ctrl.Stop()
	ctx := context.Background()

	ctrl.Start(ctx)
	err := ctrl.Login(ctx, "gk@examsk24.online", "wrong")

	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	assert.Equal(t, StateUnauthenticated, ctrl.State())
	assert.Len(t, view.calls, 1, "failed login causes no extra view transitions")
}

func TestControllerLogout(t *testing.T) {
	ctrl, view, _ := newTestController(allowList{"gk": true})
	defer ctrl.Stop()
	ctx := context.Background()

	ctrl.Start(ctx)
	require.NoError(t, ctrl.Login(ctx, "gk@examsk24.online", "correct"))
	require.Equal(t, StateAuthorized, ctrl.State())

	ctrl.Logout(ctx)

	assert.Equal(t, StateUnauthenticated, ctrl.State())
	assert.Equal(t, viewCall{name: "login"}, view.last())
}

func TestControllerLogoutIgnoredWhenSignedOut(t *testing.T) {
	ctrl, view, _ := newTestController(allowList{})
	defer ctrl.Stop()
	ctx := context.Background()

	ctrl.Start(ctx)
	ctrl.Logout(ctx)

	assert.Equal(t, StateUnauthenticated, ctrl.State())
	assert.Len(t, view.calls, 1)
}

func TestControllerStopDetaches(t *testing.T) {
	ctrl, view, _ := newTestController(allowList{"gk": true})
	ctx := context.Background()

	ctrl.Start(ctx)
	ctrl.Stop()

	require.NoError(t, ctrl.Login(ctx, "gk@examsk24.online", "correct"))
	assert.Len(t, view.calls, 1, "no transitions after Stop")
}
