// Package session owns the authentication state observed from the identity
// gateway and decides which top-level view an admin console shows.
package session

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sanu276140-eng/examsk24/internal/identity"
	"github.com/sanu276140-eng/examsk24/internal/model"
)

// State is the controller's position in the login lifecycle.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateChecking        State = "checking"
	StateAuthorized      State = "authorized"
	StateDenied          State = "denied"
)

// AccessDeniedMessage is surfaced when a valid identity lacks the admin role.
const AccessDeniedMessage = "Access denied. Admin privileges required."

// Authorizer is the admin decision consulted between Checking and
// Authorized/Denied. Satisfied by *authz.Checker.
type Authorizer interface {
	IsAdmin(ctx context.Context, ident *model.Identity) bool
}

// View is the presentation surface the controller drives. Implementations
// must tolerate repeated calls; the controller fully owns which view is
// visible.
type View interface {
	// ShowLogin reveals the login view. msg is empty for a plain transition
	// or carries a user-visible reason (e.g. access denied).
	ShowLogin(msg string)
	// ShowDashboard reveals the dashboard for the admitted identity and its
	// display label, after which the initial data load runs.
	ShowDashboard(ident model.Identity, label string)
}

// Loader performs the initial data load for the default dashboard view once
// the controller reaches Authorized.
type Loader interface {
	LoadInitial(ctx context.Context)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context)

func (f LoaderFunc) LoadInitial(ctx context.Context) { f(ctx) }

// Controller is the per-console session state machine. It reacts only to
// gateway state callbacks: even an explicit logout request travels through
// the gateway and transitions here when the gateway confirms, so the UI never
// flashes the login view while sign-out could still fail.
type Controller struct {
	gateway identity.Gateway
	authz   Authorizer
	view    View
	loader  Loader
	log     zerolog.Logger

	state       State
	unsubscribe func()
}

// NewController wires the state machine. Call Start to attach it to the
// gateway.
func NewController(gw identity.Gateway, az Authorizer, view View, loader Loader, log zerolog.Logger) *Controller {
	return &Controller{
		gateway: gw,
		authz:   az,
		view:    view,
		loader:  loader,
		log:     log.With().Str("component", "session").Logger(),
		state:   StateUnauthenticated,
	}
}

// Start registers for gateway state changes. The registration fires
// immediately with the current state, so the view is driven before Start
// returns. Call Stop on teardown.
func (c *Controller) Start(ctx context.Context) {
	c.unsubscribe = c.gateway.OnStateChange(func(ident *model.Identity) {
		c.handleState(ctx, ident)
	})
}

// Stop detaches the controller from the gateway.
func (c *Controller) Stop() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// State returns the current machine state.
func (c *Controller) State() State {
	return c.state
}

// Login submits credentials to the gateway. A failure is reported to the
// caller and leaves the machine Unauthenticated; a success comes back through
// the state callback.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	_, err := c.gateway.SignIn(ctx, email, password)
	return err
}

// Logout asks the gateway to sign out. No state or view change happens here;
// the transition is driven by the resulting gateway callback.
func (c *Controller) Logout(ctx context.Context) {
	if c.state != StateAuthorized {
		return
	}
	if err := c.gateway.SignOut(ctx); err != nil {
		c.log.Error().Err(err).Msg("Sign-out failed, keeping session")
	}
}

func (c *Controller) handleState(ctx context.Context, ident *model.Identity) {
	if ident == nil {
		c.state = StateUnauthenticated
		c.view.ShowLogin("")
		return
	}

	c.state = StateChecking

	if !c.authz.IsAdmin(ctx, ident) {
		c.state = StateDenied
		c.log.Info().Str("email", ident.Email).Msg("Admin access denied")

		// Fail closed: never leave a half-authenticated session behind. The
		// sign-out confirmation will bring the machine to Unauthenticated,
		// but the denial message must survive that transition.
		if err := c.gateway.SignOut(ctx); err != nil {
			c.log.Error().Err(err).Msg("Forced sign-out failed")
		}
		c.view.ShowLogin(AccessDeniedMessage)
		return
	}

	c.state = StateAuthorized
	c.view.ShowDashboard(*ident, ident.Label())
	if c.loader != nil {
		c.loader.LoadInitial(ctx)
	}
}
