// Package authz decides whether an authenticated identity may use the admin
// surface. Policy: an identity is an admin iff an authorization record with
// role "admin" exists for it in the admins collection. The decision fails
// closed — lookup errors, timeouts and missing records all deny.
package authz

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/sanu276140-eng/examsk24/internal/model"
	"github.com/sanu276140-eng/examsk24/internal/store"
)

// AdminsCollection holds one authorization record per admin identity, keyed
// by identity id.
const AdminsCollection = "admins"

// Checker performs the admin role-record lookup.
type Checker struct {
	st  store.Store
	log zerolog.Logger
}

// NewChecker creates a Checker backed by the given store.
func NewChecker(st store.Store, log zerolog.Logger) *Checker {
	return &Checker{
		st:  st,
		log: log.With().Str("component", "authz").Logger(),
	}
}

// IsAdmin reports whether the identity holds the admin role. It never
// defaults to allow: a store error logs a warning and denies.
func (c *Checker) IsAdmin(ctx context.Context, ident *model.Identity) bool {
	if ident == nil || ident.ID == "" {
		return false
	}

	doc, err := c.st.Collection(AdminsCollection).Doc(ident.ID).Get(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.log.Warn().Err(err).
				Str("identity_id", ident.ID).
				Msg("Admin lookup failed, denying access")
		}
		return false
	}

	return store.Str(doc.Fields, "role") == model.RoleAdmin
}

// Grant writes the authorization record admitting the identity. Used by the
// admin provisioning flow only.
func (c *Checker) Grant(ctx context.Context, identityID string) error {
	return c.st.Collection(AdminsCollection).Doc(identityID).Set(ctx, map[string]any{
		"identity_id": identityID,
		"role":        model.RoleAdmin,
	})
}
