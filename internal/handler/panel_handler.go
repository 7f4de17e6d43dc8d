package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/sanu276140-eng/examsk24/internal/authz"
	"github.com/sanu276140-eng/examsk24/internal/events"
	"github.com/sanu276140-eng/examsk24/internal/identity"
	"github.com/sanu276140-eng/examsk24/internal/model"
	"github.com/sanu276140-eng/examsk24/internal/render"
	"github.com/sanu276140-eng/examsk24/internal/resource"
	"github.com/sanu276140-eng/examsk24/internal/session"
	"github.com/sanu276140-eng/examsk24/internal/store"
	ws "github.com/sanu276140-eng/examsk24/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// Panel sections navigable from the console sidebar.
const (
	SectionDashboard = "dashboard"
	SectionQuestions = "questions"
	SectionExams     = "exams"
	SectionUsers     = "users"
)

// PanelHandler hosts the admin panel stream: one WebSocket connection per
// console, carrying login state transitions and full-list section renders.
type PanelHandler struct {
	identityService *identity.Service
	checker         *authz.Checker
	questions       *resource.QuestionManager
	exams           *resource.ExamManager
	users           *resource.UserManager
	dashboard       *resource.DashboardManager
	log             zerolog.Logger
	upgrader        websocket.Upgrader
}

// NewPanelHandler creates a new PanelHandler.
func NewPanelHandler(
	identityService *identity.Service,
	checker *authz.Checker,
	questions *resource.QuestionManager,
	exams *resource.ExamManager,
	users *resource.UserManager,
	dashboard *resource.DashboardManager,
	log zerolog.Logger,
	allowedOrigins []string,
) *PanelHandler {
	return &PanelHandler{
		identityService: identityService,
		checker:         checker,
		questions:       questions,
		exams:           exams,
		users:           users,
		dashboard:       dashboard,
		log:             log.With().Str("component", "panel_handler").Logger(),
		upgrader:        buildUpgrader(allowedOrigins),
	}
}

// PanelStream godoc
// WS /ws/v1/admin/panel
// Upgrades to WebSocket and hosts an admin console session. Authentication
// happens in-band: the connection starts signed out and the server pushes
// the login view immediately.
func (h *PanelHandler) PanelStream(c *gin.Context) {
	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	baseCtx := c.Request.Context()

	pc := &panelConn{
		h:        h,
		conn:     conn,
		baseCtx:  baseCtx,
		actorCtx: baseCtx,
		log:      h.log,
	}
	defer pc.stopSection()

	gw := identity.NewSession(h.identityService)
	ctrl := session.NewController(gw, h.checker, pc, session.LoaderFunc(func(ctx context.Context) {
		pc.showSection(ctx, SectionDashboard)
	}), h.log)

	ctrl.Start(baseCtx)
	defer ctrl.Stop()

	for {
		var msg ws.Request
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Msg("Unexpected close")
			} else {
				h.log.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionLogin:
			if err := ctrl.Login(pc.actorCtx, msg.Email, msg.Password); err != nil {
				if errors.Is(err, identity.ErrInvalidCredentials) {
					pc.writeError("Invalid email or password.")
				} else {
					pc.writeError("Login is temporarily unavailable.")
				}
			}
		case ws.ActionLogout:
			ctrl.Logout(pc.actorCtx)
		case ws.ActionSection:
			if ctrl.State() != session.StateAuthorized {
				pc.writeError("Not signed in.")
				continue
			}
			pc.showSection(pc.actorCtx, msg.Section)
		case ws.ActionRefresh:
			if ctrl.State() != session.StateAuthorized {
				pc.writeError("Not signed in.")
				continue
			}
			pc.refresh(pc.actorCtx)
		case ws.ActionDelete:
			if ctrl.State() != session.StateAuthorized {
				pc.writeError("Not signed in.")
				continue
			}
			pc.handleDelete(pc.actorCtx, msg)
		case ws.ActionPing:
			pc.write(ws.PongResponse{Event: ws.EventPong})
		default:
			h.log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			pc.writeError("unknown action: " + string(msg.Action))
		}
	}
}

// panelConn is the per-connection presentation state. It implements
// session.View; the wrapped conn serializes writes so section watchers,
// mutation hooks and the read loop never interleave frames.
type panelConn struct {
	h    *PanelHandler
	conn *ws.Conn
	log  zerolog.Logger

	baseCtx context.Context
	// actorCtx carries the signed-in email for activity recording. Reset to
	// baseCtx whenever the login view is shown.
	actorCtx context.Context

	mu      sync.Mutex
	section string
	stops   []func()
}

var _ session.View = (*panelConn)(nil)

func (p *panelConn) write(v interface{}) {
	if err := p.conn.WriteTyped(v); err != nil {
		p.log.Debug().Err(err).Msg("Panel write failed")
	}
}

func (p *panelConn) writeError(msg string) {
	if err := p.conn.WriteError(msg); err != nil {
		p.log.Debug().Err(err).Msg("Panel write failed")
	}
}

// ShowLogin implements session.View.
func (p *panelConn) ShowLogin(msg string) {
	p.stopSection()
	p.actorCtx = p.baseCtx
	p.write(ws.ShowLoginResponse{Event: ws.EventShowLogin, Message: msg})
}

// ShowDashboard implements session.View.
func (p *panelConn) ShowDashboard(ident model.Identity, label string) {
	p.actorCtx = events.WithActor(p.baseCtx, ident.Email)
	p.write(ws.ShowDashboardResponse{Event: ws.EventShowDashboard, Email: ident.Email, Label: label})
}

// showSection switches the active section: previous subscriptions stop
// first, then the section renders once and attaches its own live sources.
func (p *panelConn) showSection(ctx context.Context, name string) {
	switch name {
	case SectionDashboard, SectionQuestions, SectionExams, SectionUsers:
	default:
		p.writeError("unknown section: " + name)
		return
	}

	p.stopSection()

	p.mu.Lock()
	p.section = name
	p.mu.Unlock()

	switch name {
	case SectionDashboard:
		p.renderDashboard(ctx)
		p.watchMutations(ctx, name, p.renderDashboard, p.h.questions.OnMutate, p.h.exams.OnMutate, p.h.users.OnMutate)
	case SectionQuestions:
		p.watchQuestions(ctx)
	case SectionExams:
		p.renderExams(ctx)
		p.watchMutations(ctx, name, p.renderExams, p.h.exams.OnMutate)
	case SectionUsers:
		p.renderUsers(ctx)
		p.watchMutations(ctx, name, p.renderUsers, p.h.users.OnMutate)
	}
}

// refresh re-renders the active section on demand.
func (p *panelConn) refresh(ctx context.Context) {
	p.mu.Lock()
	name := p.section
	p.mu.Unlock()
	if name == "" {
		name = SectionDashboard
	}
	p.showSection(ctx, name)
}

func (p *panelConn) stopSection() {
	p.mu.Lock()
	stops := p.stops
	p.stops = nil
	p.section = ""
	p.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}

// active reports whether name is still the section being shown. Renders for
// a stale section are dropped before they reach the socket.
func (p *panelConn) active(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.section == name
}

func (p *panelConn) sendRows(name string, rows []render.Row) {
	if !p.active(name) {
		return
	}
	p.write(ws.SectionDataResponse{Event: ws.EventSectionData, Section: name, Rows: rows})
}

// watchMutations re-renders a finite section after every successful save or
// delete on the given managers. The unsubscribes are tied to the section.
func (p *panelConn) watchMutations(ctx context.Context, name string, rerender func(context.Context), subs ...func(func()) func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.section != name {
		return
	}
	for _, sub := range subs {
		p.stops = append(p.stops, sub(func() {
			if p.active(name) {
				rerender(ctx)
			}
		}))
	}
}

// watchQuestions attaches the live question listing: the store subscription
// replays a full snapshot on every relevant change.
func (p *panelConn) watchQuestions(ctx context.Context) {
	snapshots, stop, err := p.h.questions.Watch(ctx, resource.QuestionListOptions{})
	if err != nil {
		p.log.Error().Err(err).Msg("Question watch failed")
		p.writeError("Could not load questions.")
		return
	}

	p.mu.Lock()
	if p.section != SectionQuestions {
		p.mu.Unlock()
		stop()
		return
	}
	p.stops = append(p.stops, stop)
	p.mu.Unlock()

	go func() {
		for questions := range snapshots {
			p.sendRows(SectionQuestions, render.QuestionRows(questions))
		}
	}()
}

func (p *panelConn) renderDashboard(ctx context.Context) {
	stats, err := p.h.dashboard.Stats(ctx)
	if err != nil {
		p.writeError("Could not load dashboard.")
		return
	}
	if !p.active(SectionDashboard) {
		return
	}
	p.write(ws.SectionDataResponse{
		Event:   ws.EventSectionData,
		Section: SectionDashboard,
		Rows: map[string]interface{}{
			"stats":  stats,
			"recent": render.ActivityRows(stats.RecentActivity, time.Now()),
		},
	})
}

func (p *panelConn) renderExams(ctx context.Context) {
	exams, err := p.h.exams.List(ctx, resource.ExamListOptions{})
	if err != nil {
		p.writeError("Could not load exams.")
		return
	}
	p.sendRows(SectionExams, render.ExamRows(exams))
}

func (p *panelConn) renderUsers(ctx context.Context) {
	users, err := p.h.users.List(ctx, resource.UserListOptions{})
	if err != nil {
		p.writeError("Could not load users.")
		return
	}
	p.sendRows(SectionUsers, render.UserRows(users))
}

// handleDelete routes a delete action to the manager of the active section.
// The mutation hooks take care of re-rendering; nothing is removed from the
// view optimistically.
func (p *panelConn) handleDelete(ctx context.Context, msg ws.Request) {
	if !msg.Confirm {
		p.writeError("Deletion requires confirmation.")
		return
	}
	if msg.ID == "" {
		p.writeError("id is required")
		return
	}

	p.mu.Lock()
	name := p.section
	p.mu.Unlock()

	var err error
	switch name {
	case SectionQuestions:
		err = p.h.questions.Delete(ctx, msg.ID)
	case SectionExams:
		err = p.h.exams.Delete(ctx, msg.ID)
	case SectionUsers:
		err = p.h.users.Delete(ctx, msg.ID)
	default:
		p.writeError("nothing to delete here")
		return
	}

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			p.writeError("Record no longer exists.")
		} else {
			p.writeError("Delete failed.")
		}
	}
}
