package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sanu276140-eng/examsk24/internal/authz"
	"github.com/sanu276140-eng/examsk24/internal/config"
	"github.com/sanu276140-eng/examsk24/internal/events"
	"github.com/sanu276140-eng/examsk24/internal/identity"
	"github.com/sanu276140-eng/examsk24/internal/model"
	"github.com/sanu276140-eng/examsk24/internal/resource"
	"github.com/sanu276140-eng/examsk24/internal/session"
	"github.com/sanu276140-eng/examsk24/internal/store"
	ws "github.com/sanu276140-eng/examsk24/internal/websocket"
)

const (
	panelAdminEmail    = "gk@examsk24.online"
	panelAdminPassword = "secret123"
	panelPlainEmail    = "random@example.com"
)

type panelFixture struct {
	srv       *httptest.Server
	questions *resource.QuestionManager
	exams     *resource.ExamManager
}

// newPanelFixture wires the panel handler over the in-memory store, with one
// admin identity and one identity without an admin record.
func newPanelFixture(t *testing.T) *panelFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemory()
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: bcrypt.MinCost}
	identityService := identity.NewService(st, cfg)
	checker := authz.NewChecker(st, zerolog.Nop())

	ctx := context.Background()
	admin, err := identityService.CreateIdentity(ctx, panelAdminEmail, panelAdminPassword, "GK")
	require.NoError(t, err)
	require.NoError(t, checker.Grant(ctx, admin.ID))
	_, err = identityService.CreateIdentity(ctx, panelPlainEmail, panelAdminPassword, "")
	require.NoError(t, err)

	questions := resource.NewQuestionManager(st, events.Noop{}, zerolog.Nop())
	exams := resource.NewExamManager(st, events.Noop{}, zerolog.Nop())
	users := resource.NewUserManager(st, events.Noop{}, zerolog.Nop())
	dashboard := resource.NewDashboardManager(st, zerolog.Nop())

	h := NewPanelHandler(identityService, checker, questions, exams, users, dashboard, zerolog.Nop(), nil)

	r := gin.New()
	r.GET("/ws/v1/admin/panel", h.PanelStream)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &panelFixture{srv: srv, questions: questions, exams: exams}
}

func (f *panelFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/v1/admin/panel"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// panelEvent is the union of every server frame, decoded loosely.
type panelEvent struct {
	Event   string          `json:"event"`
	Message string          `json:"message"`
	Email   string          `json:"email"`
	Label   string          `json:"label"`
	Section string          `json:"section"`
	Rows    json.RawMessage `json:"rows"`
	Error   string          `json:"error"`
}

func readEvent(t *testing.T, conn *websocket.Conn) panelEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev panelEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func send(t *testing.T, conn *websocket.Conn, req ws.Request) {
	t.Helper()
	require.NoError(t, conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.WriteJSON(req))
}

// signIn consumes the initial login view, authenticates as the admin and
// consumes the dashboard frames.
func signIn(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	ev := readEvent(t, conn)
	require.Equal(t, string(ws.EventShowLogin), ev.Event)

	send(t, conn, ws.Request{Action: ws.ActionLogin, Email: panelAdminEmail, Password: panelAdminPassword})

	ev = readEvent(t, conn)
	require.Equal(t, string(ws.EventShowDashboard), ev.Event)
	require.Equal(t, panelAdminEmail, ev.Email)
	require.Equal(t, "GK", ev.Label)

	ev = readEvent(t, conn)
	require.Equal(t, string(ws.EventSectionData), ev.Event)
	require.Equal(t, SectionDashboard, ev.Section)
}

type panelRow struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func decodeRows(t *testing.T, ev panelEvent) []panelRow {
	t.Helper()
	var rows []panelRow
	require.NoError(t, json.Unmarshal(ev.Rows, &rows))
	return rows
}

func panelQuestionForm(text string) model.QuestionForm {
	return model.QuestionForm{
		Category: "math",
		Text:     text,
		Options:  map[string]string{"A": "1", "B": "2", "C": "3", "D": "4"},
		Answer:   "B",
	}
}

func TestPanelStreamShowsLoginOnConnect(t *testing.T) {
	f := newPanelFixture(t)
	conn := f.dial(t)

	ev := readEvent(t, conn)
	assert.Equal(t, string(ws.EventShowLogin), ev.Event)
	assert.Empty(t, ev.Message)
}

func TestPanelStreamAdminLoginShowsDashboard(t *testing.T) {
	f := newPanelFixture(t)
	conn := f.dial(t)

	signIn(t, conn)
}

func TestPanelStreamBadCredentials(t *testing.T) {
	f := newPanelFixture(t)
	conn := f.dial(t)

	readEvent(t, conn) // login view
	send(t, conn, ws.Request{Action: ws.ActionLogin, Email: panelAdminEmail, Password: "wrong"})

	ev := readEvent(t, conn)
	assert.Equal(t, string(ws.EventError), ev.Event)
	assert.Equal(t, "Invalid email or password.", ev.Error)
}

func TestPanelStreamNonAdminIsDenied(t *testing.T) {
	f := newPanelFixture(t)
	conn := f.dial(t)

	readEvent(t, conn) // login view
	send(t, conn, ws.Request{Action: ws.ActionLogin, Email: panelPlainEmail, Password: panelAdminPassword})

	// The sign-out transition repaints the login view, then the denial
	// message lands on top of it. The dashboard is never shown.
	ev := readEvent(t, conn)
	require.Equal(t, string(ws.EventShowLogin), ev.Event)
	ev = readEvent(t, conn)
	require.Equal(t, string(ws.EventShowLogin), ev.Event)
	assert.Equal(t, session.AccessDeniedMessage, ev.Message)

	// Still signed out: section requests are refused.
	send(t, conn, ws.Request{Action: ws.ActionSection, Section: SectionQuestions})
	ev = readEvent(t, conn)
	assert.Equal(t, string(ws.EventError), ev.Event)
	assert.Equal(t, "Not signed in.", ev.Error)
}

func TestPanelStreamQuestionsSectionIsLive(t *testing.T) {
	f := newPanelFixture(t)
	conn := f.dial(t)
	signIn(t, conn)

	send(t, conn, ws.Request{Action: ws.ActionSection, Section: SectionQuestions})

	ev := readEvent(t, conn)
	require.Equal(t, string(ws.EventSectionData), ev.Event)
	require.Equal(t, SectionQuestions, ev.Section)
	assert.Empty(t, decodeRows(t, ev))

	// A save on the server side pushes a fresh snapshot without any client
	// request.
	_, err := f.questions.Save(context.Background(), panelQuestionForm("What is 1+1?"))
	require.NoError(t, err)

	ev = readEvent(t, conn)
	require.Equal(t, string(ws.EventSectionData), ev.Event)
	require.Equal(t, SectionQuestions, ev.Section)
	rows := decodeRows(t, ev)
	require.Len(t, rows, 1)
	assert.Equal(t, "What is 1+1?", rows[0].Title)
}

func TestPanelStreamDropsSnapshotsForInactiveSection(t *testing.T) {
	f := newPanelFixture(t)
	conn := f.dial(t)
	signIn(t, conn)

	send(t, conn, ws.Request{Action: ws.ActionSection, Section: SectionQuestions})
	ev := readEvent(t, conn)
	require.Equal(t, SectionQuestions, ev.Section)

	send(t, conn, ws.Request{Action: ws.ActionSection, Section: SectionExams})
	ev = readEvent(t, conn)
	require.Equal(t, string(ws.EventSectionData), ev.Event)
	require.Equal(t, SectionExams, ev.Section)

	// A question change after the switch must not surface: its section is no
	// longer the one being shown.
	_, err := f.questions.Save(context.Background(), panelQuestionForm("Too late."))
	require.NoError(t, err)

	send(t, conn, ws.Request{Action: ws.ActionPing})
	ev = readEvent(t, conn)
	assert.Equal(t, string(ws.EventPong), ev.Event)
}

func TestPanelStreamDeleteRequiresConfirmation(t *testing.T) {
	f := newPanelFixture(t)
	conn := f.dial(t)
	signIn(t, conn)

	send(t, conn, ws.Request{Action: ws.ActionSection, Section: SectionQuestions})
	readEvent(t, conn) // empty snapshot

	id, err := f.questions.Save(context.Background(), panelQuestionForm("Keep me."))
	require.NoError(t, err)
	ev := readEvent(t, conn)
	require.Len(t, decodeRows(t, ev), 1)

	send(t, conn, ws.Request{Action: ws.ActionDelete, ID: id})
	ev = readEvent(t, conn)
	require.Equal(t, string(ws.EventError), ev.Event)
	assert.Equal(t, "Deletion requires confirmation.", ev.Error)

	send(t, conn, ws.Request{Action: ws.ActionDelete, ID: id, Confirm: true})
	ev = readEvent(t, conn)
	require.Equal(t, string(ws.EventSectionData), ev.Event)
	require.Equal(t, SectionQuestions, ev.Section)
	assert.Empty(t, decodeRows(t, ev))
}

// Watcher snapshots and read-loop error replies hit the socket from
// different goroutines; the connection must survive them interleaving.
func TestPanelStreamConcurrentWatcherAndErrorWrites(t *testing.T) {
	f := newPanelFixture(t)
	conn := f.dial(t)
	signIn(t, conn)

	send(t, conn, ws.Request{Action: ws.ActionSection, Section: SectionQuestions})
	ev := readEvent(t, conn)
	require.Equal(t, SectionQuestions, ev.Section)

	const rounds = 8
	saveErrs := make(chan error, 1)
	go func() {
		defer close(saveErrs)
		for i := 0; i < rounds; i++ {
			if _, err := f.questions.Save(context.Background(), panelQuestionForm("Concurrent?")); err != nil {
				saveErrs <- err
				return
			}
		}
	}()

	for i := 0; i < rounds; i++ {
		send(t, conn, ws.Request{Action: ws.ActionDelete})
	}

	errorsSeen := 0
	deadline := time.Now().Add(5 * time.Second)
	for errorsSeen < rounds {
		require.True(t, time.Now().Before(deadline), "timed out waiting for error replies")
		if readEvent(t, conn).Event == string(ws.EventError) {
			errorsSeen++
		}
	}
	for err := range saveErrs {
		require.NoError(t, err)
	}

	// The connection is still healthy.
	send(t, conn, ws.Request{Action: ws.ActionPing})
	for {
		ev := readEvent(t, conn)
		if ev.Event == string(ws.EventPong) {
			break
		}
		require.Equal(t, string(ws.EventSectionData), ev.Event)
	}
}
