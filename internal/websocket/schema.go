package websocket

// Wire protocol of the admin panel stream. One connection hosts one console
// session; the server owns which view is visible and pushes full list
// replacements, the client only reports user intent.

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionLogin   Action = "login"
	ActionLogout  Action = "logout"
	ActionSection Action = "section"
	ActionRefresh Action = "refresh"
	ActionDelete  Action = "delete"
	ActionPing    Action = "ping"
)

// Request is the single client message shape; unused fields stay empty.
type Request struct {
	Action   Action `json:"action"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Section  string `json:"section,omitempty"`
	ID       string `json:"id,omitempty"`
	// Confirm must be true for delete actions; unconfirmed deletes are
	// rejected before the store is touched.
	Confirm bool `json:"confirm,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventShowLogin     Event = "show_login"
	EventShowDashboard Event = "show_dashboard"
	EventSectionData   Event = "section_data"
	EventError         Event = "error"
	EventPong          Event = "pong"
)

// ShowLoginResponse reveals the login view, optionally with a user-visible
// message (e.g. access denied).
type ShowLoginResponse struct {
	Event   Event  `json:"event"`
	Message string `json:"message,omitempty"`
}

// ShowDashboardResponse reveals the dashboard for the admitted identity.
type ShowDashboardResponse struct {
	Event Event  `json:"event"`
	Email string `json:"email"`
	Label string `json:"label"`
}

// SectionDataResponse replaces the rendered content of one section. Rows is
// always the full list; the client must discard it if Section is no longer
// the active one.
type SectionDataResponse struct {
	Event   Event  `json:"event"`
	Section string `json:"section"`
	Rows    any    `json:"rows"`
}

// ErrorResponse is a user-visible, non-fatal error. The previously rendered
// content stays intact.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

// PongResponse answers a ping.
type PongResponse struct {
	Event Event `json:"event"`
}
