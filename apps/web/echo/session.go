package echoweb

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/edumanage/edumanage/core/nav"
	"github.com/edumanage/edumanage/services/gateway"
)

const (
	sessionCookie = "edumanage_sid"

	defaultSessionIdleTimeout = 30 * time.Minute
)

// webSession is one browser's view of the app: its API credentials and its
// sidebar state.
type webSession struct {
	mu     sync.Mutex // serializes menu loads
	client *gateway.Client
	nav    *nav.Navigator
	loaded bool

	lastSeen time.Time // guarded by the store
}

// sessionStore keeps the sessions in memory, keyed by the cookie value.
// Sessions idle for longer than `idle` are evicted.
type sessionStore struct {
	mu        sync.Mutex
	sessions  map[string]*webSession
	create    func() *webSession
	idle      time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func newSessionStore(idle time.Duration, create func() *webSession) *sessionStore {
	if idle <= 0 {
		idle = defaultSessionIdleTimeout
	}
	return &sessionStore{
		sessions: make(map[string]*webSession),
		create:   create,
		idle:     idle,
		now:      time.Now,
	}
}

// lookup returns the live session of the request, if any.
func (st *sessionStore) lookup(ctx echo.Context) (*webSession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	_, ws := st.find(ctx)
	return ws, ws != nil
}

// start returns the session of the request, starting a new one (and setting
// its cookie) when the cookie is missing, unknown or expired.
func (st *sessionStore) start(ctx echo.Context) *webSession {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ws := st.find(ctx); ws != nil {
		return ws
	}

	sid := uuid.New().String()
	ws := st.create()
	ws.lastSeen = st.now()
	st.sessions[sid] = ws
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return ws
}

// drop forgets the session of the request and clears its cookie.
func (st *sessionStore) drop(ctx echo.Context) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if sid, ws := st.find(ctx); ws != nil {
		delete(st.sessions, sid)
	}
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// find resolves the cookie to a live session and marks it as seen. st.mu must be held.
func (st *sessionStore) find(ctx echo.Context) (string, *webSession) {
	now := st.now()
	st.sweep(now)

	c, err := ctx.Cookie(sessionCookie)
	if err != nil {
		return "", nil
	}
	ws, ok := st.sessions[c.Value]
	if !ok {
		return "", nil
	}
	if now.Sub(ws.lastSeen) > st.idle {
		delete(st.sessions, c.Value)
		return "", nil
	}
	ws.lastSeen = now
	return c.Value, ws
}

// sweep evicts the idle sessions, at most once per idle period. st.mu must be held.
func (st *sessionStore) sweep(now time.Time) {
	if now.Sub(st.lastSweep) < st.idle {
		return
	}
	st.lastSweep = now
	for sid, ws := range st.sessions {
		if now.Sub(ws.lastSeen) > st.idle {
			delete(st.sessions, sid)
		}
	}
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
