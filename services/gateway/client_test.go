package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumanage/edumanage/core"
	"github.com/edumanage/edumanage/core/user"
)

const menusBody = `[
	{"id":"1","displayName":"B","parentMenuId":null,"sortOrder":2},
	{"id":"2","displayName":"A","parentMenuId":null,"sortOrder":2},
	{"id":"3","displayName":"C","parentMenuId":"1","sortOrder":1}
]`

// fakeAPI serves the menu and auth endpoints. Only `validToken` is accepted
// on /Menus/hierarchy.
type fakeAPI struct {
	mu           sync.Mutex
	validToken   string
	refreshOK    bool
	keepToken    bool // refreshed tokens are not accepted
	menus        string
	menuCalls    int32
	refreshCalls int32
	authHeaders  []string
	delay        time.Duration
}

func (api *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case menusPath:
		atomic.AddInt32(&api.menuCalls, 1)
		api.mu.Lock()
		api.authHeaders = append(api.authHeaders, r.Header.Get("Authorization"))
		valid := "Bearer " + api.validToken
		api.mu.Unlock()
		if api.delay > 0 {
			time.Sleep(api.delay)
		}
		if r.Header.Get("Authorization") != valid {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid or expired jwt"}`))
			return
		}
		_, _ = w.Write([]byte(api.menus))
	case refreshPath:
		atomic.AddInt32(&api.refreshCalls, 1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if !api.refreshOK || body["refreshToken"] != "refresh-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		time.Sleep(20 * time.Millisecond)
		api.mu.Lock()
		if !api.keepToken {
			api.validToken = "access-2"
		}
		api.mu.Unlock()
		_, _ = w.Write([]byte(`{"data":{"accessToken":"access-2","refreshToken":"refresh-2"}}`))
	case loginPath:
		_, _ = w.Write([]byte(`{"data":{"accessToken":"access-1","refreshToken":"refresh-1",
			"user":{"id":"u1","name":"Jane","username":"jane","roles":["admin:"]}}}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, api *fakeAPI, opts ...Option) (*Client, *Session, *Metrics) {
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	session := NewSession(NewMemoryStorage())
	session.SetTokens(Tokens{AccessToken: "access-1", RefreshToken: "refresh-1"})
	_ = session.SetUser(user.Profile{ID: "u1"})

	metrics := NewMetrics(prometheus.NewRegistry())
	opts = append([]Option{WithMetrics(metrics)}, opts...)
	return NewClient(srv.URL, session, core.NopLogger, opts...), session, metrics
}

func TestClient_Menus(t *testing.T) {
	api := &fakeAPI{validToken: "access-1", menus: menusBody}
	client, _, metrics := newTestClient(t, api)

	items, err := client.Menus(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	// sorted: C (1), A (2), B (2)
	assert.Equal(t, []string{"3", "2", "1"}, []string{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, []string{"Bearer access-1"}, api.authHeaders)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.(*Counter).vec.WithLabelValues(menusPath, outcomeOK)))
}

func TestClient_Menus_refreshSucceeds(t *testing.T) {
	api := &fakeAPI{validToken: "rotated", refreshOK: true, menus: menusBody}
	client, session, _ := newTestClient(t, api)

	items, err := client.Menus(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 3, "the retried call populates the list")
	assert.EqualValues(t, 2, api.menuCalls, "exactly one retry")
	assert.EqualValues(t, 1, api.refreshCalls)
	assert.Equal(t, []string{"Bearer access-1", "Bearer access-2"}, api.authHeaders)
	assert.Equal(t, "access-2", session.AccessToken())
	assert.Equal(t, "refresh-2", session.RefreshToken())
}

func TestClient_Menus_refreshFails(t *testing.T) {
	api := &fakeAPI{validToken: "rotated", refreshOK: false, menus: menusBody}
	client, session, metrics := newTestClient(t, api)

	items, err := client.Menus(context.Background())
	assert.Equal(t, ErrUnauthorized, err)
	assert.Nil(t, items)
	assert.EqualValues(t, 1, api.menuCalls, "no retry without a new token")
	assert.EqualValues(t, 1, api.refreshCalls)

	assert.False(t, session.Authenticated())
	assert.Empty(t, session.RefreshToken())
	_, ok := session.User()
	assert.False(t, ok, "profile cleared with the tokens")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Refreshes.(*Counter).vec.WithLabelValues(outcomeFailed)))
}

func TestClient_Menus_stillUnauthorizedAfterRefresh(t *testing.T) {
	api := &fakeAPI{validToken: "never", refreshOK: true, keepToken: true, menus: menusBody}
	client, session, _ := newTestClient(t, api)

	_, err := client.Menus(context.Background())
	assert.Equal(t, ErrUnauthorized, err)
	assert.EqualValues(t, 2, api.menuCalls)
	assert.False(t, session.Authenticated())
}

func TestClient_Menus_concurrentRefresh(t *testing.T) {
	api := &fakeAPI{validToken: "rotated", refreshOK: true, menus: menusBody}
	client, _, _ := newTestClient(t, api)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Menus(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, api.refreshCalls, "a single refresh for concurrent 401s")
}

func TestClient_Menus_malformed(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "object", body: `{"data":[]}`},
		{name: "null", body: `null`},
		{name: "empty", body: ``},
		{name: "invalid json", body: `[{"id":`, wantErr: true},
		{name: "invalid json object", body: `{"data":`, wantErr: true},
		{name: "only bad elements", body: `[{"id":1},null,"x"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{validToken: "access-1", menus: tt.body}
			client, _, _ := newTestClient(t, api)

			items, err := client.Menus(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, items)
			assert.Empty(t, items)
		})
	}
}

func TestClient_Menus_skipsBadRecords(t *testing.T) {
	body := `[
		{"id":"1","displayName":"Dashboard","route":"/dashboard","sortOrder":1},
		{"id":2,"displayName":"Numeric id"},
		{"id":"3","displayName":"Float order","sortOrder":2.5},
		{"id":"4","displayName":"Grades","route":"/grades","sortOrder":0}
	]`
	api := &fakeAPI{validToken: "access-1", menus: body}
	client, _, _ := newTestClient(t, api)

	items, err := client.Menus(context.Background())
	require.NoError(t, err)
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"4", "1"}, ids)
}

func TestClient_Menus_apiError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, NewSession(nil), core.NopLogger)
	_, err := client.Menus(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "error = %v", err)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "API error: 500 - boom", apiErr.Error())
}

func TestClient_Menus_timeout(t *testing.T) {
	api := &fakeAPI{validToken: "access-1", menus: menusBody, delay: 200 * time.Millisecond}
	client, session, _ := newTestClient(t, api, WithTimeout(20*time.Millisecond))

	_, err := client.Menus(context.Background())
	assert.Equal(t, ErrTimeout, err)
	assert.True(t, session.Authenticated(), "timeouts keep the session")

	// a cancelled caller is not a timeout
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Menus(ctx)
	assert.Error(t, err)
	assert.NotEqual(t, ErrTimeout, err)
}

func TestClient_Login(t *testing.T) {
	api := &fakeAPI{}
	client, session, _ := newTestClient(t, api)
	session.Clear()

	profile, err := client.Login(context.Background(), "jane", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jane", profile.Username)
	assert.Equal(t, "access-1", session.AccessToken())
	assert.Equal(t, "refresh-1", session.RefreshToken())
	stored, ok := session.User()
	require.True(t, ok)
	assert.Equal(t, []string{user.RoleAdmin}, stored.Roles)

	client.Logout()
	assert.False(t, session.Authenticated())
}
