package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Rrens/teamhub/internal/api"
	"github.com/Rrens/teamhub/internal/config"
	"github.com/Rrens/teamhub/internal/repository/memory"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Detail  string          `json:"detail"`
	Error   struct {
		Code        string `json:"code"`
		FieldErrors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"field_errors"`
	} `json:"error"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	clock   *clockwork.FakeClock
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Debug: true},
		Auth: config.AuthConfig{
			SecretKey:                "test-secret",
			TokenExpiredAfterSeconds: 3600,
			APIKeyEmailDomain:        "apikey.local",
			PasswordMinLength:        8,
		},
	}
}

func newTestServer(t *testing.T, deps api.Deps) *testServer {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	deps.Store = memory.NewStore()
	deps.Clock = clock
	return &testServer{t: t, handler: api.NewRouter(testConfig(), deps), clock: clock}
}

// call sends a request with auth as the raw Authorization header
func (s *testServer) call(method, path, auth string, body any) (int, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (s *testServer) data(env envelope, dst any) {
	s.t.Helper()
	require.NoError(s.t, json.Unmarshal(env.Data, dst))
}

func (s *testServer) signup(username string) string {
	s.t.Helper()
	status, env := s.call(http.MethodPost, "/users", "", map[string]string{
		"username":   username,
		"password":   "s3cure-pass",
		"password2":  "s3cure-pass",
		"email":      username + "@example.com",
		"first_name": username,
		"last_name":  "Test",
	})
	require.Equal(s.t, http.StatusCreated, status, env.Detail)

	status, env = s.call(http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": "s3cure-pass",
	})
	require.Equal(s.t, http.StatusOK, status, env.Detail)

	var login struct {
		Token string `json:"token"`
	}
	s.data(env, &login)
	return "Token " + login.Token
}

type page struct {
	Count   int               `json:"count"`
	Results []json.RawMessage `json:"results"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, api.Deps{})

	status, env := s.call(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	status, _ = s.call(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRegistrationAndLogin(t *testing.T) {
	s := newTestServer(t, api.Deps{})

	status, env := s.call(http.MethodPost, "/users", "", map[string]string{
		"username": "alice", "password": "s3cure-pass", "password2": "other-pass",
		"email": "alice@example.com", "first_name": "A", "last_name": "L",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Password fields didn't match.", env.Detail)

	status, env = s.call(http.MethodPost, "/users", "", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, status)
	fields := map[string]bool{}
	for _, fe := range env.Error.FieldErrors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["password"])
	assert.True(t, fields["email"])
	assert.True(t, fields["first_name"])

	token := s.signup("alice")
	assert.NotEmpty(t, token)

	status, env = s.call(http.MethodPost, "/users", "", map[string]string{
		"username": "alice2", "password": "s3cure-pass", "password2": "s3cure-pass",
		"email": "alice@example.com", "first_name": "A", "last_name": "L",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "user with this email already exists.", env.Detail)

	status, env = s.call(http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Unable to log in with provided credentials.", env.Detail)

	status, env = s.call(http.MethodGet, "/users", token, nil)
	require.Equal(t, http.StatusOK, status)
	var users page
	s.data(env, &users)
	assert.Equal(t, 1, users.Count)

	status, _ = s.call(http.MethodGet, "/users?limit=100000000&offset=0", token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t, api.Deps{})
	token := s.signup("alice")

	status, env := s.call(http.MethodGet, "/teams", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authentication credentials were not provided.", env.Detail)

	status, env = s.call(http.MethodGet, "/teams", "Token 0000", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token.", env.Detail)

	status, _ = s.call(http.MethodGet, "/teams", token, nil)
	assert.Equal(t, http.StatusOK, status)

	s.clock.Advance(time.Hour)
	status, env = s.call(http.MethodGet, "/teams", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has expired", env.Detail)
}

type team struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	Memberships []struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"memberships"`
}

func TestTeamsAndInvitations(t *testing.T) {
	s := newTestServer(t, api.Deps{})
	alice := s.signup("alice")
	bob := s.signup("bob")

	var teams page
	_, env := s.call(http.MethodGet, "/teams", alice, nil)
	s.data(env, &teams)
	assert.Zero(t, teams.Count)

	status, env := s.call(http.MethodPost, "/teams", alice, map[string]string{"name": "ops"})
	require.Equal(t, http.StatusCreated, status, env.Detail)
	var ops team
	s.data(env, &ops)
	require.Len(t, ops.Memberships, 1)
	assert.Equal(t, "ADMIN", ops.Memberships[0].Role)

	_, env = s.call(http.MethodGet, "/teams", alice, nil)
	s.data(env, &teams)
	assert.Equal(t, 1, teams.Count)

	_, env = s.call(http.MethodGet, "/teams/all_teams", bob, nil)
	s.data(env, &teams)
	assert.Equal(t, 1, teams.Count)

	status, _ = s.call(http.MethodGet, "/teams/"+ops.UUID, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = s.call(http.MethodPost, "/invitations", alice, map[string]string{"team": ops.UUID, "email": "bob@example.com"})
	require.Equal(t, http.StatusCreated, status, env.Detail)
	var inv struct {
		UUID       string `json:"uuid"`
		Team       string `json:"team"`
		IsAccepted bool   `json:"is_accepted"`
	}
	s.data(env, &inv)
	assert.Equal(t, ops.UUID, inv.Team)

	var invitations page
	_, env = s.call(http.MethodGet, "/invitations", bob, nil)
	s.data(env, &invitations)
	assert.Equal(t, 1, invitations.Count)

	status, env = s.call(http.MethodGet, "/invitations/"+inv.UUID+"/accept", bob, nil)
	require.Equal(t, http.StatusAccepted, status, env.Detail)
	s.data(env, &inv)
	assert.True(t, inv.IsAccepted)

	status, env = s.call(http.MethodGet, "/invitations/"+inv.UUID+"/accept", bob, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "the invitation link is expired", env.Detail)

	status, env = s.call(http.MethodGet, "/teams/"+ops.UUID, bob, nil)
	require.Equal(t, http.StatusOK, status)
	s.data(env, &ops)
	assert.Len(t, ops.Memberships, 2)

	status, _ = s.call(http.MethodDelete, "/teams/"+ops.UUID, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.call(http.MethodDelete, "/invitations/"+inv.UUID, alice, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = s.call(http.MethodGet, "/invitations/not-a-uuid", alice, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.call(http.MethodGet, "/invitations?is_accepted=maybe", alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestTeamMembers(t *testing.T) {
	s := newTestServer(t, api.Deps{})
	alice := s.signup("alice")
	bob := s.signup("bob")

	_, env := s.call(http.MethodPost, "/teams", alice, map[string]string{"name": "ops"})
	var ops team
	s.data(env, &ops)

	var users struct {
		Results []struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"results"`
	}
	_, env = s.call(http.MethodGet, "/users", alice, nil)
	s.data(env, &users)
	var bobID int64
	for _, u := range users.Results {
		if u.Username == "bob" {
			bobID = u.ID
		}
	}
	require.NotZero(t, bobID)

	status, env := s.call(http.MethodPost, "/teams/"+ops.UUID+"/user_add", alice, map[string]any{"users": []int64{bobID}})
	require.Equal(t, http.StatusOK, status, env.Detail)
	s.data(env, &ops)
	assert.Len(t, ops.Memberships, 2)

	status, env = s.call(http.MethodPost, "/teams/"+ops.UUID+"/user_add", alice, map[string]any{"users": []int64{bobID}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "The user is already in the team", env.Detail)

	status, _ = s.call(http.MethodPost, "/teams/"+ops.UUID+"/user_remove", bob, map[string]any{"users": []int64{bobID}})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.call(http.MethodPost, "/teams/"+ops.UUID+"/user_remove", alice, map[string]any{"users": []int64{bobID}})
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.call(http.MethodGet, "/teams/"+ops.UUID, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestJoinRequests(t *testing.T) {
	s := newTestServer(t, api.Deps{})
	alice := s.signup("alice")
	bob := s.signup("bob")

	_, env := s.call(http.MethodPost, "/teams", alice, map[string]string{"name": "ops"})
	var ops team
	s.data(env, &ops)

	status, env := s.call(http.MethodPost, "/join_requests", bob, map[string]string{"team": ops.UUID, "email": "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid email address", env.Detail)

	status, env = s.call(http.MethodPost, "/join_requests", bob, map[string]string{"team": ops.UUID, "email": "bob@example.com"})
	require.Equal(t, http.StatusCreated, status, env.Detail)
	var req struct {
		UUID string `json:"uuid"`
	}
	s.data(env, &req)

	var requests page
	_, env = s.call(http.MethodGet, "/join_requests", bob, nil)
	s.data(env, &requests)
	assert.Equal(t, 1, requests.Count)

	status, _ = s.call(http.MethodGet, "/invitations/"+req.UUID+"/accept", alice, nil)
	assert.Equal(t, http.StatusAccepted, status)

	status, _ = s.call(http.MethodGet, "/teams/"+ops.UUID, bob, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAPIKeys(t *testing.T) {
	s := newTestServer(t, api.Deps{})
	alice := s.signup("alice")

	_, env := s.call(http.MethodPost, "/teams", alice, map[string]string{"name": "ops"})
	var ops team
	s.data(env, &ops)

	status, env := s.call(http.MethodPost, "/apikeys", alice, map[string]string{"name": "ci", "team": ops.UUID})
	require.Equal(t, http.StatusCreated, status, env.Detail)
	var key struct {
		UUID string `json:"uuid"`
		Key  string `json:"key"`
		Team string `json:"team"`
	}
	s.data(env, &key)
	require.NotEmpty(t, key.Key)
	assert.Equal(t, ops.UUID, key.Team)
	plaintext := "Api-Key " + key.Key

	status, env = s.call(http.MethodPost, "/apikeys", alice, map[string]string{"name": "ci", "team": ops.UUID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "The fields name, team must make a unique set.", env.Detail)

	var teams page
	status, env = s.call(http.MethodGet, "/teams", plaintext, nil)
	require.Equal(t, http.StatusOK, status, env.Detail)
	s.data(env, &teams)
	assert.Equal(t, 1, teams.Count)

	status, env = s.call(http.MethodGet, "/apikeys/"+key.UUID, alice, nil)
	require.Equal(t, http.StatusOK, status)
	var stored map[string]any
	s.data(env, &stored)
	assert.NotContains(t, stored, "key")
	assert.Equal(t, ops.UUID, stored["team"])

	status, _ = s.call(http.MethodDelete, "/apikeys/"+key.UUID, alice, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, env = s.call(http.MethodGet, "/teams", plaintext, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid API key.", env.Detail)
}

func TestResources(t *testing.T) {
	s := newTestServer(t, api.Deps{})
	alice := s.signup("alice")
	bob := s.signup("bob")

	_, env := s.call(http.MethodPost, "/teams", alice, map[string]string{"name": "ops"})
	var ops team
	s.data(env, &ops)

	status, _ := s.call(http.MethodPost, "/resources", bob, map[string]string{"team": ops.UUID, "name": "db", "kind": "postgres"})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = s.call(http.MethodPost, "/resources", alice, map[string]string{"team": ops.UUID, "name": "db", "kind": "postgres"})
	require.Equal(t, http.StatusCreated, status, env.Detail)
	var res struct {
		UUID         string `json:"uuid"`
		Name         string `json:"name"`
		State        string `json:"state"`
		RuntimeState string `json:"runtime_state"`
		BackendID    string `json:"backend_id"`
	}
	s.data(env, &res)
	assert.Equal(t, "OK", res.State)
	assert.Equal(t, "IN_SERVICE", res.RuntimeState)
	assert.NotEmpty(t, res.BackendID)

	var resources page
	_, env = s.call(http.MethodGet, "/resources?state=OK", alice, nil)
	s.data(env, &resources)
	assert.Equal(t, 1, resources.Count)

	_, env = s.call(http.MethodGet, "/resources?state=ERRED", alice, nil)
	s.data(env, &resources)
	assert.Zero(t, resources.Count)

	status, _ = s.call(http.MethodGet, "/resources?state=broken", alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.call(http.MethodPost, "/resources/"+res.UUID+"/recover", alice, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, env.Detail, "recover")

	status, env = s.call(http.MethodPatch, "/resources/"+res.UUID, alice, map[string]string{"name": "primary"})
	require.Equal(t, http.StatusOK, status, env.Detail)
	s.data(env, &res)
	assert.Equal(t, "primary", res.Name)

	status, _ = s.call(http.MethodGet, "/resources/"+res.UUID, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = s.call(http.MethodDelete, "/resources/"+res.UUID, alice, nil)
	require.Equal(t, http.StatusAccepted, status)
	var detail map[string]string
	s.data(env, &detail)
	assert.Equal(t, "Deletion was scheduled.", detail["detail"])

	status, _ = s.call(http.MethodGet, "/resources/"+res.UUID, alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, int, time.Time, error) {
	return false, 0, time.Now().Add(time.Minute), nil
}

func TestLoginThrottle(t *testing.T) {
	s := newTestServer(t, api.Deps{LoginLimiter: denyAll{}})

	status, _ := s.call(http.MethodPost, "/auth/login", "", map[string]string{"username": "a", "password": "b"})
	assert.Equal(t, http.StatusTooManyRequests, status)

	status, _ = s.call(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
}
