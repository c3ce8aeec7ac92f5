package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/focuswin/core/internal/adapters/repository/gormrepo"
	"github.com/focuswin/core/internal/infrastructure/config"
	"github.com/focuswin/core/internal/infrastructure/logger"
	"github.com/focuswin/core/internal/ports"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []ports.Notification
}

func (d *recordingDispatcher) Send(_ context.Context, n ports.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "FocusWin", Version: "test", Environment: "test"},
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"},
		JWT:      config.JWTConfig{Secret: "test-secret", ExpiresIn: time.Hour, Issuer: "focuswin-test"},
		Session:  config.SessionConfig{Name: "focuswin_session", Secret: "session-secret-for-tests", MaxAge: 3600},
		Security: config.SecurityConfig{CORSAllowedOrigins: "http://localhost:3000"},
		Metrics:  config.MetricsConfig{Enabled: true},
	}
}

type testAPI struct {
	t          *testing.T
	server     *Server
	dispatcher *recordingDispatcher
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := gormrepo.Open(":memory:", logger.NewNop())
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	dispatcher := &recordingDispatcher{}
	srv, err := New(testConfig(), Dependencies{Store: gormrepo.NewStore(db), Dispatcher: dispatcher}, logger.NewNop())
	if err != nil {
		t.Fatalf("failed to build server: %v", err)
	}

	return &testAPI{t: t, server: srv, dispatcher: dispatcher}
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func (a *testAPI) signup(email string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Test", "email": email, "password": "hunter22",
	})
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("signup: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(a.t, rec, &resp)
	return resp.Token
}

type taskBody struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Group       string     `json:"group"`
	Completed   bool       `json:"completed"`
	Importance  int        `json:"importance"`
	CompletedAt *time.Time `json:"completedAt"`
}

type errorPayload struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

func TestExampleFlow(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("ada@example.com")

	rec := api.do(http.MethodPost, "/api/groups", token, map[string]string{"name": "Work"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create group: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var group struct {
		ID string `json:"id"`
	}
	decode(t, rec, &group)

	rec = api.do(http.MethodPost, "/api/tasks", token, map[string]interface{}{"title": "Report", "group": group.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var task taskBody
	decode(t, rec, &task)
	if task.Importance != 5 || task.Completed || task.CompletedAt != nil {
		t.Fatalf("unexpected new task %+v", task)
	}

	rec = api.do(http.MethodPut, "/api/tasks/"+task.ID, token, map[string]interface{}{"completed": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete task: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &task)
	if !task.Completed || task.CompletedAt == nil || task.Title != "Report" {
		t.Fatalf("unexpected completed task %+v", task)
	}

	rec = api.do(http.MethodDelete, "/api/groups/"+group.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete group: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var deletion struct {
		TasksUnassigned int64 `json:"tasksUnassigned"`
	}
	decode(t, rec, &deletion)
	if deletion.TasksUnassigned != 1 {
		t.Fatalf("expected 1 task unassigned, got %d", deletion.TasksUnassigned)
	}

	rec = api.do(http.MethodGet, "/api/tasks", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list tasks: expected 200, got %d", rec.Code)
	}
	var tasks []taskBody
	decode(t, rec, &tasks)
	if len(tasks) != 1 || tasks[0].Group != "" || !tasks[0].Completed {
		t.Fatalf("expected the task kept without group, got %+v", tasks)
	}

	rec = api.do(http.MethodGet, "/api/groups", token, nil)
	var groups []json.RawMessage
	decode(t, rec, &groups)
	if len(groups) != 0 {
		t.Fatalf("expected no groups left, got %d", len(groups))
	}
}

func TestAuthenticationRequired(t *testing.T) {
	api := newTestAPI(t)

	for _, token := range []string{"", "not-a-token"} {
		rec := api.do(http.MethodGet, "/api/tasks", token, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("token %q: expected 401, got %d", token, rec.Code)
		}
		var body errorPayload
		decode(t, rec, &body)
		if body.Code != "authentication_required" {
			t.Fatalf("expected authentication_required, got %q", body.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("userId", "00000000-0000-0000-0000-000000000001")
	rec := httptest.NewRecorder()
	api.server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("a raw user id header must not authenticate, got %d", rec.Code)
	}
}

func TestSessionCookieLogin(t *testing.T) {
	api := newTestAPI(t)
	api.signup("ada@example.com")

	rec := api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "hunter22"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password material leaked: %s", rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected a session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	me := httptest.NewRecorder()
	api.server.Handler().ServeHTTP(me, req)
	if me.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", me.Code, me.Body.String())
	}
	var user struct {
		Email string `json:"email"`
	}
	decode(t, me, &user)
	if user.Email != "ada@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}

	rec = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", rec.Code)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	api := newTestAPI(t)
	api.signup("ada@example.com")

	rec := api.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Again", "email": "ada@example.com", "password": "hunter22",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestOwnerIsolation(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup("alice@example.com")
	bob := api.signup("bob@example.com")

	rec := api.do(http.MethodPost, "/api/tasks", alice, map[string]interface{}{"title": "private"})
	var task taskBody
	decode(t, rec, &task)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec := api.do(method, "/api/tasks/"+task.ID, bob, map[string]interface{}{"title": "mine now"})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", method, rec.Code)
		}
	}

	rec = api.do(http.MethodGet, "/api/tasks", bob, nil)
	var tasks []taskBody
	decode(t, rec, &tasks)
	if len(tasks) != 0 {
		t.Fatalf("expected bob to see no tasks, got %d", len(tasks))
	}

	rec = api.do(http.MethodGet, "/api/tasks/not-a-uuid", alice, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("malformed id: expected 404, got %d", rec.Code)
	}
}

func TestGroupNameConflict(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup("alice@example.com")
	bob := api.signup("bob@example.com")

	if rec := api.do(http.MethodPost, "/api/groups", alice, map[string]string{"name": "Work"}); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	rec := api.do(http.MethodPost, "/api/groups", alice, map[string]string{"name": "Work"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var body errorPayload
	decode(t, rec, &body)
	if body.Code != "conflict" || body.Message != "you already have a group with this name" {
		t.Fatalf("unexpected error body %+v", body)
	}
	if rec := api.do(http.MethodPost, "/api/groups", bob, map[string]string{"name": "Work"}); rec.Code != http.StatusCreated {
		t.Fatalf("expected another user to reuse the name, got %d", rec.Code)
	}
}

func TestTaskValidation(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("ada@example.com")

	cases := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{"missing title", map[string]interface{}{"importance": 3}, "title"},
		{"importance too low", map[string]interface{}{"title": "x", "importance": 0}, "importance"},
		{"importance too high", map[string]interface{}{"title": "x", "importance": 11}, "importance"},
		{"unknown recurrence", map[string]interface{}{"title": "x", "recurrence": map[string]string{"type": "yearly"}}, "recurrence.type"},
		{"malformed body", map[string]interface{}{"title": 5}, "body"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := api.do(http.MethodPost, "/api/tasks", token, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			var body errorPayload
			decode(t, rec, &body)
			if body.Code != "validation_failed" {
				t.Fatalf("expected validation_failed, got %q", body.Code)
			}
			if _, ok := body.Fields[tc.field]; !ok {
				t.Fatalf("expected field %q in %v", tc.field, body.Fields)
			}
		})
	}

	rec := api.do(http.MethodPost, "/api/tasks", token, map[string]interface{}{"title": "edge", "importance": 10})
	if rec.Code != http.StatusCreated {
		t.Fatalf("importance 10: expected 201, got %d", rec.Code)
	}
}

func TestNotificationQueued(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("ada@example.com")

	rec := api.do(http.MethodPost, "/api/notifications/email", token, map[string]string{
		"taskTitle": "Report",
		"dueDate":   "2024-06-01T12:00:00Z",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := api.server.Shutdown(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	api.dispatcher.mu.Lock()
	defer api.dispatcher.mu.Unlock()
	if len(api.dispatcher.sent) != 1 || api.dispatcher.sent[0].RecipientEmail != "ada@example.com" {
		t.Fatalf("unexpected notifications %+v", api.dispatcher.sent)
	}

	rec = api.do(http.MethodPost, "/api/notifications/email", token, map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing title: expected 400, got %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/health", "/ready", "/health/detailed"} {
		if rec := api.do(http.MethodGet, path, "", nil); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	api.signup("ada@example.com")

	rec := api.do(http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `focuswin_auth_attempts_total{kind="signup",result="success"} 1`) {
		t.Fatalf("expected signup counter in metrics output")
	}
}
