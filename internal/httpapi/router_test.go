package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"classattend/internal/account"
	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/httpmiddleware"
	"classattend/internal/metrics"
	"classattend/internal/roster"
	"classattend/internal/store/storetest"
)

type fixture struct {
	router   *gin.Engine
	tokens   *auth.Tokens
	students map[string]int64
	teacher  auth.Principal
	parent   auth.Principal
	student  auth.Principal
}

func strptr(s string) *string { return &s }

func newFixture(t *testing.T, loginLimiter httpmiddleware.Limiter) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db := storetest.New(t)
	storetest.SeedClasses(t, db, "1-A", "1-B")
	students := map[string]int64{
		"alice": storetest.SeedStudent(t, db, "Alice", 1, "1-A"),
		"bob":   storetest.SeedStudent(t, db, "Bob", 2, "1-A"),
		"carol": storetest.SeedStudent(t, db, "Carol", 1, "1-B"),
	}

	users := account.NewRepository(db.Client)
	create := func(name string, role account.Role, phone, regNo *string, pw string) auth.Principal {
		hash, err := auth.HashPasswordCost(pw, bcrypt.MinCost)
		if err != nil {
			t.Fatal(err)
		}
		id, err := users.Create(ctx, account.User{Name: name, Role: role, Phone: phone, RegistrationNumber: regNo, PasswordHash: hash})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		return auth.Principal{UserID: id, Role: role, Name: name}
	}

	f := &fixture{students: students}
	f.teacher = create("Ms. Rao", account.RoleTeacher, strptr("9000000001"), nil, "teach123")
	f.parent = create("Mr. Shah", account.RoleParent, strptr("9000000002"), nil, "parent123")
	f.student = create("Alice", account.RoleStudent, nil, strptr("GR-001"), "student123")

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	f.tokens = auth.NewTokens("test-key", "classattend-test", time.Hour)
	rosterSvc := roster.NewService(roster.NewRepository(db.Client))

	f.router = NewRouter(Deps{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		DB:           db,
		Auth:         auth.NewService(users, f.tokens, nil),
		Gate:         auth.NewGate(f.tokens),
		Roster:       rosterSvc,
		Attendance:   attendance.NewService(attendance.NewRepository(db), rosterSvc, collector),
		Metrics:      collector,
		Gatherer:     reg,
		LoginLimiter: loginLimiter,
	})
	return f
}

func (f *fixture) token(t *testing.T, p auth.Principal) string {
	t.Helper()
	tok, _, err := f.tokens.Issue(p)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok
}

func (f *fixture) do(t *testing.T, method, path, authz string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestLogin_IssuesTokenUsableByGate(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name     string
		body     map[string]string
		wantRole string
	}{
		{"phone, general", map[string]string{"identifier": "9000000001", "password": "teach123", "type": "general"}, "teacher"},
		{"registration number", map[string]string{"identifier": "GR-001", "password": "student123", "type": "registration_number"}, "student"},
		{"legacy gr kind", map[string]string{"identifier": "GR-001", "password": "student123", "type": "gr"}, "student"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/auth/login", "", tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
			}
			session := decode[map[string]any](t, w)
			if session["role"] != tt.wantRole {
				t.Errorf("role = %v, want %s", session["role"], tt.wantRole)
			}

			me := f.do(t, http.MethodGet, "/api/me", "Bearer "+session["token"].(string), nil)
			if me.Code != http.StatusOK {
				t.Fatalf("me status = %d", me.Code)
			}
			if got := decode[map[string]any](t, me)["role"]; got != tt.wantRole {
				t.Errorf("me role = %v, want %s", got, tt.wantRole)
			}
		})
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t, nil)

	bodies := []any{
		map[string]string{"identifier": "9000000001", "password": "wrong"},
		map[string]string{"identifier": "no-such-user", "password": "teach123"},
		map[string]string{"identifier": "9000000001", "password": "teach123", "type": "registration_number"},
		map[string]string{},
	}
	for _, body := range bodies {
		w := f.do(t, http.MethodPost, "/api/auth/login", "", body)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%v: status = %d, want 401", body, w.Code)
		}
		if got := decode[map[string]string](t, w)["error"]; got != "invalid credentials" {
			t.Errorf("%v: error = %q", body, got)
		}
	}

	if w := f.do(t, http.MethodPost, "/api/auth/login", "", "{not json"); w.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", w.Code)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	f := newFixture(t, httpmiddleware.NewMemoryLimiter(2))
	body := map[string]string{"identifier": "9000000001", "password": "wrong"}

	for i := 0; i < 2; i++ {
		if w := f.do(t, http.MethodPost, "/api/auth/login", "", body); w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d", i+1, w.Code)
		}
	}
	if w := f.do(t, http.MethodPost, "/api/auth/login", "", body); w.Code != http.StatusTooManyRequests {
		t.Fatalf("third attempt status = %d, want 429", w.Code)
	}
}

func TestGate_HeaderErrors(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name    string
		header  string
		wantErr string
	}{
		{"absent", "", "missing token"},
		{"no scheme", "abc.def.ghi", "malformed token"},
		{"extra part", "Bearer a b", "malformed token"},
		{"garbage token", "Bearer not-a-jwt", "invalid or expired token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodGet, "/api/classes", tt.header, nil)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			if got := decode[map[string]string](t, w)["error"]; got != tt.wantErr {
				t.Errorf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestGate_ExpiredToken(t *testing.T) {
	f := newFixture(t, nil)
	past := f.tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	tok, _, err := past.Issue(f.teacher)
	if err != nil {
		t.Fatal(err)
	}
	if w := f.do(t, http.MethodGet, "/api/classes", "Bearer "+tok, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRoleEnforcement(t *testing.T) {
	f := newFixture(t, nil)
	record := map[string]any{
		"date":       "2024-03-01",
		"class_name": "1-A",
		"records":    []map[string]any{{"student_id": f.students["alice"], "status": "present"}},
	}

	tests := []struct {
		name   string
		who    auth.Principal
		method string
		path   string
		body   any
		want   int
	}{
		{"parent records", f.parent, http.MethodPost, "/api/attendance", record, http.StatusForbidden},
		{"student records", f.student, http.MethodPost, "/api/attendance", record, http.StatusForbidden},
		{"teacher records", f.teacher, http.MethodPost, "/api/attendance", record, http.StatusOK},
		{"parent reads report", f.parent, http.MethodGet, "/api/reports/class/1-A", nil, http.StatusOK},
		{"student reads report", f.student, http.MethodGet, "/api/reports/class/1-A", nil, http.StatusForbidden},
		{"student lists attendance", f.student, http.MethodGet, "/api/attendance?class=1-A", nil, http.StatusOK},
		{"parent adds student", f.parent, http.MethodPost, "/api/students", map[string]any{"name": "Zed", "roll": 9, "class_name": "1-A"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.path, f.token(t, tt.who), tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAttendanceFlow(t *testing.T) {
	f := newFixture(t, nil)
	teacher := f.token(t, f.teacher)
	alice, bob := f.students["alice"], f.students["bob"]

	day := func(date string, aliceStatus, bobStatus string) map[string]any {
		return map[string]any{
			"date":       date,
			"class_name": "1-A",
			"records": []map[string]any{
				{"student_id": alice, "status": aliceStatus},
				{"student_id": bob, "status": bobStatus},
			},
		}
	}
	for _, body := range []map[string]any{
		day("2024-03-01", "present", "absent"),
		day("2024-03-01", "present", "absent"),
		day("2024-03-02", "present", "present"),
	} {
		if w := f.do(t, http.MethodPost, "/api/attendance", teacher, body); w.Code != http.StatusOK {
			t.Fatalf("record status = %d, body %s", w.Code, w.Body.String())
		}
	}

	rows := decode[[]attendance.Row](t, f.do(t, http.MethodGet, "/api/attendance?date=2024-03-01&class=1-A", teacher, nil))
	if len(rows) != 2 {
		t.Fatalf("rows for 2024-03-01 = %d, want 2 after resubmission", len(rows))
	}
	if rows[0].StudentName == nil || *rows[0].StudentName != "Alice" {
		t.Errorf("first row should be Alice (roll 1), got %+v", rows[0])
	}

	report := decode[attendance.Report](t, f.do(t, http.MethodGet, "/api/reports/class/1-A", f.token(t, f.parent), nil))
	want := map[string][2]int{"Alice": {2, 0}, "Bob": {1, 1}}
	if len(report.Students) != 2 {
		t.Fatalf("report students = %d, want 2", len(report.Students))
	}
	for _, s := range report.Students {
		if got := [2]int{s.Present, s.Absent}; got != want[s.Name] {
			t.Errorf("%s = %v, want %v", s.Name, got, want[s.Name])
		}
	}
}

func TestRecordAttendance_BadRequests(t *testing.T) {
	f := newFixture(t, nil)
	teacher := f.token(t, f.teacher)
	alice := f.students["alice"]

	tests := []struct {
		name string
		body any
	}{
		{"impossible date", map[string]any{"date": "2024-02-30", "class_name": "1-A", "records": []any{}}},
		{"missing class", map[string]any{"date": "2024-03-01", "records": []any{}}},
		{"unknown class", map[string]any{"date": "2024-03-01", "class_name": "9-Z", "records": []any{}}},
		{"late status", map[string]any{"date": "2024-03-01", "class_name": "1-A", "records": []map[string]any{{"student_id": alice, "status": "late"}}}},
		{"zero student", map[string]any{"date": "2024-03-01", "class_name": "1-A", "records": []map[string]any{{"student_id": 0, "status": "present"}}}},
		{"missing records", map[string]any{"date": "2024-03-01", "class_name": "1-A"}},
		{"not json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := f.do(t, http.MethodPost, "/api/attendance", teacher, tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
			}
		})
	}
}

func TestRoster(t *testing.T) {
	f := newFixture(t, nil)
	teacher := f.token(t, f.teacher)

	classes := decode[[]string](t, f.do(t, http.MethodGet, "/api/classes", teacher, nil))
	if len(classes) != 2 || classes[0] != "1-A" {
		t.Errorf("classes = %v", classes)
	}

	w := f.do(t, http.MethodPost, "/api/students", teacher, map[string]any{"name": "Dan", "roll": 3, "class_name": "1-B"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	if w := f.do(t, http.MethodPost, "/api/students", teacher, map[string]any{"name": "Eve", "roll": 4, "class_name": "nope"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown class status = %d, want 400", w.Code)
	}

	students := decode[[]roster.Student](t, f.do(t, http.MethodGet, "/api/students?class=1-B", teacher, nil))
	if len(students) != 2 {
		t.Errorf("1-B students = %d, want 2", len(students))
	}
	all := decode[[]roster.Student](t, f.do(t, http.MethodGet, "/api/students?class=all", teacher, nil))
	if len(all) != 4 {
		t.Errorf("all students = %d, want 4", len(all))
	}
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", w.Code)
	}
	health := decode[map[string]any](t, w)
	if health["db"] != true || health["redis"] != "disabled" {
		t.Errorf("health = %v", health)
	}

	f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"identifier": "x", "password": "y"})
	w = f.do(t, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `classattend_logins_total{outcome="invalid"} 1`) {
		t.Errorf("login counter missing from metrics output")
	}
}
