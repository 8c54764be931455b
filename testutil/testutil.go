// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/armonia/auth"
	"github.com/danielhkuo/armonia/cliparse"
	"github.com/danielhkuo/armonia/db"
	"github.com/danielhkuo/armonia/models"
)

// TestTenant is the default tenant for fixtures
const TestTenant = "tenant-test"

// SetupTestDB creates a fresh SQLite database file with the full schema.
// The connection is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, TestDBURL(t))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(conn, db.TypeSQLite); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return conn
}

// TestDBURL returns a DSN for a database file inside the test's temp dir
func TestDBURL(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "armonia_test.db")
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", path)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:                   3318,
		DatabaseType:           db.TypeSQLite,
		JWTSecret:              "test-jwt-secret",
		IPHashSalt:             "test-ip-salt",
		Env:                    "test",
		MetricsEnabled:         true,
		PreserveOriginalWeight: true,
	}
}

// Now is a fixture timestamp at database precision
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func Coefficient(v float64) *float64 {
	return &v
}

// CreateTestProperty creates a property and returns its ID
func CreateTestProperty(t *testing.T, conn *sql.DB, tenantID string) string {
	t.Helper()

	id := auth.GenerateID()
	_, err := conn.Exec(`
		INSERT INTO property (id, tenant_id, name, address, created_at)
		VALUES ($1, $2, 'Conjunto Test', 'Calle 1 # 2-3', $3)
	`, id, tenantID, Now())
	if err != nil {
		t.Fatalf("Failed to create test property: %v", err)
	}
	return id
}

// CreateTestUnit creates a unit with an optional coefficient and returns its ID
func CreateTestUnit(t *testing.T, conn *sql.DB, tenantID, propertyID, name string, coefficient *float64) string {
	t.Helper()

	id := auth.GenerateID()
	_, err := conn.Exec(`
		INSERT INTO unit (id, tenant_id, property_id, name, coefficient, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, tenantID, propertyID, name, coefficient, Now())
	if err != nil {
		t.Fatalf("Failed to create test unit: %v", err)
	}
	return id
}

// CreateTestUser creates a user and returns its ID
func CreateTestUser(t *testing.T, conn *sql.DB, tenantID, firstName string) string {
	t.Helper()

	id := auth.GenerateID()
	_, err := conn.Exec(`
		INSERT INTO app_user (id, tenant_id, first_name, last_name, email, created_at)
		VALUES ($1, $2, $3, 'Test', '', $4)
	`, id, tenantID, firstName, Now())
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return id
}

// AddTestMember links a user to a unit as owner or delegate
func AddTestMember(t *testing.T, conn *sql.DB, unitID, userID, role string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO unit_member (unit_id, user_id, role)
		VALUES ($1, $2, $3)
	`, unitID, userID, role)
	if err != nil {
		t.Fatalf("Failed to add test member: %v", err)
	}
}

// CreateTestAssembly creates an assembly in the given status and returns its ID.
// A nil requiredQuorum uses the default threshold.
func CreateTestAssembly(t *testing.T, conn *sql.DB, tenantID, propertyID, status string, requiredQuorum *float64) string {
	t.Helper()

	id := auth.GenerateID()
	now := Now()

	var startedAt *time.Time
	if status == models.AssemblyInProgress || status == models.AssemblyCompleted {
		startedAt = &now
	}

	_, err := conn.Exec(`
		INSERT INTO assembly (id, tenant_id, property_id, title, description, location, status,
			required_quorum, started_at, conclusions, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, 'Asamblea Ordinaria', 'Test assembly', 'Salón comunal', $4,
			$5, $6, '', 'admin', $7, $7)
	`, id, tenantID, propertyID, status, requiredQuorum, startedAt, now)
	if err != nil {
		t.Fatalf("Failed to create test assembly: %v", err)
	}
	return id
}

// RegisterTestAttendance inserts an attendance row directly
func RegisterTestAttendance(t *testing.T, conn *sql.DB, tenantID, assemblyID, unitID, userID string) string {
	t.Helper()

	id := auth.GenerateID()
	now := Now()
	_, err := conn.Exec(`
		INSERT INTO attendance (id, tenant_id, assembly_id, unit_id, user_id, is_owner, is_delegate, check_in_time, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, FALSE, $6, $6)
	`, id, tenantID, assemblyID, unitID, userID, now)
	if err != nil {
		t.Fatalf("Failed to register test attendance: %v", err)
	}
	return id
}

// CreateTestVote creates an ACTIVE vote with the given options and returns its ID
func CreateTestVote(t *testing.T, conn *sql.DB, tenantID, assemblyID string, weighted bool, options ...string) string {
	t.Helper()

	if len(options) == 0 {
		options = models.DefaultVoteOptions
	}

	id := auth.GenerateID()
	now := Now()
	_, err := conn.Exec(`
		INSERT INTO vote (id, tenant_id, assembly_id, title, description, weighted, status, start_time, created_by, created_at)
		VALUES ($1, $2, $3, 'Aprobación de presupuesto', '', $4, $5, $6, 'admin', $6)
	`, id, tenantID, assemblyID, weighted, models.VoteActive, now)
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}

	for i, label := range options {
		_, err := conn.Exec(`
			INSERT INTO vote_option (vote_id, sort_order, label)
			VALUES ($1, $2, $3)
		`, id, i, label)
		if err != nil {
			t.Fatalf("Failed to create test vote option: %v", err)
		}
	}
	return id
}

// CastTestBallot inserts a ballot with an explicit coefficient
func CastTestBallot(t *testing.T, conn *sql.DB, tenantID, voteID, unitID, userID, option string, coefficient float64) string {
	t.Helper()

	id := auth.GenerateID()
	now := Now()
	_, err := conn.Exec(`
		INSERT INTO ballot (id, tenant_id, vote_id, unit_id, user_id, option_label, coefficient, cast_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, id, tenantID, voteID, unitID, userID, option, coefficient, now)
	if err != nil {
		t.Fatalf("Failed to cast test ballot: %v", err)
	}
	return id
}

// CountRows returns the number of rows in table matching the optional where clause
func CountRows(t *testing.T, conn *sql.DB, table, where string, args ...any) int {
	t.Helper()

	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}

	var n int
	if err := conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

// TestToken issues a bearer token for the principal signed with the test secret
func TestToken(t *testing.T, cfg cliparse.Config, p auth.Principal) string {
	t.Helper()

	token, err := auth.IssueToken(p, cfg.JWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue test token: %v", err)
	}
	return token
}

// AuthHeaders returns request headers carrying a bearer token for the principal
func AuthHeaders(t *testing.T, cfg cliparse.Config, p auth.Principal) map[string]string {
	t.Helper()
	return map[string]string{"Authorization": "Bearer " + TestToken(t, cfg, p)}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
