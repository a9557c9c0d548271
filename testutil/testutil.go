// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/danielhkuo/council-vote/auth"
	"github.com/danielhkuo/council-vote/cliparse"
	"github.com/danielhkuo/council-vote/db"
	"github.com/danielhkuo/council-vote/models"
	"github.com/danielhkuo/council-vote/tally"
	"github.com/danielhkuo/council-vote/voting"
)

// SetupTestDB creates a fresh sqlite database file with the full schema
func SetupTestDB(t *testing.T) tally.Store {
	t.Helper()

	conn, err := db.Open(models.StoreSQLite, "file:"+filepath.Join(t.TempDir(), "council-vote.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	store := tally.NewSQLStore(conn, models.StoreSQLite)
	t.Cleanup(func() { store.Close() })
	return store
}

// SetupTestRedis starts an in-process redis server and returns a store on it
func SetupTestRedis(t *testing.T) tally.Store {
	t.Helper()

	mr := miniredis.RunT(t)
	store := tally.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { store.Close() })
	return store
}

// EachStore runs fn once per store backend, as a subtest named after it
func EachStore(t *testing.T, fn func(t *testing.T, store tally.Store)) {
	t.Helper()

	backends := []struct {
		name string
		open func(t *testing.T) tally.Store
	}{
		{models.StoreMemory, func(t *testing.T) tally.Store { return tally.NewMemoryStore() }},
		{models.StoreSQLite, SetupTestDB},
		{models.StoreRedis, SetupTestRedis},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.open(t))
		})
	}
}

// GetTestConfig returns a standard test configuration with the reference election
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseType:   models.StoreSQLite,
		IdentitySalt:   "test-identity-salt",
		RabbitMQQueue:  "votes",
		Election:       TestElection(),
		ReportEncoding: models.EncodingDecimal,
	}
}

// TestElection returns the reference roster with a cap of 20
func TestElection() models.Election {
	roster, err := models.ParseRoster(models.DefaultCandidates)
	if err != nil {
		panic(err)
	}
	return models.Election{Roster: roster, MaxVotes: models.DefaultMaxVotes}
}

// NewTestMachine creates and initializes a machine over store
func NewTestMachine(t *testing.T, store tally.Store, election models.Election) *voting.Machine {
	t.Helper()

	machine := voting.NewMachine(store, election)
	if err := machine.Initialize(context.Background()); err != nil {
		t.Fatalf("Failed to initialize machine: %v", err)
	}
	return machine
}

// CreateTestVoter issues a signed voter token for identity
func CreateTestVoter(cfg cliparse.Config, identity string) string {
	return auth.IssueVoterToken(identity, cfg.IdentitySalt)
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
