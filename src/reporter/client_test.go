package reporter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"errorcentral/src/auth"
	"errorcentral/src/database"
	"errorcentral/src/model"
	"errorcentral/src/repository"
	"errorcentral/src/security"
	"errorcentral/src/server"
)

func testConfig(url, token string) Config {
	return Config{
		BaseURL:      url,
		Token:        token,
		Timeout:      5 * time.Second,
		RetryCount:   2,
		RetryWait:    time.Millisecond,
		RetryMaxWait: 5 * time.Millisecond,
	}
}

// newTestServer runs the API over a private sqlite database and returns a token
// for a fresh user.
func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared", database.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	tokens, err := auth.NewManager(security.Config{JWTSecret: "s", TokenTTL: time.Hour})
	require.NoError(t, err)

	users := (&repository.GormUserRepository{}).WithDB(db)
	user, err := users.Save(context.Background(), "agent-bot", "pw")
	require.NoError(t, err)
	token, err := tokens.Issue(time.Now(), user.ID, user.Username)
	require.NoError(t, err)

	srv := httptest.NewServer(server.NewRouter(server.Dependencies{
		Tokens:     tokens,
		Users:      users,
		ErrorLogs:  (&repository.ErrorLogRepository{}).WithDB(db),
		Summaries:  (&repository.SummaryRepository{}).WithDB(db),
		Exceptions: (&repository.AppExceptionRepository{}).WithDB(db),
		Agents:     (&repository.AgentRepository{}).WithDB(db),
		PageSize:   10,
	}))
	t.Cleanup(srv.Close)

	return srv, token
}

func TestReportAgainstServer(t *testing.T) {
	srv, token := newTestServer(t)
	client := NewClient(testConfig(srv.URL+"/", token))
	ctx := context.Background()

	agent, err := client.RegisterAgent(ctx, "http://worker-1")
	require.NoError(t, err)
	assert.NotZero(t, agent.ID)

	first, err := client.Report(ctx, Event{
		AgentID:     agent.ID,
		Title:       "TimeoutException",
		Description: "upstream timed out",
		Level:       model.LevelError,
		Environment: model.EnvironmentProduction,
	})
	require.NoError(t, err)
	require.NotNil(t, first.Exception)
	assert.Equal(t, "TimeoutException", first.Exception.Title)

	second, err := client.Report(ctx, Event{
		AgentID:     agent.ID,
		Title:       "TimeoutException",
		Description: "upstream timed out again",
		Level:       model.LevelWarning,
		Environment: model.EnvironmentProduction,
	})
	require.NoError(t, err)
	assert.Equal(t, first.Exception.ID, second.Exception.ID)
}

func TestReportValidationError(t *testing.T) {
	srv, token := newTestServer(t)
	client := NewClient(testConfig(srv.URL, token))

	_, err := client.Report(context.Background(), Event{
		AgentID:     404,
		Title:       "TimeoutException",
		Description: "x",
		Level:       model.LevelError,
		Environment: model.EnvironmentProduction,
	})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, []string{`Invalid pk "404" - object does not exist.`}, apiErr.Fields["agent"])
}

func TestClientWithoutToken(t *testing.T) {
	srv, _ := newTestServer(t)
	client := NewClient(testConfig(srv.URL, ""))

	_, err := client.RegisterAgent(context.Background(), "http://worker-1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestFindExceptionRetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":1,"next":null,"previous":null,"results":[{"id":3,"title":"IOException"}]}`))
	}))
	defer srv.Close()

	exc, err := NewClient(testConfig(srv.URL, "t")).FindException(context.Background(), "IOException")
	require.NoError(t, err)
	require.NotNil(t, exc)
	assert.Equal(t, uint(3), exc.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestWritesAreNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL, "t")).RegisterAgent(context.Background(), "a")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEnsureExceptionRecoversFromCreateRace(t *testing.T) {
	var lookups int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			if atomic.AddInt32(&lookups, 1) == 1 {
				_, _ = w.Write([]byte(`{"count":0,"next":null,"previous":null,"results":[]}`))
				return
			}
			_, _ = w.Write([]byte(`{"count":1,"next":null,"previous":null,"results":[{"id":8,"title":"IOException"}]}`))
		case http.MethodPost:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"title":["app exception with this title already exists."]}`))
		}
	}))
	defer srv.Close()

	exc, err := NewClient(testConfig(srv.URL, "t")).EnsureException(context.Background(), "IOException")
	require.NoError(t, err)
	assert.Equal(t, uint(8), exc.ID)
}

func TestEnsureExceptionFindsTitleBeyondFirstPage(t *testing.T) {
	srv, token := newTestServer(t)
	client := NewClient(testConfig(srv.URL, token))
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := client.EnsureException(ctx, fmt.Sprintf("Custom%dException", i))
		require.NoError(t, err)
	}

	first, err := client.EnsureException(ctx, "Exception")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, uint(13), first.ID)

	again, err := client.EnsureException(ctx, "Exception")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, first.ID, again.ID)

	late, err := client.FindException(ctx, "Custom11Exception")
	require.NoError(t, err)
	require.NotNil(t, late)
	assert.Equal(t, uint(12), late.ID)

	missing, err := client.FindException(ctx, "Custom")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
