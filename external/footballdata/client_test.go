package footballdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/matchweek/internal/domain/match"
	"github.com/riskibarqy/matchweek/internal/platform/logging"
	"github.com/riskibarqy/matchweek/internal/platform/resilience"
	"github.com/riskibarqy/matchweek/internal/usecase"
)

const samplePayload = `{
  "count": 3,
  "filters": {"dateFrom": "2024-03-08", "dateTo": "2024-03-15"},
  "matches": [
    {
      "id": 436182,
      "utcDate": "2024-03-10T15:00:00Z",
      "status": "FINISHED",
      "matchday": 28,
      "season": {"id": 1564, "startDate": "2023-08-11", "endDate": "2024-05-19"},
      "homeTeam": {"id": 57, "name": "Arsenal FC", "crest": "https://crests.football-data.org/57.png"},
      "awayTeam": {"id": 61, "name": "Chelsea FC", "crest": ""},
      "score": {"winner": "HOME_TEAM", "fullTime": {"home": 2, "away": 1}}
    },
    {
      "utcDate": "2024-03-11T20:00:00Z",
      "status": "TIMED",
      "homeTeam": {"name": "Everton FC"},
      "awayTeam": {"name": "Liverpool FC"},
      "score": {"fullTime": {"home": null, "away": null}}
    },
    {
      "id": 436190,
      "utcDate": "not-a-date",
      "status": "FINISHED",
      "homeTeam": {"name": "Fulham FC"},
      "awayTeam": {"name": "Brentford FC"},
      "score": {"fullTime": {"home": 0, "away": 0}}
    }
  ]
}`

func newTestClient(serverURL string, breaker resilience.CircuitBreakerConfig) *Client {
	return NewClient(ClientConfig{
		BaseURL:        serverURL,
		Token:          "secret-token",
		Timeout:        2 * time.Second,
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
}

func TestClient_FetchMatchesByDateRange(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/competitions/PL/matches" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("dateFrom"); got != "2024-03-08" {
			t.Errorf("unexpected dateFrom %q", got)
		}
		if got := r.URL.Query().Get("dateTo"); got != "2024-03-15" {
			t.Errorf("unexpected dateTo %q", got)
		}
		if got := r.Header.Get("X-Auth-Token"); got != "secret-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	client := newTestClient(server.URL, resilience.CircuitBreakerConfig{})
	got, err := client.FetchMatchesByDateRange(context.Background(), "2024-03-08", "2024-03-15")
	if err != nil {
		t.Fatalf("fetch matches: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected invalid record to be skipped, got %d records", len(got))
	}

	first := got[0]
	if first.ID == nil || *first.ID != 436182 {
		t.Fatalf("unexpected id: %v", first.ID)
	}
	if first.Status != match.StatusFinished {
		t.Fatalf("unexpected status %s", first.Status)
	}
	if first.HomeScore == nil || *first.HomeScore != 2 || first.AwayScore == nil || *first.AwayScore != 1 {
		t.Fatalf("unexpected scores: %v-%v", first.HomeScore, first.AwayScore)
	}
	if !first.UTCDate.Equal(time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected kickoff %s", first.UTCDate)
	}
	if first.HomeTeamCrest == nil || first.AwayTeamCrest != nil {
		t.Fatalf("expected only home crest, got home=%v away=%v", first.HomeTeamCrest, first.AwayTeamCrest)
	}
	if first.Matchday == nil || *first.Matchday != 28 || first.SeasonStartDate != "2023-08-11" {
		t.Fatalf("unexpected matchday/season: %v/%s", first.Matchday, first.SeasonStartDate)
	}

	second := got[1]
	if second.ID != nil {
		t.Fatalf("expected nil id for record without id, got %d", *second.ID)
	}
	if second.HomeScore != nil || second.AwayScore != nil {
		t.Fatalf("expected nil scores for unplayed match")
	}
}

func TestClient_FetchFinishedMatchesQuery(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("status"); got != "FINISHED" {
			t.Errorf("unexpected status filter %q", got)
		}
		if r.URL.Query().Has("dateFrom") {
			t.Errorf("finished query must not be date bounded")
		}
		_, _ = w.Write([]byte(`{"matches":[]}`))
	}))
	defer server.Close()

	got, err := newTestClient(server.URL, resilience.CircuitBreakerConfig{}).FetchFinishedMatches(context.Background())
	if err != nil {
		t.Fatalf("fetch finished matches: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}

func TestClient_RateLimitDoesNotTripBreaker(t *testing.T) {
	t.Parallel()

	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"You reached your request limit.","errorCode":429}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: time.Minute})
	for i := 0; i < 4; i++ {
		_, err := client.FetchFinishedMatches(context.Background())
		if !errors.Is(err, usecase.ErrRateLimited) {
			t.Fatalf("attempt %d: expected ErrRateLimited, got %v", i, err)
		}
	}

	if got := atomic.LoadInt32(&hits); got != 4 {
		t.Fatalf("expected every call to reach upstream, got %d", got)
	}
	snap, ok := client.BreakerSnapshot()
	if !ok || snap.State != resilience.CircuitStateClosed {
		t.Fatalf("expected closed breaker, got %+v", snap)
	}
}

func TestClient_ServerErrorsOpenBreaker(t *testing.T) {
	t.Parallel()

	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: time.Minute})
	for i := 0; i < 3; i++ {
		_, err := client.FetchMatchesByDateRange(context.Background(), "2024-03-08", "2024-03-15")
		if !errors.Is(err, usecase.ErrDependencyUnavailable) {
			t.Fatalf("attempt %d: expected ErrDependencyUnavailable, got %v", i, err)
		}
		if errors.Is(err, usecase.ErrRateLimited) {
			t.Fatalf("attempt %d: server error must not look rate limited", i)
		}
	}

	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected open breaker to short-circuit the third call, got %d upstream hits", got)
	}
	if snap, _ := client.BreakerSnapshot(); snap.State != resilience.CircuitStateOpen {
		t.Fatalf("expected open breaker, got %s", snap.State)
	}
}

func TestClient_ServerErrorMakesSingleCall(t *testing.T) {
	t.Parallel()

	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL, resilience.CircuitBreakerConfig{})
	if _, err := client.FetchMatchesByDateRange(context.Background(), "2024-03-08", "2024-03-15"); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if _, err := client.FetchFinishedMatches(context.Background()); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}

	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected one upstream call per fetch, got %d", got)
	}
}

func TestClient_ClientErrorIsUnavailableButNotTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"token secret-token is not authorized"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute})
	_, err := client.FetchFinishedMatches(context.Background())
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Fatalf("token leaked into error: %v", err)
	}
	if snap, _ := client.BreakerSnapshot(); snap.State != resilience.CircuitStateClosed {
		t.Fatalf("4xx must not open the breaker, got %s", snap.State)
	}
}

func TestClient_MalformedPayload(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"matches": [`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, resilience.CircuitBreakerConfig{}).FetchFinishedMatches(context.Background())
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestParseMatch_RequiredFields(t *testing.T) {
	t.Parallel()

	valid := wireMatch{
		ID:       1,
		UTCDate:  "2024-03-10T15:00:00Z",
		Status:   "finished",
		HomeTeam: wireTeam{Name: "Arsenal FC"},
		AwayTeam: wireTeam{Name: "Chelsea FC"},
	}

	tests := []struct {
		name    string
		mutate  func(*wireMatch)
		wantErr bool
	}{
		{name: "valid", mutate: func(*wireMatch) {}},
		{name: "missing status", mutate: func(m *wireMatch) { m.Status = " " }, wantErr: true},
		{name: "missing date", mutate: func(m *wireMatch) { m.UTCDate = "" }, wantErr: true},
		{name: "bad date", mutate: func(m *wireMatch) { m.UTCDate = "10/03/2024" }, wantErr: true},
		{name: "missing home", mutate: func(m *wireMatch) { m.HomeTeam.Name = "" }, wantErr: true},
		{name: "missing away", mutate: func(m *wireMatch) { m.AwayTeam.Name = "" }, wantErr: true},
		{name: "zero id is optional", mutate: func(m *wireMatch) { m.ID = 0 }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			item := valid
			tc.mutate(&item)
			got, err := parseMatch(item)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidRecord) {
					t.Fatalf("expected ErrInvalidRecord, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != match.StatusFinished {
				t.Fatalf("expected normalized status, got %s", got.Status)
			}
		})
	}
}
