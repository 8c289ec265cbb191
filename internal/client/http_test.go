package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func envelope(w http.ResponseWriter, status int, data any, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"success": status < 300}
	if data != nil {
		body["data"] = data
	}
	if errMsg != "" {
		body["error"] = errMsg
	}
	json.NewEncoder(w).Encode(body)
}

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var req LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "ana@example.com" || req.Password != "pw" {
			t.Errorf("login body = %+v", req)
		}
		envelope(w, http.StatusOK, LoginResponse{AccessToken: "tok-1", User: &User{ID: "u1", Username: "ana"}}, "")
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", "")
	resp, err := c.Login(context.Background(), "ana@example.com", "pw")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if resp.User.Username != "ana" {
		t.Errorf("User = %+v", resp.User)
	}
	if c.Token() != "tok-1" {
		t.Errorf("Token() = %q, want tok-1", c.Token())
	}
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		envelope(w, http.StatusOK, LoginResponse{}, "")
	}))
	defer srv.Close()

	if _, err := NewHTTPClient(srv.URL, "").Login(context.Background(), "a", "b"); err == nil {
		t.Fatal("expected error for empty access token")
	}
}

func TestRequestsCarryBearerToken(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Method+" "+r.URL.Path+" "+r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/v1/pvp/queue/join":
			envelope(w, http.StatusOK, map[string]any{"message": "queued", "position": 3}, "")
		case "/api/v1/pvp/history":
			if r.URL.Query().Get("limit") != "5" {
				t.Errorf("limit = %q", r.URL.Query().Get("limit"))
			}
			envelope(w, http.StatusOK, HistoryResponse{TotalMatches: 1, Wins: 1}, "")
		default:
			envelope(w, http.StatusOK, nil, "")
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	ctx := context.Background()

	join, err := c.JoinQueue(ctx)
	if err != nil {
		t.Fatalf("JoinQueue() error: %v", err)
	}
	if join.Position == nil || *join.Position != 3 {
		t.Errorf("Position = %v, want 3", join.Position)
	}
	if err := c.LeaveQueue(ctx); err != nil {
		t.Fatalf("LeaveQueue() error: %v", err)
	}
	hist, err := c.History(ctx, 5)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if hist.Wins != 1 {
		t.Errorf("Wins = %d", hist.Wins)
	}

	want := []string{
		"POST /api/v1/pvp/queue/join Bearer tok",
		"POST /api/v1/pvp/queue/leave Bearer tok",
		"GET /api/v1/pvp/history Bearer tok",
	}
	if len(got) != len(want) {
		t.Fatalf("requests = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("request %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSubmitDecisionBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		want := `{"match_id":"m1","round_number":2,"decision":"hold","time_elapsed":15}`
		if string(raw) != want {
			t.Errorf("body = %s, want %s", raw, want)
		}
		envelope(w, http.StatusOK, nil, "")
	}))
	defer srv.Close()

	err := NewHTTPClient(srv.URL, "tok").SubmitDecision(context.Background(), SubmitDecisionRequest{
		MatchID: "m1", RoundNumber: 2, Decision: DecisionHold, TimeElapsed: 15,
	})
	if err != nil {
		t.Fatalf("SubmitDecision() error: %v", err)
	}
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
		message string
	}{
		{
			name: "envelope error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				envelope(w, http.StatusConflict, nil, "already in queue")
			},
			status:  http.StatusConflict,
			message: "already in queue",
		},
		{
			name: "plain text",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "bad gateway", http.StatusBadGateway)
			},
			status:  http.StatusBadGateway,
			message: "bad gateway",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL, "tok").JoinQueue(context.Background())
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status || apiErr.Message != tt.message {
				t.Errorf("APIError = %+v", apiErr)
			}
		})
	}
}

func TestEmptyDataIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		envelope(w, http.StatusOK, nil, "")
	}))
	defer srv.Close()

	if _, err := NewHTTPClient(srv.URL, "tok").History(context.Background(), 10); err == nil {
		t.Fatal("expected error for missing data")
	}
}
