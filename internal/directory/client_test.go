package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spec-kit/district-helpdesk/internal/config"
	"github.com/spec-kit/district-helpdesk/pkg/util/errorutil"
)

func newTestClient(t *testing.T, search http.HandlerFunc) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "dir-tok",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/search", search)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.DirectoryConfig{
		TokenURL:     srv.URL + "/token",
		ClientID:     "id",
		ClientSecret: "secret",
		Scope:        "directory.read",
		SearchURL:    srv.URL + "/search",
	}
	return NewClient(cfg, srv.Client())
}

func TestSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer dir-tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "rivera" {
			t.Errorf("q = %q, want rivera", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []Entry{
				{ID: "p1", Name: "Ana Rivera", Email: "arivera@district.example", Role: "Teacher", Department: "Science"},
			},
		})
	})

	entries, err := client.Search(context.Background(), "rivera")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(entries) != 1 || entries[0].Email != "arivera@district.example" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestSearchUpstreamFailureIsOpaque(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"provider_detail":"tenant quota exceeded on node eu-7"}`, http.StatusInternalServerError)
	})

	_, err := client.Search(context.Background(), "rivera")
	if err == nil {
		t.Fatal("expected error")
	}

	var domainErr *errorutil.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("error type = %T, want *errorutil.DomainError", err)
	}
	if domainErr.Code != "UPSTREAM_FAILED" {
		t.Errorf("code = %q, want UPSTREAM_FAILED", domainErr.Code)
	}
	if strings.Contains(domainErr.Message, "quota") {
		t.Errorf("provider detail leaked into message: %q", domainErr.Message)
	}
}

func TestSearchEmptyResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []Entry{}})
	})

	entries, err := client.Search(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %+v, want empty", entries)
	}
}
