package mailrelay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spec-kit/district-helpdesk/internal/config"
)

func newTestClient(t *testing.T, sendStatus func(call int) int) (*Client, *int, *int) {
	t.Helper()

	tokenCalls := 0
	sendCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse token form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q, want client_credentials", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-1",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/send", func(w http.ResponseWriter, r *http.Request) {
		sendCalls++
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q, want Bearer tok-1", got)
		}
		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode send body: %v", err)
		}
		if req.From != "helpdesk@district.example" {
			t.Errorf("from = %q", req.From)
		}
		w.WriteHeader(sendStatus(sendCalls))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.MailConfig{
		TokenURL:     srv.URL + "/token",
		ClientID:     "id",
		ClientSecret: "secret",
		Scope:        "mail.send",
		SendURL:      srv.URL + "/send",
		From:         "helpdesk@district.example",
	}
	return NewClient(cfg, srv.Client()), &tokenCalls, &sendCalls
}

func TestSendEmail(t *testing.T) {
	client, tokenCalls, sendCalls := newTestClient(t, func(int) int { return http.StatusAccepted })

	if err := client.SendEmail(context.Background(), "teacher@school.example", "Ticket received", "<p>hi</p>"); err != nil {
		t.Fatalf("SendEmail: %v", err)
	}
	if *tokenCalls != 1 || *sendCalls != 1 {
		t.Fatalf("calls = (%d tokens, %d sends), want (1, 1)", *tokenCalls, *sendCalls)
	}

	// Second send reuses the cached token.
	if err := client.SendEmail(context.Background(), "teacher@school.example", "Update", "<p>done</p>"); err != nil {
		t.Fatalf("second SendEmail: %v", err)
	}
	if *tokenCalls != 1 {
		t.Fatalf("token calls after reuse = %d, want 1", *tokenCalls)
	}
}

func TestSendEmailRetriesOnUnauthorized(t *testing.T) {
	client, tokenCalls, sendCalls := newTestClient(t, func(call int) int {
		if call == 1 {
			return http.StatusUnauthorized
		}
		return http.StatusOK
	})

	if err := client.SendEmail(context.Background(), "x@y.example", "s", "b"); err != nil {
		t.Fatalf("SendEmail: %v", err)
	}
	if *sendCalls != 2 {
		t.Fatalf("send calls = %d, want 2", *sendCalls)
	}
	if *tokenCalls != 2 {
		t.Fatalf("token calls = %d, want 2 after invalidation", *tokenCalls)
	}
}

func TestSendEmailUpstreamError(t *testing.T) {
	client, _, _ := newTestClient(t, func(int) int { return http.StatusBadGateway })

	if err := client.SendEmail(context.Background(), "x@y.example", "s", "b"); err == nil {
		t.Fatal("expected error on 502 from relay")
	}
}
