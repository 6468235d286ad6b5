package captcha_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pagedesk/blogapi/internal/captcha"
)

func TestVerifyDisabledAdmitsEverything(t *testing.T) {
	var outcome string

	v := captcha.NewVerifier("", "http://127.0.0.1:0/never-called", func(o string) { outcome = o })

	err := v.Verify(context.Background(), "", "")

	if err != nil {
		t.Fatalf("disabled verifier should admit requests, got %v", err)
	}

	if outcome != "skipped" {
		t.Fatalf("got outcome %q, want %q", outcome, "skipped")
	}
}

func TestVerifyEmptyTokenRejected(t *testing.T) {
	v := captcha.NewVerifier("secret", "http://127.0.0.1:0/never-called", nil)

	err := v.Verify(context.Background(), "", "1.2.3.4")

	if !errors.Is(err, captcha.ErrVerificationFailed) {
		t.Fatalf("got %v, want ErrVerificationFailed", err)
	}
}

func TestVerifyRemoteOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantErr     bool
		wantOutcome string
	}{
		{
			name:        "success",
			body:        `{"success": true}`,
			wantErr:     false,
			wantOutcome: "ok",
		},
		{
			name:        "remote_rejection",
			body:        `{"success": false, "error-codes": ["invalid-input-response"]}`,
			wantErr:     true,
			wantOutcome: "rejected",
		},
		{
			name:        "garbage_response",
			body:        `not json at all`,
			wantErr:     true,
			wantOutcome: "error",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					t.Errorf("parse form: %v", err)
				}

				if got := r.PostFormValue("secret"); got != "shared-secret" {
					t.Errorf("got secret %q, want %q", got, "shared-secret")
				}

				if got := r.PostFormValue("response"); got != "client-token" {
					t.Errorf("got response %q, want %q", got, "client-token")
				}

				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var outcome string

			v := captcha.NewVerifier("shared-secret", srv.URL, func(o string) { outcome = o })

			err := v.Verify(context.Background(), "client-token", "1.2.3.4")

			if tt.wantErr && !errors.Is(err, captcha.ErrVerificationFailed) {
				t.Fatalf("got %v, want ErrVerificationFailed", err)
			}

			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if outcome != tt.wantOutcome {
				t.Fatalf("got outcome %q, want %q", outcome, tt.wantOutcome)
			}
		})
	}
}

func TestVerifyTransportErrorRejects(t *testing.T) {
	// a closed server forces a connection error
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	v := captcha.NewVerifier("secret", srv.URL, nil)

	err := v.Verify(context.Background(), "client-token", "")

	if !errors.Is(err, captcha.ErrVerificationFailed) {
		t.Fatalf("got %v, want ErrVerificationFailed", err)
	}
}
