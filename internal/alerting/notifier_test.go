package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestPushoverNotifySuccess(t *testing.T) {
	var received url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1/messages.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		received = r.PostForm
		_ = json.NewEncoder(w).Encode(map[string]int{"status": 1})
	}))
	defer srv.Close()

	notifier := NewPushoverNotifier("app-token", "user-key", srv.URL, time.Second, testLogger())

	if err := notifier.Notify(context.Background(), "🚨 FREEZER ALERT", "Freezer Temperature Alert"); err != nil {
		t.Fatalf("notify failed: %v", err)
	}

	if received.Get("token") != "app-token" || received.Get("user") != "user-key" {
		t.Fatalf("credentials missing from form: %#v", received)
	}
	if received.Get("priority") != "1" {
		t.Fatalf("alerts must go out high priority, got %q", received.Get("priority"))
	}
	if received.Get("message") == "" || received.Get("title") == "" {
		t.Fatalf("message or title missing: %#v", received)
	}
}

func TestPushoverNotifyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": 0, "errors": []string{"application token is invalid"}})
	}))
	defer srv.Close()

	notifier := NewPushoverNotifier("bad", "user-key", srv.URL, time.Second, testLogger())

	err := notifier.Notify(context.Background(), "msg", "title")
	if err == nil {
		t.Fatal("status 0 must return an error")
	}
	if !strings.Contains(err.Error(), "application token is invalid") {
		t.Fatalf("error should surface the API message, got %v", err)
	}
}

func TestPushoverNotifyHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	notifier := NewPushoverNotifier("app-token", "user-key", srv.URL, time.Second, testLogger())

	if err := notifier.Notify(context.Background(), "msg", "title"); err == nil {
		t.Fatal("HTTP 400 must return an error")
	}
}

func TestPushoverNotifyMissingCredentials(t *testing.T) {
	notifier := NewPushoverNotifier("", "", "", time.Second, testLogger())
	if err := notifier.Notify(context.Background(), "msg", "title"); err == nil {
		t.Fatal("missing credentials must return an error")
	}
}
