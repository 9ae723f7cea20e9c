package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWebhook_NotifySignsBody(t *testing.T) {
	var gotBody []byte
	var gotSig, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "accepted")
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, "top-secret")
	status, text, ok := wh.Notify(context.Background(), map[string]string{"run_id": "r1"})

	if !ok {
		t.Fatal("expected notify to be attempted")
	}
	if status != 200 || text != "accepted" {
		t.Errorf("expected 200/accepted, got %d/%q", status, text)
	}
	if gotType != "application/json" {
		t.Errorf("expected JSON content type, got %q", gotType)
	}

	mac := hmac.New(sha256.New, []byte("top-secret"))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSig != want {
		t.Errorf("signature mismatch: expected %q, got %q", want, gotSig)
	}
}

func TestWebhook_NoSignatureWithoutSecret(t *testing.T) {
	var gotSig string
	var hadHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		_, hadHeader = r.Header[SignatureHeader]
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, "")
	status, _, ok := wh.Notify(context.Background(), map[string]string{"x": "y"})
	if !ok || status != 204 {
		t.Fatalf("expected attempted 204, got ok=%v status=%d", ok, status)
	}
	if hadHeader || gotSig != "" {
		t.Errorf("expected no signature header, got %q", gotSig)
	}
}

func TestWebhook_SkippedWithoutURL(t *testing.T) {
	wh := NewWebhook("", "secret")
	if wh.Configured() {
		t.Error("expected unconfigured webhook")
	}
	status, text, ok := wh.Notify(context.Background(), map[string]string{})
	if ok {
		t.Error("expected ok=false when no URL is configured")
	}
	if status != 0 || text != "" {
		t.Errorf("expected zero status and empty text, got %d/%q", status, text)
	}
}

func TestWebhook_ConnectionFailureIsStatusZero(t *testing.T) {
	// Point at a closed server.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	wh := NewWebhook(url, "")
	status, text, ok := wh.Notify(context.Background(), map[string]string{"x": "y"})
	if !ok {
		t.Error("a connection failure still counts as an attempt")
	}
	if status != 0 {
		t.Errorf("expected status 0 for connection failure, got %d", status)
	}
	if text == "" {
		t.Error("expected the connection error text to be reported")
	}
}

func TestWebhook_Non2xxPassedThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow not active", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, "")
	status, text, ok := wh.Notify(context.Background(), map[string]string{"x": "y"})
	if !ok || status != 503 {
		t.Fatalf("expected attempted 503, got ok=%v status=%d", ok, status)
	}
	if !strings.Contains(text, "workflow not active") {
		t.Errorf("expected response body passed through, got %q", text)
	}
}
