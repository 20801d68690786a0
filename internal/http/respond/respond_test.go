package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Lazitesema/cashora-landing-haven/internal/session"
)

func TestViewRedirect(t *testing.T) {
	rec := httptest.NewRecorder()
	notices := []session.Notice{{Variant: session.VariantDefault, Title: "Signed out"}}
	View(rec, http.StatusOK, "ok", nil, "/signin", notices)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/signin" {
		t.Fatalf("location = %q", loc)
	}
	var env Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Code != http.StatusSeeOther || env.Redirect != "/signin" || len(env.Notices) != 1 {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestViewWithoutRedirect(t *testing.T) {
	rec := httptest.NewRecorder()
	View(rec, http.StatusAccepted, "loading", map[string]bool{"loading": true}, "", nil)

	if rec.Code != http.StatusAccepted || rec.Header().Get("Location") != "" {
		t.Fatalf("status = %d location = %q", rec.Code, rec.Header().Get("Location"))
	}
	var env map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := env["notices"]; ok {
		t.Fatal("empty notices should be omitted")
	}
}
