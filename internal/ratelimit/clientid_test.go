package ratelimit

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDeriveClientIDStable(t *testing.T) {
	a := DeriveClientID("Mozilla/5.0", "en-US", "America/New_York")
	b := DeriveClientID("Mozilla/5.0", "en-US", "America/New_York")
	if a != b {
		t.Fatalf("same signals produced different ids: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "client_") {
		t.Fatalf("id missing prefix: %s", a)
	}
	for _, c := range a[len("client_"):] {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z') {
			t.Fatalf("id suffix not base36: %s", a)
		}
	}
}

func TestDeriveClientIDVariesWithSignals(t *testing.T) {
	base := DeriveClientID("Mozilla/5.0", "en-US", "America/New_York")
	if DeriveClientID("Mozilla/5.0", "fr-FR", "America/New_York") == base {
		t.Error("locale change should change the id")
	}
	if DeriveClientID("Mozilla/5.0", "en-US", "Europe/Berlin") == base {
		t.Error("timezone change should change the id")
	}
}

func TestDeriveClientIDMissingUserAgent(t *testing.T) {
	got := DeriveClientID("", "en-US", "UTC")
	want := DeriveClientID("unknown", "en-US", "UTC")
	if got != want {
		t.Fatalf("empty user agent should hash as %q: %s vs %s", "unknown", got, want)
	}
}

func TestIdentityFromRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/questions", nil)
	r.Header.Set("User-Agent", "Mozilla/5.0")
	r.Header.Set("Accept-Language", "en-US,en;q=0.9")
	r.Header.Set("X-Timezone", "America/New_York")

	got := IdentityFromRequest(r)
	want := DeriveClientID("Mozilla/5.0", "en-US", "America/New_York")
	if got != want {
		t.Fatalf("IdentityFromRequest = %s, want %s", got, want)
	}

	bare := httptest.NewRequest("POST", "/api/questions", nil)
	bare.Header.Del("User-Agent")
	if gotBare := IdentityFromRequest(bare); gotBare != DeriveClientID("", "", "UTC") {
		t.Fatalf("bare request identity mismatch: %s", gotBare)
	}
}
