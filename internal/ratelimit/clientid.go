package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf16"
)

// DeriveClientID builds a weak per-device token from passively observable
// signals. Collisions between devices with identical environments are
// expected and accepted: the token feeds a rate-limit heuristic, not an
// identity system, and changes whenever any signal changes (e.g. a locale
// switch).
func DeriveClientID(userAgent, language, timezone string) string {
	if userAgent == "" {
		userAgent = "unknown"
	}
	fingerprint := userAgent + "_" + language + "_" + timezone

	var h int32
	for _, u := range utf16.Encode([]rune(fingerprint)) {
		h = h*31 - h + int32(u)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return "client_" + strconv.FormatInt(v, 36)
}

// IdentityFromRequest derives the client token from the request's User-Agent,
// the first Accept-Language tag, and an optional X-Timezone header carrying
// an IANA zone name. Missing headers degrade to coarser identities rather
// than failing.
func IdentityFromRequest(r *http.Request) string {
	lang := r.Header.Get("Accept-Language")
	if i := strings.IndexAny(lang, ",;"); i >= 0 {
		lang = lang[:i]
	}
	lang = strings.TrimSpace(lang)

	tz := strings.TrimSpace(r.Header.Get("X-Timezone"))
	if tz == "" {
		tz = "UTC"
	}
	return DeriveClientID(r.UserAgent(), lang, tz)
}
