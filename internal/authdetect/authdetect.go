// Package authdetect classifies the authentication schemes in use across
// a capture by scanning request headers and cookies. Best-effort: false
// negatives for unusual schemes are expected and acceptable.
package authdetect

import (
	"strings"

	"github.com/PentesterFlow/apimapper/internal/urlutil"
	"github.com/PentesterFlow/apimapper/pkg/model"
)

// Detector scans exchanges for authentication patterns. Stateless; the
// zero value is ready to use.
type Detector struct{}

// New creates a new auth pattern detector.
func New() *Detector {
	return &Detector{}
}

// Detect classifies authentication schemes across all exchanges. Each
// scheme is classified by its first match; multiple distinct schemes may
// coexist in one capture (e.g., API key + session cookie) and are all
// reported.
func (d *Detector) Detect(exchanges []model.Exchange) []model.AuthPattern {
	found := make(map[model.AuthScheme]model.AuthPattern)
	order := make([]model.AuthScheme, 0, 4)

	record := func(p model.AuthPattern) {
		if _, ok := found[p.Scheme]; ok {
			return
		}
		found[p.Scheme] = p
		order = append(order, p.Scheme)
	}

	for i := range exchanges {
		ex := &exchanges[i]
		for name, value := range ex.Request.Headers {
			lower := strings.ToLower(name)

			if lower == "authorization" {
				switch {
				case strings.HasPrefix(value, "Bearer "):
					record(model.AuthPattern{
						Scheme:     model.AuthBearerToken,
						HeaderName: "Authorization",
						Prefix:     "Bearer",
					})
				case strings.HasPrefix(value, "Basic "):
					record(model.AuthPattern{
						Scheme:     model.AuthBasic,
						HeaderName: "Authorization",
						Prefix:     "Basic",
					})
				}
				continue
			}

			if IsAPIKeyHeader(lower) {
				record(model.AuthPattern{
					Scheme:     model.AuthAPIKey,
					HeaderName: name,
				})
				continue
			}

			if lower == "cookie" {
				if cookie := sessionCookieName(value); cookie != "" {
					record(model.AuthPattern{
						Scheme:     model.AuthSessionCookie,
						CookieName: cookie,
					})
				}
			}
		}

		if isOAuthTokenRequest(ex) {
			record(model.AuthPattern{
				Scheme:   model.AuthOAuth2,
				TokenURL: urlutil.Normalize(ex.Request.URL),
			})
		}
	}

	result := make([]model.AuthPattern, 0, len(order))
	for _, scheme := range order {
		result = append(result, found[scheme])
	}
	return result
}

// IsAPIKeyHeader reports whether a lowercase header name looks like an
// API key carrier: the name contains both "api" and "key".
func IsAPIKeyHeader(lower string) bool {
	return strings.Contains(lower, "api") && strings.Contains(lower, "key")
}

// IsSessionCookie reports whether a cookie name looks session-bearing.
func IsSessionCookie(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "session") || strings.Contains(lower, "token")
}

// sessionCookieName returns the first session-like cookie name in a
// Cookie header value, or "".
func sessionCookieName(header string) string {
	for _, pair := range strings.Split(header, ";") {
		pair = strings.TrimSpace(pair)
		name, _, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if IsSessionCookie(name) {
			return name
		}
	}
	return ""
}

// isOAuthTokenRequest detects the token leg of an OAuth2 flow: a POST to
// an oauth/token path with a grant_type in the form body.
func isOAuthTokenRequest(ex *model.Exchange) bool {
	if ex.Request.Method != "POST" {
		return false
	}
	path := strings.ToLower(urlutil.PathOf(ex.Request.URL))
	if !strings.Contains(path, "oauth") && !strings.Contains(path, "/token") {
		return false
	}
	return strings.Contains(ex.Request.Body, "grant_type=")
}
