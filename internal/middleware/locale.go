package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}

// LocaleKey stores the detected message locale ("en" or "fr") in the request context.
var LocaleKey = localeContextKey{}

// Outcome messages exist in English and French; everything else matches to
// English.
var localeMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.French,
})

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// Locale detects the message language for the request: explicit X-Locale
// header first, then Accept-Language, then a GeoIP country hint, then the
// configured default.
func Locale(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := detectLocale(r, defaultLocale, lookup)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LocaleFromContext returns the locale stored by Locale, defaulting to "en".
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok && v != "" {
		return v
	}
	return "en"
}

func detectLocale(r *http.Request, fallback string, lookup CountryLookup) string {
	if v := strings.TrimSpace(r.Header.Get("X-Locale")); v != "" {
		return matchLocale(v)
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return tagToLocale(tags)
		}
	}
	if lookup != nil {
		if ip := clientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && isFrancophone(country) {
				return "fr"
			}
		}
	}
	if fallback == "fr" {
		return "fr"
	}
	return "en"
}

func matchLocale(raw string) string {
	tag, err := language.Parse(raw)
	if err != nil {
		return "en"
	}
	return tagToLocale([]language.Tag{tag})
}

func tagToLocale(tags []language.Tag) string {
	_, idx, _ := localeMatcher.Match(tags...)
	if idx == 1 {
		return "fr"
	}
	return "en"
}

func isFrancophone(country string) bool {
	switch strings.ToUpper(country) {
	case "FR", "BE", "CH", "LU", "MC":
		return true
	}
	return false
}

// clientIP returns the best-effort client IP address for the request.
func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
