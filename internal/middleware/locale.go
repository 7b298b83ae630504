package middleware

import (
	"context"
	"net/http"

	"github.com/soaringjerry/Pulse/internal/utils"
)

type localeKey struct{}

// LocaleMiddleware resolves the response locale from ?lang= or
// Accept-Language, stores it in the request context and echoes it as
// Content-Language.
func LocaleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := utils.DetermineLocale(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"), "en")
		w.Header().Set("Content-Language", locale)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), localeKey{}, locale)))
	})
}

// LocaleFromContext returns the locale chosen by LocaleMiddleware, or "en".
func LocaleFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(localeKey{}).(string); ok && s != "" {
		return s
	}
	return "en"
}
