package middleware

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
)

type localeContextKey struct{}

// The site is French-first; English is served to everyone else.
var localeMatcher = language.NewMatcher([]language.Tag{
	language.French,
	language.English,
})

// MsgID names a client-facing message with fr/en variants.
type MsgID int

const (
	MsgUnauthenticated MsgID = iota
	MsgForbidden
	MsgInvalidCredentials
	MsgAccountCreated
	MsgServerError
)

var messages = map[MsgID][2]string{
	MsgUnauthenticated:    {"Non authentifié", "Not authenticated"},
	MsgForbidden:          {"Accès interdit - Admin requis", "Forbidden - admin required"},
	MsgInvalidCredentials: {"Email ou mot de passe invalide", "Invalid email or password"},
	MsgAccountCreated:     {"Compte créé avec succès", "Account created"},
	MsgServerError:        {"Erreur serveur", "Internal server error"},
}

// Locale resolves the request language from Accept-Language (or X-Locale)
// and stores it on the context for error localization.
func Locale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept := r.Header.Get("X-Locale")
		if accept == "" {
			accept = r.Header.Get("Accept-Language")
		}
		tag, _ := language.MatchStrings(localeMatcher, accept)
		base, _ := tag.Base()
		ctx := context.WithValue(r.Context(), localeContextKey{}, base.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LocaleFromContext returns the resolved base language, defaulting to French.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(localeContextKey{}).(string); ok {
		return v
	}
	return "fr"
}

// Localize renders a message in the request language.
func Localize(ctx context.Context, id MsgID) string {
	pair, ok := messages[id]
	if !ok {
		return ""
	}
	if LocaleFromContext(ctx) == "en" {
		return pair[1]
	}
	return pair[0]
}
