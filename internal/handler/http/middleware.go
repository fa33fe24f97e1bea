package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Seldir193/coderr-backend/internal/account"
	"github.com/Seldir193/coderr-backend/internal/auth"
)

// tokenParser is the part of the token manager the middleware needs.
type tokenParser interface {
	Parse(tokenString string) (uuid.UUID, error)
}

// actorResolver loads the authenticated account and its role flags.
type actorResolver interface {
	ActorFor(ctx context.Context, accountID uuid.UUID) (auth.Actor, error)
}

// requireAuth rejects requests without a valid bearer token and stores the
// resolved actor in the request context for downstream handlers.
func requireAuth(tokens tokenParser, accounts actorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok, err := resolveActor(r, tokens, accounts)
			if err != nil {
				log.Error().Err(err).Msg("handler: failed to resolve request actor")
				respondWithError(w, http.StatusInternalServerError, "An unexpected error occurred.")
				return
			}
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

// optionalAuth resolves the actor when a valid token is present but lets
// anonymous requests through untouched.
func optionalAuth(tokens tokenParser, accounts actorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok, err := resolveActor(r, tokens, accounts)
			if err != nil {
				log.Error().Err(err).Msg("handler: failed to resolve request actor")
				respondWithError(w, http.StatusInternalServerError, "An unexpected error occurred.")
				return
			}
			if ok {
				r = r.WithContext(auth.WithActor(r.Context(), actor))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// resolveActor returns ok=false for absent, malformed, or stale credentials.
// A non-nil error means the lookup itself failed and says nothing about the
// credentials.
func resolveActor(r *http.Request, tokens tokenParser, accounts actorResolver) (auth.Actor, bool, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.Actor{}, false, nil
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return auth.Actor{}, false, nil
	}

	accountID, err := tokens.Parse(parts[1])
	if err != nil {
		return auth.Actor{}, false, nil
	}

	actor, err := accounts.ActorFor(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return auth.Actor{}, false, nil
		}
		return auth.Actor{}, false, err
	}
	return actor, true, nil
}
