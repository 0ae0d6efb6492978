// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/logging"
)

// UserIDHeader carries the user in "none" auth mode.
const UserIDHeader = "X-User-ID"

// maxUserIDLength bounds user IDs from headers and token subjects.
const maxUserIDLength = 128

var errMissingToken = errors.New("missing bearer token")

type contextKey string

const userContextKey contextKey = "user_id"

// ContextWithUser stores the resolved user ID.
func ContextWithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}

// UserFromContext returns the user resolved by the middleware.
func UserFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userContextKey).(string)
	return id, ok && id != ""
}

// ErrorWriter renders an authentication failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, err error)

// Middleware resolves the request user.
type Middleware struct {
	mode          string
	jwt           *JWTManager
	defaultUserID string
	writeError    ErrorWriter
}

// NewMiddleware builds the middleware for cfg.AuthMode. writeError may be
// nil, in which case failures are written with http.Error.
func NewMiddleware(cfg *config.SecurityConfig, writeError ErrorWriter) (*Middleware, error) {
	m := &Middleware{
		mode:          cfg.AuthMode,
		defaultUserID: cfg.DefaultUserID,
		writeError:    writeError,
	}
	if m.writeError == nil {
		m.writeError = func(w http.ResponseWriter, _ *http.Request, status int, err error) {
			http.Error(w, err.Error(), status)
		}
	}

	switch cfg.AuthMode {
	case config.AuthModeNone, "":
		m.mode = config.AuthModeNone
	case config.AuthModeJWT:
		mgr, err := NewJWTManager(cfg)
		if err != nil {
			return nil, err
		}
		m.jwt = mgr
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
	return m, nil
}

// Mode returns the active auth mode.
func (m *Middleware) Mode() string {
	return m.mode
}

// Authenticate resolves the user and stores it on the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, status, err := m.resolve(r)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Str("auth_mode", m.mode).Msg("Authentication failed")
			if m.mode == config.AuthModeJWT && status == http.StatusUnauthorized {
				w.Header().Set("WWW-Authenticate", `Bearer realm="shelfwise"`)
			}
			m.writeError(w, r, status, err)
			return
		}

		ctx := ContextWithUser(r.Context(), userID)
		ctx = logging.ContextWithUserID(ctx, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) resolve(r *http.Request) (string, int, error) {
	if m.mode == config.AuthModeJWT {
		token, err := bearerToken(r)
		if err != nil {
			return "", http.StatusUnauthorized, err
		}
		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			return "", http.StatusUnauthorized, err
		}
		if err := checkUserID(claims.Subject, "token subject"); err != nil {
			return "", http.StatusUnauthorized, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
		return claims.Subject, 0, nil
	}

	userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if userID == "" {
		userID = m.defaultUserID
	}
	if err := checkUserID(userID, UserIDHeader); err != nil {
		return "", http.StatusBadRequest, err
	}
	return userID, 0, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMissingToken
	}
	return strings.TrimSpace(token), nil
}

// checkUserID rejects IDs that cannot be used as storage key segments.
// source names where the ID came from in error messages.
func checkUserID(id, source string) error {
	if id == "" {
		return fmt.Errorf("%s is required", source)
	}
	if len(id) > maxUserIDLength {
		return fmt.Errorf("%s exceeds %d characters", source, maxUserIDLength)
	}
	if strings.ContainsAny(id, ":\r\n") {
		return fmt.Errorf("%s contains invalid characters", source)
	}
	return nil
}
