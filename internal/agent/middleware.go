package agent

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// error codes returned to agents
const (
	codeAgentRequired      = "shopping_agent_required"
	codeVersionUnsupported = "shopping_agent_version_unsupported"
)

// contextKey is the type for context values to avoid collisions
type contextKey string

const identityContextKey contextKey = "qkart.agent"

// Middleware creates HTTP middleware that identifies the calling agent.
// Parses the Shopping-Agent header, applies the minimum-version gate,
// and stores the Identity in the request context for handlers.
//
// The header is required on all requests except health checks; requests
// without it are rejected with 400 Bad Request.
func Middleware(minVersion string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get(Header)
			if header == "" {
				writeAgentError(w, http.StatusBadRequest, codeAgentRequired,
					"Shopping-Agent header is required for all requests")
				return
			}

			id, err := ParseHeader(header)
			if err != nil {
				logger.Warn("invalid Shopping-Agent header",
					slog.String("header", header),
					slog.String("error", err.Error()))
				writeAgentError(w, http.StatusBadRequest, codeAgentRequired,
					"Invalid Shopping-Agent header: "+err.Error())
				return
			}

			if err := CheckVersion(id, minVersion); err != nil {
				var verErr *VersionError
				if errors.As(err, &verErr) {
					writeAgentError(w, http.StatusBadRequest, codeVersionUnsupported,
						"Shopping agent too old: "+verErr.Error())
					return
				}
				logger.Error("version gate misconfigured",
					slog.String("min_version", minVersion),
					slog.String("error", err.Error()))
				writeAgentError(w, http.StatusInternalServerError, "internal_error",
					"Agent version gate misconfigured")
				return
			}

			reqCtx := context.WithValue(r.Context(), identityContextKey, &id)
			next.ServeHTTP(w, r.WithContext(reqCtx))
		})
	}
}

// isExemptPath returns true for paths that don't require the header.
// Health checks are infrastructure, not part of the agent protocol.
func isExemptPath(path string) bool {
	return path == "/health" || path == "/healthz"
}

// writeAgentError writes the standard error envelope.
func writeAgentError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}{}
	resp.Error.Code = code
	resp.Error.Message = message

	json.NewEncoder(w).Encode(resp)
}

// FromContext retrieves the agent identity from the request context.
// Returns nil if the middleware was skipped or not installed.
func FromContext(ctx context.Context) *Identity {
	v := ctx.Value(identityContextKey)
	if v == nil {
		return nil
	}
	return v.(*Identity)
}
