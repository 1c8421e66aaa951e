package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ParticipantIDKey is the context key for the acting participant ID.
const ParticipantIDKey contextKey = "participant_id"

// ParticipantHeader carries the participant a client is acting as.
// Groups are shared by link, so the header is an attribution, not a credential.
const ParticipantHeader = "Splitledger-Participant"

// GetParticipantID extracts the acting participant ID from the context.
// Returns empty string if not found.
func GetParticipantID(ctx context.Context) string {
	id, _ := ctx.Value(ParticipantIDKey).(string)
	return id
}

// WithParticipantID returns a copy of ctx acting as participant id.
func WithParticipantID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ParticipantIDKey, id)
}

// ParticipantInterceptor returns a middleware that copies the ParticipantHeader
// into the request context. Requests without the header act anonymously.
func ParticipantInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if id := strings.TrimSpace(req.Header().Get(ParticipantHeader)); id != "" {
				ctx = WithParticipantID(ctx, id)
			}
			return next(ctx, req)
		}
	}
}
