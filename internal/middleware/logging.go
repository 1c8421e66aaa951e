package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// RPCObserver receives the outcome of every RPC call.
type RPCObserver interface {
	ObserveRPC(procedure, code string, seconds float64)
}

// LoggingInterceptor returns a Connect interceptor that logs every RPC call.
// It logs the procedure name, participant ID, duration, and any error codes/messages, and
// reports them to observer when it is not nil.
func LoggingInterceptor(observer RPCObserver) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure
			participantID := GetParticipantID(ctx) // empty if anonymous

			resp, err := next(ctx, req)

			elapsed := time.Since(start)
			duration := elapsed.Milliseconds()
			code := "ok"
			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					code = connectErr.Code().String()
					slog.Warn("RPC error",
						"procedure", procedure,
						"code", connectErr.Code(),
						"error", connectErr.Message(),
						"participant_id", participantID,
						"duration_ms", duration,
					)
				} else {
					code = connect.CodeUnknown.String()
					slog.Error("RPC error",
						"procedure", procedure,
						"error", err,
						"participant_id", participantID,
						"duration_ms", duration,
					)
				}
			} else {
				slog.Info("RPC ok",
					"procedure", procedure,
					"participant_id", participantID,
					"duration_ms", duration,
				)
			}
			if observer != nil {
				observer.ObserveRPC(procedure, code, elapsed.Seconds())
			}

			return resp, err
		}
	}
}
