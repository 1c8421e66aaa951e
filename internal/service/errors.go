package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/validation"
)

// connectError maps domain errors to Connect codes.
// Conflicts become Aborted: the client should reload and retry.
func connectError(err error) *connect.Error {
	var code connect.Code
	switch {
	case errors.Is(err, storage.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, validation.ErrValidation), errors.Is(err, ledger.ErrInvalidParticipant):
		code = connect.CodeInvalidArgument
	case errors.Is(err, ledger.ErrParticipantInUse):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, storage.ErrConflict):
		code = connect.CodeAborted
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	default:
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}
