package grpcstore

import (
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/pset/storage"
)

// rejectPrefix starts the status message of an upload refused by the text parser.
const rejectPrefix = "rejected PSET text: "

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return storage.ErrNotFound
	case codes.InvalidArgument:
		// InvalidArgument covers both malformed CIDs and unparseable uploads.
		if msg, ok := strings.CutPrefix(st.Message(), rejectPrefix); ok {
			return fmt.Errorf("%w: %s", storage.ErrRejected, msg)
		}
		return storage.ErrInvalidCID
	case codes.DataLoss:
		if strings.HasPrefix(st.Message(), storage.ErrCorrupt.Error()) {
			return fmt.Errorf("%w (remote): %s", storage.ErrCorrupt, st.Message())
		}
		return storage.ErrCIDMismatch
	case codes.AlreadyExists:
		return storage.ErrImmutable
	default:
		// Best-effort: if the server sent a known storage error message, preserve it.
		switch st.Message() {
		case storage.ErrNotFound.Error():
			return storage.ErrNotFound
		case storage.ErrInvalidCID.Error():
			return storage.ErrInvalidCID
		case storage.ErrCIDMismatch.Error():
			return storage.ErrCIDMismatch
		default:
			return err
		}
	}
}
