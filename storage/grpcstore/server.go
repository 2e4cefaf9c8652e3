package grpcstore

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/pset/cidutil"
	"xdao.co/pset/psettext"
	"xdao.co/pset/storage"
)

// Server exposes a storage.Store over the exchange service.
type Server struct {
	UnimplementedExchangeServer
	Store storage.Store

	// Logger receives rejected uploads and storage failures. Nil uses slog.Default().
	Logger *slog.Logger
}

// Put parses the uploaded text and stores the PSET. Text that does not parse
// is refused with InvalidArgument; the status message names the failing layer
// and carries its diagnostic.
func (s *Server) Put(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	p, err := psettext.Parse(in.GetValue())
	if err != nil {
		var pe *psettext.ParseError
		if errors.As(err, &pe) {
			s.logger().WarnContext(ctx, "rejected PSET upload",
				slog.String("layer", string(pe.Kind)),
				slog.String("cause", pe.Cause.Error()),
				slog.Int("text_bytes", len(in.GetValue())),
			)
		}
		return nil, status.Error(codes.InvalidArgument, rejectPrefix+psettext.Detail(err))
	}
	expected, err := p.ID()
	if err != nil {
		return nil, status.Error(codes.Internal, "cid computation failed")
	}
	id, err := s.Store.Put(p)
	if err != nil {
		s.logger().ErrorContext(ctx, "store put failed", slog.String("cid", expected.String()), slog.String("error", err.Error()))
		return nil, mapErr(err)
	}
	if !id.Equals(expected) {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	s.logger().DebugContext(ctx, "stored PSET",
		slog.String("cid", id.String()),
		slog.Int("inputs", len(p.Inputs)),
		slog.Int("outputs", len(p.Outputs)),
	)
	return wrapperspb.String(id.String()), nil
}

// Get returns the canonical text of the PSET stored under the requested CID.
func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	id, err := decodeCID(in.GetValue())
	if err != nil {
		return nil, err
	}
	p, err := s.Store.Get(id)
	if err != nil {
		if !storage.IsNotFound(err) {
			s.logger().ErrorContext(ctx, "store get failed", slog.String("cid", id.String()), slog.String("error", err.Error()))
		}
		return nil, mapErr(err)
	}
	got, err := p.ID()
	if err != nil {
		return nil, status.Error(codes.Internal, "cid computation failed")
	}
	if !got.Equals(id) {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	return wrapperspb.String(psettext.Render(p)), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	id, err := decodeCID(in.GetValue())
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bool(s.Store.Has(id)), nil
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func decodeCID(v string) (cid.Cid, error) {
	id, err := cidutil.Parse(v)
	if err != nil || !id.Defined() {
		return cid.Undef, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	return id, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, storage.ErrNotFound.Error())
	case errors.Is(err, storage.ErrInvalidCID):
		return status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	case errors.Is(err, storage.ErrCIDMismatch):
		return status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	case errors.Is(err, storage.ErrCorrupt):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, storage.ErrImmutable):
		return status.Error(codes.AlreadyExists, storage.ErrImmutable.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
