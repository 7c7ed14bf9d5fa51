package nbi

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/radiomobile/core"
	"github.com/signalsfoundry/radiomobile/internal/ingest"
	"github.com/signalsfoundry/radiomobile/kb"
	"github.com/signalsfoundry/radiomobile/model"
)

var (
	// ErrNotFound is returned when a report reference matches neither a
	// catalog name nor an entry ID.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a package-level sentinel for malformed requests.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ToStatusError maps catalog and parser errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, kb.ErrReportNotFound),
		errors.Is(err, model.ErrNetNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, kb.ErrReportBadInput),
		errors.Is(err, ingest.ErrInvalidText),
		core.IsParseError(err):
		return status.Error(codes.InvalidArgument, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
