package server

import (
	"encoding/json"
	"errors"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

// JSONCodecName is the content subtype of the stock gRPC services. Clients call them
// with grpc.CallContentSubtype(JSONCodecName); health and reflection stay on proto.
const JSONCodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return JSONCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// CodeOf maps the error taxonomy onto gRPC status codes.
func CodeOf(err error) codes.Code {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, apperr.ErrParseAmbiguous), errors.Is(err, apperr.ErrInvalidInput):
		return codes.InvalidArgument
	case errors.Is(err, apperr.ErrInvalidTransition):
		return codes.FailedPrecondition
	case errors.Is(err, apperr.ErrConflict):
		return codes.AlreadyExists
	case errors.Is(err, apperr.ErrTransactionFailed):
		return codes.Aborted
	default:
		return codes.Internal
	}
}

// GRPCError converts a use case error into a status error. Internal details are not
// sent to the caller.
func GRPCError(err error) error {
	code := CodeOf(err)
	if code == codes.Internal {
		return status.Error(code, "internal error")
	}
	return status.Error(code, err.Error())
}
