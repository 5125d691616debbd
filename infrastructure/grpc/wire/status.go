package wire

import (
	"file-relay/domain"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToCode maps the status taxonomy onto gRPC codes.
func ToCode(c domain.Code) codes.Code {
	switch c {
	case domain.CodeOK:
		return codes.OK
	case domain.CodeInvalidArgument:
		return codes.InvalidArgument
	case domain.CodeNotFound:
		return codes.NotFound
	case domain.CodeUnimplemented:
		return codes.Unimplemented
	default:
		return codes.Internal
	}
}

// FromCode is the inverse of ToCode. Codes outside the taxonomy are internal.
func FromCode(c codes.Code) domain.Code {
	switch c {
	case codes.OK:
		return domain.CodeOK
	case codes.InvalidArgument:
		return domain.CodeInvalidArgument
	case codes.NotFound:
		return domain.CodeNotFound
	case codes.Unimplemented:
		return domain.CodeUnimplemented
	default:
		return domain.CodeInternal
	}
}

// StatusError turns a non-OK outcome into the error a handler returns.
func StatusError(o domain.Outcome) error {
	if o.OK() {
		return nil
	}
	return status.Error(ToCode(o.Code), o.Detail)
}

// OutcomeFromError reads the outcome a peer reported for op. Only the
// INVALID_ARGUMENT, NOT_FOUND and UNIMPLEMENTED details are kept. Any other
// failure, a dropped connection or an expired deadline for instance, becomes
// the internal outcome of op so that transport text never leaks to a caller.
func OutcomeFromError(op domain.Operation, err error) domain.Outcome {
	if err == nil {
		return domain.Outcome{Code: domain.CodeOK}
	}
	if s, ok := status.FromError(err); ok {
		switch code := FromCode(s.Code()); code {
		case domain.CodeInvalidArgument, domain.CodeNotFound, domain.CodeUnimplemented:
			return domain.Outcome{Code: code, Detail: s.Message()}
		}
	}
	return domain.Failed(op)
}
