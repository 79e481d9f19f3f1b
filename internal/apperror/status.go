package apperror

import (
	"context"
	"errors"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GRPCCode maps an error kind to a transport code. Unknown errors are Internal.
func GRPCCode(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, ErrValidation):
		return codes.InvalidArgument
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrAlreadyCancelled):
		return codes.FailedPrecondition
	case errors.Is(err, ErrAlreadyConsumed):
		return codes.AlreadyExists
	case errors.Is(err, ErrConflict):
		return codes.Aborted
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	return codes.Internal
}

// ToStatus never leaks internal error text.
func ToStatus(err error) *status.Status {
	code := GRPCCode(err)
	if code == codes.Internal {
		return status.New(code, "internal error")
	}
	return status.New(code, err.Error())
}

func HTTPStatus(err error) int {
	return runtime.HTTPStatusFromCode(GRPCCode(err))
}

// Response renders err as a JSON body: kind, message and the structured details.
func Response(err error) map[string]interface{} {
	st := ToStatus(err)
	body := map[string]interface{}{
		"code":    st.Code().String(),
		"message": st.Message(),
	}
	if details := Details(err); len(details) > 0 {
		body["details"] = details
	}
	return body
}

func Details(err error) map[string]interface{} {
	var (
		ve  *ValidationError
		nf  *NotFoundError
		ins *InsufficientStockError
		ac  *AlreadyConsumedError
	)
	switch {
	case errors.As(err, &ins):
		return map[string]interface{}{
			"box_id":    ins.BoxID,
			"color":     ins.Color,
			"available": ins.Available,
			"requested": ins.Requested,
		}
	case errors.As(err, &ac):
		return map[string]interface{}{"ids": ac.IDs}
	case errors.As(err, &nf):
		return map[string]interface{}{"resource": nf.Resource, "id": nf.ID}
	case errors.As(err, &ve):
		if len(ve.Fields) > 0 {
			return map[string]interface{}{"fields": ve.Fields}
		}
		return map[string]interface{}{"field": ve.Field, "reason": ve.Reason}
	}
	return nil
}
