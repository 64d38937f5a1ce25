package entities

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/johnwards/repoquery/internal/api"
	"github.com/johnwards/repoquery/internal/metrics"
	"github.com/johnwards/repoquery/internal/order"
	"github.com/johnwards/repoquery/internal/store"
	"github.com/johnwards/repoquery/internal/where"
)

// Error detail codes for rejected filter and order specifications.
const (
	CodeUnknownField      = "UNKNOWN_FIELD"
	CodeInvalidDirection  = "INVALID_DIRECTION"
	CodeUnknownSortOption = "UNKNOWN_SORT_OPTION"
	CodeInvalidSortValue  = "INVALID_SORT_VALUE"
	CodeMalformedOrder    = "MALFORMED_ORDER"
	CodeMalformedOperand  = "MALFORMED_OPERAND"
	CodeUnknownOperator   = "UNKNOWN_OPERATOR"
)

func kindCode(kind error) string {
	switch {
	case errors.Is(kind, order.ErrUnknownField):
		return CodeUnknownField
	case errors.Is(kind, order.ErrInvalidDirection):
		return CodeInvalidDirection
	case errors.Is(kind, order.ErrUnknownSortOption):
		return CodeUnknownSortOption
	case errors.Is(kind, order.ErrInvalidSortValue):
		return CodeInvalidSortValue
	case errors.Is(kind, order.ErrMalformedSpec):
		return CodeMalformedOrder
	case errors.Is(kind, where.ErrUnknownOperator):
		return CodeUnknownOperator
	case errors.Is(kind, where.ErrMalformedOperand):
		return CodeMalformedOperand
	}
	return ""
}

// queryErrorDetails breaks a rejected filter or order specification into one
// detail per problem. It reports false for any other error.
func queryErrorDetails(err error) ([]api.ErrorDetail, bool) {
	var orderErrs order.Errors
	if errors.As(err, &orderErrs) {
		details := make([]api.ErrorDetail, len(orderErrs))
		for i, fe := range orderErrs {
			details[i] = api.ErrorDetail{
				Message: fe.Error(),
				Code:    kindCode(fe.Kind),
				In:      fe.Field,
			}
			if len(fe.Allowed) > 0 && fe.Kind != order.ErrUnknownField {
				details[i].Context = map[string][]string{"allowed": fe.Allowed}
			}
		}
		return details, true
	}

	var whereErr *where.Error
	if errors.As(err, &whereErr) {
		return []api.ErrorDetail{{Message: whereErr.Error(), Code: kindCode(whereErr.Kind), In: whereErr.Path}}, true
	}

	var fieldErr *store.FieldError
	if errors.As(err, &fieldErr) {
		return []api.ErrorDetail{{Message: fieldErr.Error(), Code: CodeUnknownField, In: fieldErr.Path}}, true
	}

	if errors.Is(err, order.ErrMalformedSpec) {
		return []api.ErrorDetail{{Message: err.Error(), Code: CodeMalformedOrder}}, true
	}

	return nil, false
}

// writeStoreError maps a repository error onto an HTTP error response.
func writeStoreError(w http.ResponseWriter, r *http.Request, entity string, err error) {
	corrID := api.CorrelationID(r.Context())

	if details, ok := queryErrorDetails(err); ok {
		for _, d := range details {
			metrics.QueryErrorsTotal.WithLabelValues(entity, d.Code).Inc()
		}
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError(details[0].Message, corrID, details))
		return
	}

	var validationErr *store.ValidationError
	switch {
	case errors.As(err, &validationErr):
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError(validationErr.Message, corrID, nil))
	case errors.Is(err, store.ErrNotFound):
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError(err.Error(), corrID))
	case errors.Is(err, store.ErrConflict):
		api.WriteError(w, http.StatusConflict, api.NewConflictError(err.Error(), corrID))
	default:
		slog.Error("repository operation failed", "entity", entity, "error", err, "correlationId", corrID)
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(corrID))
	}
}
