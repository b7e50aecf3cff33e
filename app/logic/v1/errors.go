package v1

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/errors"
	"github.com/tablehub/tablehub/pkg/i18n"
)

// translateErr maps domain and storage errors onto api errors. Errors that are already
// customized only get the trace appended.
func translateErr(trace string, err error) error {
	if err == nil {
		return nil
	}
	var ce *errors.CustomizedError
	if errors.As(err, &ce) {
		return ce.Trace(trace)
	}

	switch {
	case errors.Is(err, dyntable.ErrPermissionDenied):
		return errors.New(trace, i18n.ERROR_PERMISSION_DENIED, err).Code(http.StatusForbidden)
	case errors.Is(err, dyntable.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return errors.New(trace, i18n.ERROR_NOT_FOUND, err).Code(http.StatusNotFound)
	case errors.Is(err, dyntable.ErrAlreadyExists):
		return errors.New(trace, i18n.ERROR_EXIST, err).Code(http.StatusConflict)
	case errors.Is(err, dyntable.ErrInvalidColumnType):
		return detailed(errors.New(trace, i18n.ERROR_INVALID_COLUMN_TYPE, err).Code(http.StatusBadRequest), err)
	case errors.Is(err, dyntable.ErrValidation):
		return detailed(errors.New(trace, i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest), err)
	case errors.Is(err, dyntable.ErrMaterializationIncomplete):
		return detailed(errors.New(trace, i18n.ERROR_MATERIALIZATION_INCOMPLETE, err).Code(http.StatusServiceUnavailable), err)
	default:
		return errors.New(trace, i18n.ERROR_INTERNAL, err)
	}
}

func detailed(ce *errors.CustomizedError, err error) *errors.CustomizedError {
	return ce.WithData(map[string]interface{}{"detail": err.Error()})
}

func permissionDenied(trace string) error {
	return errors.New(trace, i18n.ERROR_PERMISSION_DENIED, dyntable.ErrPermissionDenied).Code(http.StatusForbidden)
}

// requireReason rejects a mutation without a reason before anything is written.
func requireReason(trace, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return errors.New(trace, i18n.ERROR_REASON_REQUIRED, dyntable.ErrValidation).Code(http.StatusBadRequest)
	}
	return nil
}

func invalidArgument(trace string, err error) error {
	return detailed(errors.New(trace, i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest), err)
}
