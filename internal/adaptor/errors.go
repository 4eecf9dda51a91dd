package adaptor

import (
	"errors"
	"net/http"

	"carwash-booking/pkg/apperror"
	"carwash-booking/pkg/utils"

	"go.uber.org/zap"
)

// writeError maps a service error onto the response envelope. Unclassified
// errors are logged and answered with a bare 500.
func writeError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperror.KindInternal {
		log.Error("Unexpected error", zap.String("operation", operation), zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	switch appErr.Kind {
	case apperror.KindValidation, apperror.KindSignature:
		utils.ResponseBadRequest(w, appErr.Message, nil)
	case apperror.KindUnauthenticated:
		utils.ResponseUnauthorized(w, appErr.Message)
	case apperror.KindAuthorization:
		utils.ResponseForbidden(w, appErr.Message)
	case apperror.KindNotFound:
		utils.ResponseNotFound(w, appErr.Message)
	case apperror.KindConflict:
		utils.ResponseConflict(w, appErr.Message)
	case apperror.KindPayment:
		log.Error("Payment gateway error", zap.String("operation", operation), zap.Error(err))
		utils.ResponseBadGateway(w, appErr.Message)
	default:
		utils.ResponseJSON(w, appErr.Kind.HTTPStatus(), false, appErr.Message, nil, nil)
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := jsonDecode(r, v); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}
