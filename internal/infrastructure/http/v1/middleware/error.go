package middleware

import (
	"github.com/gin-gonic/gin"

	"atelier/internal/core/apperror"
	"atelier/internal/infrastructure/http/v1/dto"
	"atelier/internal/infrastructure/storage/postgres"
	"atelier/pkg/logger"
)

// ErrorHandler turns the last error registered on the gin context into a
// failure envelope. Causes are logged, never returned to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		ctx := c.Request.Context()
		appErr := apperror.Wrap(postgres.MapError(c.Errors.Last().Err))
		if appErr.Err != nil {
			logger.Error(ctx, "request error",
				"code", appErr.Code,
				"cause", appErr.Err,
			)
		}
		if appErr.Code == apperror.CodeInternal {
			appErr = &apperror.AppError{
				Code:       apperror.CodeInternal,
				Message:    "Internal server error",
				HTTPStatus: appErr.HTTPStatus,
				Details:    map[string]any{"request_id": c.GetString("request_id")},
			}
		}

		body := dto.Failure(appErr)
		finishIdempotency(c, appErr, body)
		c.JSON(appErr.HTTPStatus, body)
	}
}

// finishIdempotency records the failure under the request's idempotency
// key. Retryable failures release the key instead, so a retry runs again.
func finishIdempotency(c *gin.Context, appErr *apperror.AppError, body dto.ErrorResponse) {
	key, store, ok := idempotencyFrom(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var err error
	switch appErr.Code {
	case apperror.CodeAborted, apperror.CodeInternal:
		err = store.ReleaseKey(ctx, key)
	default:
		err = store.FailKey(ctx, key, appErr.HTTPStatus, body)
	}
	if err != nil {
		logger.Warn(ctx, "failed to record idempotency result", "key", key, "error", err)
	}
}
