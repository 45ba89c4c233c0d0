package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/carpool"
	"carpool/internal/logger"
	"carpool/internal/model"
	"carpool/internal/service"
	"carpool/internal/store"
)

// writeError maps domain errors to a status and an ErrorResponse body.
// Anything unrecognised is logged and reported as a 500 without detail.
func writeError(c *gin.Context, err error) {
	var verr *carpool.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]string, len(verr.Fields))
		for i, f := range verr.Fields {
			fields[i] = f.Error()
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "validation failed", Fields: fields})
	case errors.Is(err, carpool.ErrInvalidDay),
		errors.Is(err, carpool.ErrInvalidRole),
		errors.Is(err, carpool.ErrUnknownMember),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrEmptyPassword),
		errors.Is(err, service.ErrEmptyUsername):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrBadCredentials):
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrUserNotFound), errors.Is(err, store.ErrMemberNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: err.Error()})
	default:
		logger.Error("http.internal_error", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "internal error"})
	}
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid request"})
}
