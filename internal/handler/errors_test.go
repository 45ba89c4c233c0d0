package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"carpool/internal/carpool"
	"carpool/internal/service"
	"carpool/internal/store"
)

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"validation", &carpool.ValidationError{Fields: []carpool.FieldError{{Field: "ZZ", Value: "R", Err: carpool.ErrUnknownMember}}}, http.StatusBadRequest, `ZZ=\"R\": unknown member`},
		{"day", fmt.Errorf("%w: %q", carpool.ErrInvalidDay, "x"), http.StatusBadRequest, "invalid day"},
		{"credentials", service.ErrBadCredentials, http.StatusUnauthorized, "wrong username"},
		{"forbidden", fmt.Errorf("%w: edits are limited to admins", service.ErrForbidden), http.StatusForbidden, "forbidden"},
		{"user", fmt.Errorf("%w: ghost", store.ErrUserNotFound), http.StatusNotFound, "ghost"},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		t.Run("Should map "+tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			writeError(c, tc.err)
			assert.Equal(t, tc.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
			assert.NotContains(t, rec.Body.String(), "disk on fire")
		})
	}
}
