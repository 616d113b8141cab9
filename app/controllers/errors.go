package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shashiranjanraj/diner/app/services"
	"github.com/shashiranjanraj/diner/pkg/bind"
	"github.com/shashiranjanraj/diner/pkg/logger"
	"github.com/shashiranjanraj/diner/pkg/response"
	"github.com/shashiranjanraj/diner/pkg/router"
)

// fail maps a service error onto the HTTP response. Unknown errors are
// logged and answered with a 500 carrying fallback.
func fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		validation *services.ValidationError
		forbidden  *services.AuthorizationError
		notFound   *services.NotFoundError
		conflict   *services.StateError
		provider   *services.PaymentProviderError
	)

	switch {
	case errors.As(err, &validation):
		if len(validation.Fields) == 0 {
			response.Error(w, http.StatusBadRequest, validation.Message)
			return
		}
		response.ValidationError(w, validation.Fields)
	case errors.Is(err, services.ErrInvalidCredentials):
		response.Error(w, http.StatusBadRequest, "Invalid credentials")
	case errors.As(err, &forbidden):
		response.Forbidden(w, forbidden.Message)
	case errors.As(err, &notFound):
		response.NotFound(w, notFound.Error())
	case errors.As(err, &conflict):
		response.Error(w, http.StatusConflict, conflict.Message)
	case errors.As(err, &provider):
		logger.WithCtx(r.Context()).Error("payment provider call failed", "op", provider.Op, "error", provider.Err)
		response.ErrorWithDetails(w, http.StatusInternalServerError, fallback, provider.Detail)
	default:
		logger.WithCtx(r.Context()).Error(fallback, "error", err)
		response.Error(w, http.StatusInternalServerError, fallback)
	}
}

// decode binds the JSON body into dest and writes the 400 itself when it
// cannot.
func decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	errs, err := bind.JSON(w, r, dest)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return false
	}
	return true
}

// idParam reads a positive numeric URL parameter.
func idParam(w http.ResponseWriter, r *http.Request, name, label string) (uint, bool) {
	id, err := strconv.ParseUint(router.Param(r, name), 10, 64)
	if err != nil || id == 0 {
		response.Error(w, http.StatusBadRequest, "Invalid "+label)
		return 0, false
	}
	return uint(id), true
}
