// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/armonia/auth"
	"github.com/danielhkuo/armonia/middleware"
	"github.com/danielhkuo/armonia/service"
)

// principal returns the authenticated caller, writing a 401 when there is none
func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
	}
	return p, ok
}

// serviceError maps service errors to HTTP statuses
func serviceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidOption):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotAuthorized), errors.Is(err, service.ErrNotAttending), errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrDuplicate):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		// Service already logged the cause
		slog.Debug("request failed", "error", err)
		middleware.ErrorResponse(w, status, "Internal server error")
		return
	}
	middleware.ErrorResponse(w, status, err.Error())
}

func ipHash(r *http.Request, salt string) *string {
	h := auth.HashIP(middleware.GetClientIP(r), salt)
	return &h
}
