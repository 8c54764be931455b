// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/armonia/cliparse"
	"github.com/danielhkuo/armonia/middleware"
	"github.com/danielhkuo/armonia/models"
	"github.com/danielhkuo/armonia/service"
)

type DirectoryHandler struct {
	svc *service.Service
	cfg cliparse.Config
}

func NewDirectoryHandler(svc *service.Service, cfg cliparse.Config) *DirectoryHandler {
	return &DirectoryHandler{svc: svc, cfg: cfg}
}

// CreateProperty handles POST /properties
func (h *DirectoryHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req models.CreatePropertyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	prop, err := h.svc.CreateProperty(r.Context(), p, req)
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, prop)
}

// CreateUnit handles POST /properties/{id}/units
func (h *DirectoryHandler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req models.CreateUnitRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	unit, err := h.svc.CreateUnit(r.Context(), p, r.PathValue("id"), req)
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, unit)
}

// ListUnits handles GET /properties/{id}/units
func (h *DirectoryHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	units, err := h.svc.ListUnits(r.Context(), p, r.PathValue("id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	if units == nil {
		units = []models.Unit{}
	}
	middleware.JSONResponse(w, http.StatusOK, units)
}

// UpdateCoefficient handles PUT /units/{id}/coefficient
func (h *DirectoryHandler) UpdateCoefficient(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req models.UpdateCoefficientRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	unit, err := h.svc.UpdateUnitCoefficient(r.Context(), p, r.PathValue("id"), req.Coefficient)
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, unit)
}

// AddMember handles POST /units/{id}/members
func (h *DirectoryHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req models.AddUnitMemberRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	unitID := r.PathValue("id")
	if err := h.svc.AddUnitMember(r.Context(), p, unitID, req); err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, models.UnitMember{UnitID: unitID, UserID: req.UserID, Role: req.Role})
}

// CreateUser handles POST /users
func (h *DirectoryHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req models.CreateUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	user, err := h.svc.CreateUser(r.Context(), p, req)
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, user)
}
