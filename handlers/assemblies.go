// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/danielhkuo/armonia/auth"
	"github.com/danielhkuo/armonia/cliparse"
	"github.com/danielhkuo/armonia/middleware"
	"github.com/danielhkuo/armonia/models"
	"github.com/danielhkuo/armonia/service"
)

type AssemblyHandler struct {
	svc *service.Service
	cfg cliparse.Config
}

func NewAssemblyHandler(svc *service.Service, cfg cliparse.Config) *AssemblyHandler {
	return &AssemblyHandler{svc: svc, cfg: cfg}
}

// CreateAssembly handles POST /assemblies
func (h *AssemblyHandler) CreateAssembly(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req models.CreateAssemblyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	a, err := h.svc.CreateAssembly(r.Context(), p, req)
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, a)
}

// ListAssemblies handles GET /assemblies
func (h *AssemblyHandler) ListAssemblies(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	assemblies, err := h.svc.ListAssemblies(r.Context(), p)
	if err != nil {
		serviceError(w, err)
		return
	}
	if assemblies == nil {
		assemblies = []models.Assembly{}
	}
	middleware.JSONResponse(w, http.StatusOK, assemblies)
}

// GetAssembly handles GET /assemblies/{id}
func (h *AssemblyHandler) GetAssembly(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	a, err := h.svc.GetAssembly(r.Context(), p, r.PathValue("id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, a)
}

// UpdateAssembly handles PUT /assemblies/{id}
func (h *AssemblyHandler) UpdateAssembly(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req models.UpdateAssemblyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	a, err := h.svc.UpdateAssembly(r.Context(), p, r.PathValue("id"), req)
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, a)
}

// DeleteAssembly handles DELETE /assemblies/{id}
func (h *AssemblyHandler) DeleteAssembly(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteAssembly(r.Context(), p, r.PathValue("id")); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartAssembly handles POST /assemblies/{id}/start
func (h *AssemblyHandler) StartAssembly(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.StartAssembly)
}

// EndAssembly handles POST /assemblies/{id}/end
func (h *AssemblyHandler) EndAssembly(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.EndAssembly)
}

// CancelAssembly handles POST /assemblies/{id}/cancel
func (h *AssemblyHandler) CancelAssembly(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.CancelAssembly)
}

type transitionFunc func(ctx context.Context, p auth.Principal, id string) (*models.Assembly, error)

func (h *AssemblyHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	a, err := fn(r.Context(), p, r.PathValue("id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, a)
}

// RegisterAttendance handles POST /assemblies/{id}/attendance
func (h *AssemblyHandler) RegisterAttendance(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req models.RegisterAttendanceRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	resp, err := h.svc.RegisterAttendance(r.Context(), p, r.PathValue("id"), req, ipHash(r, h.cfg.IPHashSalt))
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// ListAttendance handles GET /assemblies/{id}/attendance
func (h *AssemblyHandler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	attendees, err := h.svc.ListAttendance(r.Context(), p, r.PathValue("id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	if attendees == nil {
		attendees = []models.AttendeeDetail{}
	}
	middleware.JSONResponse(w, http.StatusOK, attendees)
}

// QuorumStatus handles GET /assemblies/{id}/quorum-status
func (h *AssemblyHandler) QuorumStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	q, err := h.svc.CalculateQuorum(r.Context(), p, r.PathValue("id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, q)
}
