// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/armonia/cliparse"
	"github.com/danielhkuo/armonia/middleware"
	"github.com/danielhkuo/armonia/models"
	"github.com/danielhkuo/armonia/service"
)

type MinutesHandler struct {
	svc *service.Service
	cfg cliparse.Config
}

func NewMinutesHandler(svc *service.Service, cfg cliparse.Config) *MinutesHandler {
	return &MinutesHandler{svc: svc, cfg: cfg}
}

// GenerateMinutes handles POST /assemblies/{id}/generate-minutes
func (h *MinutesHandler) GenerateMinutes(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	m, err := h.svc.GenerateMeetingMinutes(r.Context(), p, r.PathValue("id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, m)
}

// GetMinutes handles GET /assemblies/{id}/minutes
func (h *MinutesHandler) GetMinutes(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	m, err := h.svc.GetMinutes(r.Context(), p, r.PathValue("id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, m)
}

// ExportMinutes handles GET /assemblies/{id}/minutes/export
func (h *MinutesHandler) ExportMinutes(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	artifact, err := h.svc.ExportMinutes(r.Context(), p, r.PathValue("id"))
	if err != nil {
		serviceError(w, err)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+artifact.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		slog.Warn("failed to write minutes export", "assembly_id", r.PathValue("id"), "error", err)
	}
}

// RegisterSigners handles POST /minutes/{minutesId}/signers
func (h *MinutesHandler) RegisterSigners(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req models.RegisterSignersRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	signatures, err := h.svc.RegisterSigners(r.Context(), p, r.PathValue("minutesId"), req)
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, signatures)
}

// ListSignatures handles GET /minutes/{minutesId}/signatures
func (h *MinutesHandler) ListSignatures(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	signatures, err := h.svc.ListSignatures(r.Context(), p, r.PathValue("minutesId"))
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, signatures)
}

// SignMinutes handles POST /signatures/{signatureId}/sign
func (h *MinutesHandler) SignMinutes(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	resp, err := h.svc.SignMinutes(r.Context(), p, r.PathValue("signatureId"), ipHash(r, h.cfg.IPHashSalt), r.UserAgent())
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
