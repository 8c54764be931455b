// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/armonia/cliparse"
	"github.com/danielhkuo/armonia/handlers"
	"github.com/danielhkuo/armonia/metrics"
	"github.com/danielhkuo/armonia/middleware"
	"github.com/danielhkuo/armonia/service"
)

// NewRouter registers every endpoint. gateway serves /ws and is mounted
// without the logging wrappers, which would hide the connection hijacker.
func NewRouter(svc *service.Service, gateway http.Handler, m *metrics.Metrics, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	directoryHandler := handlers.NewDirectoryHandler(svc, cfg)
	assemblyHandler := handlers.NewAssemblyHandler(svc, cfg)
	votingHandler := handlers.NewVotingHandler(svc, cfg)
	minutesHandler := handlers.NewMinutesHandler(svc, cfg)

	logged := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.WithMetrics(m, h))
	}
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return logged(middleware.RequireAuth(cfg.JWTSecret, h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return logged(middleware.RequireAdmin(cfg.JWTSecret, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.MetricsEnabled && m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	if gateway != nil {
		mux.Handle("GET /ws", gateway)
	}

	// Directory (admin operations)
	mux.HandleFunc("POST /properties", admin(directoryHandler.CreateProperty))
	mux.HandleFunc("POST /properties/{id}/units", admin(directoryHandler.CreateUnit))
	mux.HandleFunc("GET /properties/{id}/units", authed(directoryHandler.ListUnits))
	mux.HandleFunc("PUT /units/{id}/coefficient", admin(directoryHandler.UpdateCoefficient))
	mux.HandleFunc("POST /units/{id}/members", admin(directoryHandler.AddMember))
	mux.HandleFunc("POST /users", admin(directoryHandler.CreateUser))

	// Assembly lifecycle
	mux.HandleFunc("POST /assemblies", admin(assemblyHandler.CreateAssembly))
	mux.HandleFunc("GET /assemblies", authed(assemblyHandler.ListAssemblies))
	mux.HandleFunc("GET /assemblies/{id}", authed(assemblyHandler.GetAssembly))
	mux.HandleFunc("PUT /assemblies/{id}", admin(assemblyHandler.UpdateAssembly))
	mux.HandleFunc("DELETE /assemblies/{id}", admin(assemblyHandler.DeleteAssembly))
	mux.HandleFunc("POST /assemblies/{id}/start", admin(assemblyHandler.StartAssembly))
	mux.HandleFunc("POST /assemblies/{id}/end", admin(assemblyHandler.EndAssembly))
	mux.HandleFunc("POST /assemblies/{id}/cancel", admin(assemblyHandler.CancelAssembly))

	// Attendance and quorum
	mux.HandleFunc("POST /assemblies/{id}/attendance", authed(assemblyHandler.RegisterAttendance))
	mux.HandleFunc("GET /assemblies/{id}/attendance", authed(assemblyHandler.ListAttendance))
	mux.HandleFunc("GET /assemblies/{id}/quorum-status", authed(assemblyHandler.QuorumStatus))

	// Voting
	mux.HandleFunc("POST /assemblies/{id}/votes", admin(votingHandler.CreateVote))
	mux.HandleFunc("GET /assemblies/{id}/votes", authed(votingHandler.ListVotes))
	mux.HandleFunc("GET /votes/{voteId}", authed(votingHandler.GetVote))
	mux.HandleFunc("POST /votes/{voteId}/submit-vote", authed(votingHandler.SubmitVote))
	mux.HandleFunc("GET /votes/{voteId}/results", authed(votingHandler.GetResults))
	mux.HandleFunc("POST /votes/{voteId}/end", admin(votingHandler.EndVote))

	// Minutes
	mux.HandleFunc("POST /assemblies/{id}/generate-minutes", admin(minutesHandler.GenerateMinutes))
	mux.HandleFunc("GET /assemblies/{id}/minutes", authed(minutesHandler.GetMinutes))
	mux.HandleFunc("GET /assemblies/{id}/minutes/export", authed(minutesHandler.ExportMinutes))
	mux.HandleFunc("POST /minutes/{minutesId}/signers", admin(minutesHandler.RegisterSigners))
	mux.HandleFunc("GET /minutes/{minutesId}/signatures", authed(minutesHandler.ListSignatures))
	mux.HandleFunc("POST /signatures/{signatureId}/sign", authed(minutesHandler.SignMinutes))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("armonia API v1"))
	})

	return mux
}
