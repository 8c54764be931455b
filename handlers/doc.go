// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Armonía API.

# Handler Types

Each handler is a thin struct over the assembly service:

  - DirectoryHandler: properties, units, coefficients, users and memberships
  - AssemblyHandler: assembly lifecycle, attendance and quorum
  - VotingHandler: votes, ballots and results
  - MinutesHandler: minutes generation, export and signing

Handlers are created via constructor functions that accept the service and Config:

	assemblyHandler := handlers.NewAssemblyHandler(svc, cfg)

Every handler expects the principal placed in the request context by
middleware.RequireAuth and answers 401 without one.

# Assembly Lifecycle

Assemblies progress SCHEDULED → IN_PROGRESS → COMPLETED, or to CANCELLED:

	POST /assemblies/{id}/start   → StartAssembly (requires quorum)
	POST /assemblies/{id}/end     → EndAssembly (no active votes)
	POST /assemblies/{id}/cancel  → CancelAssembly

# Voting Flow

Residents register attendance for a unit they own or represent, then vote:

	POST /assemblies/{id}/attendance   → RegisterAttendance (create or update)
	GET  /votes/{voteId}               → GetVote
	POST /votes/{voteId}/submit-vote   → SubmitVote (201 on first cast, 200 on change)
	GET  /votes/{voteId}/results       → GetResults (live, or the snapshot once closed)

# Minutes Signing

	POST /minutes/{minutesId}/signers        → RegisterSigners (admin, 201)
	GET  /minutes/{minutesId}/signatures     → ListSignatures
	POST /signatures/{signatureId}/sign      → SignMinutes (registered signer only)

# Errors

Service errors map to statuses:

	ErrNotFound                                  404
	ErrValidation, ErrInvalidOption              400
	ErrNotAuthorized, ErrNotAttending, ErrForbidden  403
	ErrInvalidState, ErrDuplicate                409
	anything else                                500
*/
package handlers
