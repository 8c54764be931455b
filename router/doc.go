// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Armonía API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(svc, gateway, m, cfg)

Every API route is logged and timed. Routes marked admin require a token
with the admin role; the others accept any authenticated principal.

# Endpoints

Infrastructure:

	GET /health   - Liveness
	GET /metrics  - Prometheus metrics (when METRICS_ENABLED)
	GET /ws       - WebSocket gateway

Directory:

	POST /properties                - Create property (admin)
	POST /properties/{id}/units     - Create unit (admin)
	GET  /properties/{id}/units     - List units
	PUT  /units/{id}/coefficient    - Change coefficient (admin)
	POST /units/{id}/members        - Add owner or delegate (admin)
	POST /users                     - Create user (admin)

Assemblies:

	POST   /assemblies                        - Schedule (admin)
	GET    /assemblies                        - List
	GET    /assemblies/{id}                   - Get
	PUT    /assemblies/{id}                   - Update (admin)
	DELETE /assemblies/{id}                   - Delete (admin)
	POST   /assemblies/{id}/start|end|cancel  - Lifecycle (admin)
	POST   /assemblies/{id}/attendance        - Register attendance
	GET    /assemblies/{id}/attendance        - List attendees
	GET    /assemblies/{id}/quorum-status     - Current quorum

Votes:

	POST /assemblies/{id}/votes       - Open a vote (admin)
	GET  /assemblies/{id}/votes       - List votes
	GET  /votes/{voteId}              - Get vote
	POST /votes/{voteId}/submit-vote  - Cast or change a ballot
	GET  /votes/{voteId}/results      - Results
	POST /votes/{voteId}/end          - Close and snapshot (admin)

Minutes:

	POST /assemblies/{id}/generate-minutes  - Generate (admin)
	GET  /assemblies/{id}/minutes           - Latest minutes
	GET  /assemblies/{id}/minutes/export    - XLSX download
	POST /minutes/{minutesId}/signers       - Register signers (admin)
	GET  /minutes/{minutesId}/signatures    - Signature slots
	POST /signatures/{signatureId}/sign     - Sign as the named signer
*/
package router
