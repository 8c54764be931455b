// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package realtime pushes assembly events to WebSocket clients.

# Hub

Hub is the connection registry. Clients are indexed by id, by tenant and by
room; an assembly's room is named

	assembly-<assemblyID>-<tenantID>

so identical assembly ids in two tenants never share subscribers. Hub
implements service.Publisher:

	hub := realtime.NewHub(logger, m)
	svc := service.New(st, cfg, service.Deps{Publisher: hub})

Delivery never blocks: each client owns a buffered queue and a full queue
drops the frame (logged and counted in armonia_ws_dropped_messages_total).

# Gateway

Gateway serves GET /ws. The bearer token comes from the Authorization header
or the token query parameter. Frames in both directions use the envelope

	{"event": "<name>", "data": {...}}

Client events:

	joinAssembly        {"assemblyId"}                     subscribe, reply with quorumUpdate
	leaveAssembly       {"assemblyId"}                     unsubscribe
	registerAttendance  {"assemblyId", "unitId"}           register and subscribe
	submitVote          {"voteId", "unitId", "option"}     cast or replace a ballot

Server events sent to an assembly's room: quorumUpdate, voteResultsUpdate,
voteCreated, voteEnded, minutesSigned and error {"message"}.

assemblyStarted, assemblyEnded and assemblyCancelled go to every client of
the tenant through BroadcastToSchema, joined or not.
*/
package realtime
