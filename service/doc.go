// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package service implements the assembly operations shared by the HTTP
handlers and the WebSocket gateway.

# Operations

  - Directory: CreateProperty, CreateUnit, ListUnits, UpdateUnitCoefficient,
    CreateUser, AddUnitMember
  - Assemblies: CreateAssembly, ListAssemblies, GetAssembly, UpdateAssembly,
    DeleteAssembly, StartAssembly, EndAssembly, CancelAssembly
  - Attendance: RegisterAttendance, ListAttendance, CalculateQuorum
  - Votes: CreateVote, ListVotes, GetVote, CastVote, CalculateVoteResults,
    VoteResults, EndVote
  - Minutes: GenerateMeetingMinutes, GetMinutes, ExportMinutes

Every operation is scoped to the caller's tenant (auth.Principal.TenantID).

# Lifecycle

	SCHEDULED ──Start──▶ IN_PROGRESS ──End──▶ COMPLETED
	    │                    │
	    └───────Cancel───────┴──────▶ CANCELLED

Start requires quorum. End and Cancel require every vote to be closed.
Attendance is accepted while SCHEDULED or IN_PROGRESS; votes are created
only IN_PROGRESS.

# Consistency

Each mutation runs in one store transaction. Attendance and ballots are
upserted under unique (assembly, unit) and (vote, unit) keys. Events are
published and notifications sent only after the transaction commits.

Assembly lifecycle events (assemblyStarted, assemblyEnded, assemblyCancelled)
go to the whole tenant through Publisher.BroadcastToSchema, so residents see
them before joining a room. Everything else is published to the assembly's
room.

# Minutes Signing

RegisterSigners moves DRAFT minutes to SIGNING and sets the required count to
the number of registered signers. Each signer signs once with SignMinutes;
only the registered user may sign. The last signature moves the minutes to
SIGNED and publishes minutesSigned to the room.

	DRAFT ──RegisterSigners──▶ SIGNING ──last SignMinutes──▶ SIGNED

# Re-cast Weight

Config.PreserveOriginalWeight decides what a re-cast ballot weighs: true
keeps the coefficient captured at the first cast, false takes the unit's
current coefficient.

# Errors

Returned errors wrap one of ErrNotFound, ErrValidation, ErrInvalidState,
ErrInvalidOption, ErrNotAuthorized, ErrNotAttending or ErrForbidden, or a
storage error. Every failure is logged with the entity ids involved.
*/
package service
