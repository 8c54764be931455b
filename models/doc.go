// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePropertyRequest, CreateUnitRequest, UpdateCoefficientRequest
  - CreateUserRequest, AddUnitMemberRequest
  - CreateAssemblyRequest, UpdateAssemblyRequest
  - RegisterAttendanceRequest: unit_id (user_id for admins only)
  - CreateVoteRequest: title, description, options, weighted
  - CastVoteRequest: unit_id, option

# Domain Types

  - Property, Unit, User, UnitMember: the complex directory
  - Assembly: lifecycle SCHEDULED → IN_PROGRESS → COMPLETED (or CANCELLED)
  - Attendance: one row per unit per assembly
  - Vote, Ballot: one ballot per unit per vote
  - Minutes, MinutesDocument: generated meeting minutes

# Result Types

  - QuorumResult: present vs total coefficients for an assembly
  - VoteResults: per-option count, weight and percentage

# Realtime Types

Every WebSocket frame is an Event envelope:

	{"event": "joinAssembly", "data": {"assemblyId": "..."}}

Client messages: JoinAssemblyMessage, RegisterAttendanceMessage, SubmitVoteMessage.
Server messages carry QuorumResult, VoteResultsUpdate, Vote or ErrorMessage.

# Constants

Assembly status:

	AssemblyScheduled  = "SCHEDULED"
	AssemblyInProgress = "IN_PROGRESS"
	AssemblyCompleted  = "COMPLETED"
	AssemblyCancelled  = "CANCELLED"

Vote status:

	VoteActive    = "ACTIVE"
	VoteCompleted = "COMPLETED"

Principal roles:

	RoleAdmin    = "admin"
	RoleResident = "resident"
*/
package models
