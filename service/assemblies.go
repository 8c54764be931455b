// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danielhkuo/armonia/auth"
	"github.com/danielhkuo/armonia/models"
	"github.com/danielhkuo/armonia/store"
	"github.com/danielhkuo/armonia/tally"
)

func (s *Service) CreateAssembly(ctx context.Context, p auth.Principal, req models.CreateAssemblyRequest) (*models.Assembly, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, s.fail(ctx, "assembly rejected", fmt.Errorf("%w: title is required", ErrValidation), "tenant_id", p.TenantID)
	}
	if req.PropertyID == "" {
		return nil, s.fail(ctx, "assembly rejected", fmt.Errorf("%w: property_id is required", ErrValidation), "tenant_id", p.TenantID)
	}
	if err := validateQuorum(req.RequiredQuorum); err != nil {
		return nil, s.fail(ctx, "assembly rejected", err, "tenant_id", p.TenantID)
	}

	if _, err := s.store.GetProperty(ctx, p.TenantID, req.PropertyID); err != nil {
		return nil, s.fail(ctx, "assembly rejected", err, "property_id", req.PropertyID)
	}

	now := s.now()
	a := models.Assembly{
		ID:             auth.GenerateID(),
		TenantID:       p.TenantID,
		PropertyID:     req.PropertyID,
		Title:          title,
		Description:    req.Description,
		Location:       req.Location,
		Status:         models.AssemblyScheduled,
		RequiredQuorum: req.RequiredQuorum,
		ScheduledDate:  req.ScheduledDate,
		CreatedBy:      p.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateAssembly(ctx, &a); err != nil {
		return nil, s.fail(ctx, "failed to create assembly", err, "tenant_id", p.TenantID)
	}

	s.log.Info("assembly created", "tenant_id", p.TenantID, "assembly_id", a.ID)
	return &a, nil
}

func (s *Service) ListAssemblies(ctx context.Context, p auth.Principal) ([]models.Assembly, error) {
	assemblies, err := s.store.ListAssemblies(ctx, p.TenantID)
	if err != nil {
		return nil, s.fail(ctx, "failed to list assemblies", err, "tenant_id", p.TenantID)
	}
	return assemblies, nil
}

func (s *Service) GetAssembly(ctx context.Context, p auth.Principal, id string) (*models.Assembly, error) {
	a, err := s.store.GetAssembly(ctx, p.TenantID, id)
	if err != nil {
		return nil, s.fail(ctx, "failed to get assembly", err, "assembly_id", id)
	}
	return a, nil
}

// UpdateAssembly changes metadata. Status only moves through Start, End and Cancel.
func (s *Service) UpdateAssembly(ctx context.Context, p auth.Principal, id string, req models.UpdateAssemblyRequest) (*models.Assembly, error) {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, s.fail(ctx, "assembly update rejected", fmt.Errorf("%w: title must not be empty", ErrValidation), "assembly_id", id)
	}
	if err := validateQuorum(req.RequiredQuorum); err != nil {
		return nil, s.fail(ctx, "assembly update rejected", err, "assembly_id", id)
	}

	var updated *models.Assembly
	err := s.store.WithTx(ctx, func(r *store.Repo) error {
		a, err := r.GetAssembly(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		if a.Status == models.AssemblyCancelled {
			return fmt.Errorf("%w: assembly is %s", ErrInvalidState, a.Status)
		}

		if req.Title != nil {
			a.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			a.Description = *req.Description
		}
		if req.Location != nil {
			a.Location = *req.Location
		}
		if req.ScheduledDate != nil {
			a.ScheduledDate = req.ScheduledDate
		}
		if req.RequiredQuorum != nil {
			a.RequiredQuorum = req.RequiredQuorum
		}
		if req.Conclusions != nil {
			a.Conclusions = *req.Conclusions
		}
		a.UpdatedAt = s.now()

		updated = a
		return r.UpdateAssembly(ctx, a)
	})
	if err != nil {
		return nil, s.fail(ctx, "failed to update assembly", err, "assembly_id", id)
	}

	s.log.Info("assembly updated", "assembly_id", id)
	return updated, nil
}

// DeleteAssembly removes the assembly with its attendance, votes, ballots and minutes
func (s *Service) DeleteAssembly(ctx context.Context, p auth.Principal, id string) error {
	err := s.store.WithTx(ctx, func(r *store.Repo) error {
		a, err := r.GetAssembly(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		if a.Status == models.AssemblyInProgress {
			return fmt.Errorf("%w: assembly is in progress", ErrInvalidState)
		}
		return r.DeleteAssembly(ctx, p.TenantID, id)
	})
	if err != nil {
		return s.fail(ctx, "failed to delete assembly", err, "assembly_id", id)
	}

	s.log.Info("assembly deleted", "assembly_id", id)
	return nil
}

// StartAssembly opens a scheduled assembly once quorum is reached
func (s *Service) StartAssembly(ctx context.Context, p auth.Principal, id string) (*models.Assembly, error) {
	var started *models.Assembly
	err := s.store.WithTx(ctx, func(r *store.Repo) error {
		a, err := r.GetAssembly(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		if a.Status != models.AssemblyScheduled {
			return fmt.Errorf("%w: assembly is %s", ErrInvalidState, a.Status)
		}

		q, err := s.quorum(ctx, r, a)
		if err != nil {
			return err
		}
		if !q.QuorumReached {
			return fmt.Errorf("%w: quorum not reached (%.2f%% of %.2f%%)", ErrInvalidState, q.QuorumPercentage, q.RequiredQuorum)
		}

		now := s.now()
		a.Status = models.AssemblyInProgress
		a.StartedAt = &now
		a.UpdatedAt = now

		started = a
		return r.UpdateAssembly(ctx, a)
	})
	if err != nil {
		return nil, s.fail(ctx, "failed to start assembly", err, "assembly_id", id)
	}

	s.log.Info("assembly started", "assembly_id", id)
	s.broadcast(p.TenantID, models.EventAssemblyStarted, started)
	return started, nil
}

// EndAssembly completes an in-progress assembly with no active votes
func (s *Service) EndAssembly(ctx context.Context, p auth.Principal, id string) (*models.Assembly, error) {
	ended, err := s.closeAssembly(ctx, p, id, models.AssemblyCompleted, models.AssemblyInProgress)
	if err != nil {
		return nil, s.fail(ctx, "failed to end assembly", err, "assembly_id", id)
	}

	s.log.Info("assembly ended", "assembly_id", id)
	s.broadcast(p.TenantID, models.EventAssemblyEnded, ended)
	return ended, nil
}

func (s *Service) CancelAssembly(ctx context.Context, p auth.Principal, id string) (*models.Assembly, error) {
	cancelled, err := s.closeAssembly(ctx, p, id, models.AssemblyCancelled, models.AssemblyScheduled, models.AssemblyInProgress)
	if err != nil {
		return nil, s.fail(ctx, "failed to cancel assembly", err, "assembly_id", id)
	}

	s.log.Info("assembly cancelled", "assembly_id", id)
	s.broadcast(p.TenantID, models.EventAssemblyCancelled, cancelled)
	return cancelled, nil
}

func (s *Service) closeAssembly(ctx context.Context, p auth.Principal, id, to string, from ...string) (*models.Assembly, error) {
	var closed *models.Assembly
	err := s.store.WithTx(ctx, func(r *store.Repo) error {
		a, err := r.GetAssembly(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		if !statusIn(a.Status, from...) {
			return fmt.Errorf("%w: assembly is %s", ErrInvalidState, a.Status)
		}

		active, err := r.CountActiveVotes(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: %d votes are still active", ErrInvalidState, active)
		}

		now := s.now()
		a.Status = to
		a.EndedAt = &now
		a.UpdatedAt = now

		closed = a
		return r.UpdateAssembly(ctx, a)
	})
	return closed, err
}

// CalculateQuorum returns the assembly's current coefficient-weighted participation
func (s *Service) CalculateQuorum(ctx context.Context, p auth.Principal, assemblyID string) (*models.QuorumResult, error) {
	a, err := s.store.GetAssembly(ctx, p.TenantID, assemblyID)
	if err != nil {
		return nil, s.fail(ctx, "failed to calculate quorum", err, "assembly_id", assemblyID)
	}

	q, err := s.quorum(ctx, s.store.Repo, a)
	if err != nil {
		return nil, s.fail(ctx, "failed to calculate quorum", err, "assembly_id", assemblyID)
	}
	return &q, nil
}

func (s *Service) quorum(ctx context.Context, r *store.Repo, a *models.Assembly) (models.QuorumResult, error) {
	units, err := r.ListUnitsByProperty(ctx, a.TenantID, a.PropertyID)
	if err != nil {
		return models.QuorumResult{}, err
	}
	attendees, err := r.ListAttendance(ctx, a.ID)
	if err != nil {
		return models.QuorumResult{}, err
	}
	return tally.Quorum(a.ID, units, attendees, a.RequiredQuorum, s.now()), nil
}

// RegisterAttendance checks a unit into an assembly. A second registration for
// the same unit moves the record to the new user. Admins may register on
// behalf of another user through req.UserID.
func (s *Service) RegisterAttendance(ctx context.Context, p auth.Principal, assemblyID string, req models.RegisterAttendanceRequest, ipHash *string) (*models.AttendanceResponse, error) {
	userID := p.UserID
	if req.UserID != "" && req.UserID != p.UserID {
		if !p.IsAdmin() {
			return nil, s.fail(ctx, "attendance rejected", fmt.Errorf("%w: only admins register other users", ErrForbidden), "assembly_id", assemblyID, "user_id", p.UserID)
		}
		userID = req.UserID
	}
	if req.UnitID == "" {
		return nil, s.fail(ctx, "attendance rejected", fmt.Errorf("%w: unit_id is required", ErrValidation), "assembly_id", assemblyID)
	}

	var (
		attendance   models.Attendance
		quorum       models.QuorumResult
		assembly     *models.Assembly
		isUpdate     bool
		firstReached bool
	)
	err := s.store.WithTx(ctx, func(r *store.Repo) error {
		var err error
		assembly, err = r.GetAssembly(ctx, p.TenantID, assemblyID)
		if err != nil {
			return err
		}
		if !statusIn(assembly.Status, models.AssemblyScheduled, models.AssemblyInProgress) {
			return fmt.Errorf("%w: assembly is %s", ErrInvalidState, assembly.Status)
		}

		unit, err := r.GetUnit(ctx, p.TenantID, req.UnitID)
		if err != nil {
			return err
		}
		if unit.PropertyID != assembly.PropertyID {
			return fmt.Errorf("%w: unit does not belong to the assembly's property", ErrValidation)
		}

		isOwner, isDelegate, err := r.MemberRoles(ctx, unit.ID, userID)
		if err != nil {
			return err
		}
		if !isOwner && !isDelegate {
			return fmt.Errorf("%w: user is neither owner nor delegate", ErrNotAuthorized)
		}

		_, err = r.FindAttendance(ctx, assemblyID, unit.ID)
		switch {
		case err == nil:
			isUpdate = true
		case !errors.Is(err, ErrNotFound):
			return err
		}

		now := s.now()
		attendance = models.Attendance{
			ID:          auth.GenerateID(),
			AssemblyID:  assemblyID,
			UnitID:      unit.ID,
			UserID:      userID,
			IsOwner:     isOwner,
			IsDelegate:  isDelegate,
			CheckInTime: now,
			UpdatedAt:   now,
			IPHash:      ipHash,
		}
		if err := r.UpsertAttendance(ctx, p.TenantID, &attendance); err != nil {
			return err
		}

		quorum, err = s.quorum(ctx, r, assembly)
		if err != nil {
			return err
		}
		if quorum.QuorumReached {
			firstReached, err = r.MarkQuorumReached(ctx, p.TenantID, assemblyID, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "failed to register attendance", err, "assembly_id", assemblyID, "unit_id", req.UnitID, "user_id", userID)
	}

	s.log.Info("attendance registered",
		"assembly_id", assemblyID, "unit_id", req.UnitID, "user_id", userID,
		"updated", isUpdate, "quorum_percentage", quorum.QuorumPercentage)
	s.metrics.AttendanceRegistered(isUpdate)
	s.publish(p.TenantID, assemblyID, models.EventQuorumUpdate, quorum)

	if firstReached {
		s.log.Info("quorum reached", "assembly_id", assemblyID, "quorum_percentage", quorum.QuorumPercentage)
		s.metrics.QuorumReached()
		s.notifier.QuorumReached(ctx, *assembly, quorum)
	}

	return &models.AttendanceResponse{Attendance: attendance, Quorum: quorum}, nil
}

// ListAttendance returns attendees with user names, unit names and coefficients
func (s *Service) ListAttendance(ctx context.Context, p auth.Principal, assemblyID string) ([]models.AttendeeDetail, error) {
	if _, err := s.store.GetAssembly(ctx, p.TenantID, assemblyID); err != nil {
		return nil, s.fail(ctx, "failed to list attendance", err, "assembly_id", assemblyID)
	}
	attendees, err := s.store.ListAttendeeDetails(ctx, assemblyID)
	if err != nil {
		return nil, s.fail(ctx, "failed to list attendance", err, "assembly_id", assemblyID)
	}
	return attendees, nil
}

func validateQuorum(q *float64) error {
	if q != nil && (*q < 0 || *q > 100) {
		return fmt.Errorf("%w: required_quorum must be between 0 and 100", ErrValidation)
	}
	return nil
}

func statusIn(status string, allowed ...string) bool {
	for _, a := range allowed {
		if status == a {
			return true
		}
	}
	return false
}
