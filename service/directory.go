// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielhkuo/armonia/auth"
	"github.com/danielhkuo/armonia/models"
)

func (s *Service) CreateProperty(ctx context.Context, p auth.Principal, req models.CreatePropertyRequest) (*models.Property, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, s.fail(ctx, "property rejected", fmt.Errorf("%w: name is required", ErrValidation), "tenant_id", p.TenantID)
	}

	prop := models.Property{
		ID:        auth.GenerateID(),
		TenantID:  p.TenantID,
		Name:      name,
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: s.now(),
	}
	if err := s.store.CreateProperty(ctx, &prop); err != nil {
		return nil, s.fail(ctx, "failed to create property", err, "tenant_id", p.TenantID)
	}

	s.log.Info("property created", "tenant_id", p.TenantID, "property_id", prop.ID)
	return &prop, nil
}

func (s *Service) CreateUnit(ctx context.Context, p auth.Principal, propertyID string, req models.CreateUnitRequest) (*models.Unit, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, s.fail(ctx, "unit rejected", fmt.Errorf("%w: name is required", ErrValidation), "property_id", propertyID)
	}
	if err := validateCoefficient(req.Coefficient); err != nil {
		return nil, s.fail(ctx, "unit rejected", err, "property_id", propertyID)
	}

	if _, err := s.store.GetProperty(ctx, p.TenantID, propertyID); err != nil {
		return nil, s.fail(ctx, "unit rejected", err, "property_id", propertyID)
	}

	unit := models.Unit{
		ID:          auth.GenerateID(),
		TenantID:    p.TenantID,
		PropertyID:  propertyID,
		Name:        name,
		Coefficient: req.Coefficient,
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateUnit(ctx, &unit); err != nil {
		return nil, s.fail(ctx, "failed to create unit", err, "property_id", propertyID)
	}

	s.log.Info("unit created", "property_id", propertyID, "unit_id", unit.ID)
	return &unit, nil
}

func (s *Service) ListUnits(ctx context.Context, p auth.Principal, propertyID string) ([]models.Unit, error) {
	if _, err := s.store.GetProperty(ctx, p.TenantID, propertyID); err != nil {
		return nil, s.fail(ctx, "failed to list units", err, "property_id", propertyID)
	}
	units, err := s.store.ListUnitsByProperty(ctx, p.TenantID, propertyID)
	if err != nil {
		return nil, s.fail(ctx, "failed to list units", err, "property_id", propertyID)
	}
	return units, nil
}

// UpdateUnitCoefficient changes a unit's ownership share. Ballots already cast keep their snapshot.
func (s *Service) UpdateUnitCoefficient(ctx context.Context, p auth.Principal, unitID string, coefficient *float64) (*models.Unit, error) {
	if err := validateCoefficient(coefficient); err != nil {
		return nil, s.fail(ctx, "coefficient rejected", err, "unit_id", unitID)
	}
	if err := s.store.UpdateUnitCoefficient(ctx, p.TenantID, unitID, coefficient); err != nil {
		return nil, s.fail(ctx, "failed to update coefficient", err, "unit_id", unitID)
	}

	unit, err := s.store.GetUnit(ctx, p.TenantID, unitID)
	if err != nil {
		return nil, s.fail(ctx, "failed to load unit", err, "unit_id", unitID)
	}

	s.log.Info("unit coefficient updated", "unit_id", unitID)
	return unit, nil
}

func (s *Service) CreateUser(ctx context.Context, p auth.Principal, req models.CreateUserRequest) (*models.User, error) {
	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		return nil, s.fail(ctx, "user rejected", fmt.Errorf("%w: first_name is required", ErrValidation), "tenant_id", p.TenantID)
	}

	user := models.User{
		ID:        auth.GenerateID(),
		TenantID:  p.TenantID,
		FirstName: firstName,
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		CreatedAt: s.now(),
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		return nil, s.fail(ctx, "failed to create user", err, "tenant_id", p.TenantID)
	}

	s.log.Info("user created", "tenant_id", p.TenantID, "user_id", user.ID)
	return &user, nil
}

// AddUnitMember makes a user an owner or delegate of a unit
func (s *Service) AddUnitMember(ctx context.Context, p auth.Principal, unitID string, req models.AddUnitMemberRequest) error {
	if req.Role != models.MemberOwner && req.Role != models.MemberDelegate {
		return s.fail(ctx, "member rejected", fmt.Errorf("%w: role must be owner or delegate", ErrValidation), "unit_id", unitID)
	}
	if _, err := s.store.GetUnit(ctx, p.TenantID, unitID); err != nil {
		return s.fail(ctx, "member rejected", err, "unit_id", unitID)
	}
	if _, err := s.store.GetUser(ctx, p.TenantID, req.UserID); err != nil {
		return s.fail(ctx, "member rejected", err, "unit_id", unitID, "user_id", req.UserID)
	}

	member := models.UnitMember{UnitID: unitID, UserID: req.UserID, Role: req.Role}
	if err := s.store.AddUnitMember(ctx, member); err != nil {
		return s.fail(ctx, "failed to add member", err, "unit_id", unitID, "user_id", req.UserID)
	}

	s.log.Info("unit member added", "unit_id", unitID, "user_id", req.UserID, "role", req.Role)
	return nil
}

func validateCoefficient(c *float64) error {
	if c != nil && *c < 0 {
		return fmt.Errorf("%w: coefficient must not be negative", ErrValidation)
	}
	return nil
}
