// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"

	"github.com/danielhkuo/armonia/db"
	"github.com/danielhkuo/armonia/models"
)

func (r *Repo) CreateProperty(ctx context.Context, p *models.Property) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO property (id, tenant_id, name, address, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.TenantID, p.Name, p.Address, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	return nil
}

func (r *Repo) GetProperty(ctx context.Context, tenantID, id string) (*models.Property, error) {
	var p models.Property
	err := r.q.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, address, created_at
		FROM property
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID).Scan(&p.ID, &p.TenantID, &p.Name, &p.Address, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err, "property")
	}
	return &p, nil
}

const unitColumns = `id, tenant_id, property_id, name, coefficient, created_at`

func scanUnit(s scanner) (*models.Unit, error) {
	var u models.Unit
	if err := s.Scan(&u.ID, &u.TenantID, &u.PropertyID, &u.Name, &u.Coefficient, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) CreateUnit(ctx context.Context, u *models.Unit) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO unit (`+unitColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.TenantID, u.PropertyID, u.Name, u.Coefficient, u.CreatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("unit %q: %w", u.Name, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert unit: %w", err)
	}
	return nil
}

func (r *Repo) GetUnit(ctx context.Context, tenantID, id string) (*models.Unit, error) {
	u, err := scanUnit(r.q.QueryRowContext(ctx, `
		SELECT `+unitColumns+`
		FROM unit
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID))
	if err != nil {
		return nil, notFound(err, "unit")
	}
	return u, nil
}

// ListUnitsByProperty returns every unit of a property ordered by name
func (r *Repo) ListUnitsByProperty(ctx context.Context, tenantID, propertyID string) ([]models.Unit, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+unitColumns+`
		FROM unit
		WHERE property_id = $1 AND tenant_id = $2
		ORDER BY name
	`, propertyID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query units: %w", err)
	}
	defer rows.Close()

	units := []models.Unit{}
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating units: %w", err)
	}
	return units, nil
}

func (r *Repo) UpdateUnitCoefficient(ctx context.Context, tenantID, id string, coefficient *float64) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE unit SET coefficient = $1
		WHERE id = $2 AND tenant_id = $3
	`, coefficient, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to update unit coefficient: %w", err)
	}
	return expectRows(res, "unit")
}

func (r *Repo) CreateUser(ctx context.Context, u *models.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO app_user (id, tenant_id, first_name, last_name, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.TenantID, u.FirstName, u.LastName, u.Email, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *Repo) GetUser(ctx context.Context, tenantID, id string) (*models.User, error) {
	var u models.User
	err := r.q.QueryRowContext(ctx, `
		SELECT id, tenant_id, first_name, last_name, email, created_at
		FROM app_user
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID).Scan(&u.ID, &u.TenantID, &u.FirstName, &u.LastName, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

// AddUnitMember links a user to a unit. Adding an existing link is a no-op.
func (r *Repo) AddUnitMember(ctx context.Context, m models.UnitMember) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO unit_member (unit_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (unit_id, user_id, role) DO NOTHING
	`, m.UnitID, m.UserID, m.Role)
	if err != nil {
		return fmt.Errorf("failed to insert unit member: %w", err)
	}
	return nil
}

// MemberRoles reports whether the user is an owner and/or a delegate of the unit
func (r *Repo) MemberRoles(ctx context.Context, unitID, userID string) (isOwner, isDelegate bool, err error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT role FROM unit_member
		WHERE unit_id = $1 AND user_id = $2
	`, unitID, userID)
	if err != nil {
		return false, false, fmt.Errorf("failed to query unit members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return false, false, fmt.Errorf("failed to scan unit member: %w", err)
		}
		switch role {
		case models.MemberOwner:
			isOwner = true
		case models.MemberDelegate:
			isDelegate = true
		}
	}
	if err := rows.Err(); err != nil {
		return false, false, fmt.Errorf("error iterating unit members: %w", err)
	}
	return isOwner, isDelegate, nil
}
