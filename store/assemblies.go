// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/danielhkuo/armonia/models"
)

const assemblyColumns = `id, tenant_id, property_id, title, description, location, status,
	required_quorum, scheduled_date, started_at, ended_at, quorum_reached_at,
	conclusions, created_by, created_at, updated_at`

func scanAssembly(s scanner) (*models.Assembly, error) {
	var a models.Assembly
	err := s.Scan(
		&a.ID, &a.TenantID, &a.PropertyID, &a.Title, &a.Description, &a.Location, &a.Status,
		&a.RequiredQuorum, &a.ScheduledDate, &a.StartedAt, &a.EndedAt, &a.QuorumReachedAt,
		&a.Conclusions, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repo) CreateAssembly(ctx context.Context, a *models.Assembly) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO assembly (`+assemblyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		a.ID, a.TenantID, a.PropertyID, a.Title, a.Description, a.Location, a.Status,
		a.RequiredQuorum, a.ScheduledDate, a.StartedAt, a.EndedAt, a.QuorumReachedAt,
		a.Conclusions, a.CreatedBy, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert assembly: %w", err)
	}
	return nil
}

func (r *Repo) GetAssembly(ctx context.Context, tenantID, id string) (*models.Assembly, error) {
	a, err := scanAssembly(r.q.QueryRowContext(ctx, `
		SELECT `+assemblyColumns+`
		FROM assembly
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID))
	if err != nil {
		return nil, notFound(err, "assembly")
	}
	return a, nil
}

// ListAssemblies returns the tenant's assemblies, newest first
func (r *Repo) ListAssemblies(ctx context.Context, tenantID string) ([]models.Assembly, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+assemblyColumns+`
		FROM assembly
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assemblies: %w", err)
	}
	defer rows.Close()

	assemblies := []models.Assembly{}
	for rows.Next() {
		a, err := scanAssembly(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assembly: %w", err)
		}
		assemblies = append(assemblies, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assemblies: %w", err)
	}
	return assemblies, nil
}

// UpdateAssembly writes every mutable column, lifecycle timestamps included
func (r *Repo) UpdateAssembly(ctx context.Context, a *models.Assembly) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE assembly SET
			title = $1, description = $2, location = $3, status = $4,
			required_quorum = $5, scheduled_date = $6, started_at = $7, ended_at = $8,
			quorum_reached_at = $9, conclusions = $10, updated_at = $11
		WHERE id = $12 AND tenant_id = $13
	`,
		a.Title, a.Description, a.Location, a.Status,
		a.RequiredQuorum, a.ScheduledDate, a.StartedAt, a.EndedAt,
		a.QuorumReachedAt, a.Conclusions, a.UpdatedAt,
		a.ID, a.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update assembly: %w", err)
	}
	return expectRows(res, "assembly")
}

// MarkQuorumReached stamps quorum_reached_at once. It reports false when the
// assembly had already reached quorum.
func (r *Repo) MarkQuorumReached(ctx context.Context, tenantID, id string, at time.Time) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE assembly SET quorum_reached_at = $1, updated_at = $1
		WHERE id = $2 AND tenant_id = $3 AND quorum_reached_at IS NULL
	`, at, id, tenantID)
	if err != nil {
		return false, fmt.Errorf("failed to mark quorum reached: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark quorum reached: %w", err)
	}
	return n > 0, nil
}

func (r *Repo) DeleteAssembly(ctx context.Context, tenantID, id string) error {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM assembly WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete assembly: %w", err)
	}
	return expectRows(res, "assembly")
}

const attendanceColumns = `id, assembly_id, unit_id, user_id, is_owner, is_delegate, check_in_time, updated_at, ip_hash`

func scanAttendance(s scanner) (*models.Attendance, error) {
	var a models.Attendance
	err := s.Scan(&a.ID, &a.AssemblyID, &a.UnitID, &a.UserID, &a.IsOwner, &a.IsDelegate, &a.CheckInTime, &a.UpdatedAt, &a.IPHash)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repo) FindAttendance(ctx context.Context, assemblyID, unitID string) (*models.Attendance, error) {
	a, err := scanAttendance(r.q.QueryRowContext(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance
		WHERE assembly_id = $1 AND unit_id = $2
	`, assemblyID, unitID))
	if err != nil {
		return nil, notFound(err, "attendance")
	}
	return a, nil
}

// UpsertAttendance inserts the (assembly, unit) row or, when it already exists,
// moves it to the new user. The original check-in time is kept.
// The stored row is read back into a.
func (r *Repo) UpsertAttendance(ctx context.Context, tenantID string, a *models.Attendance) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO attendance (id, tenant_id, assembly_id, unit_id, user_id, is_owner, is_delegate, check_in_time, updated_at, ip_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (assembly_id, unit_id) DO UPDATE SET
			user_id = excluded.user_id,
			is_owner = excluded.is_owner,
			is_delegate = excluded.is_delegate,
			updated_at = excluded.updated_at,
			ip_hash = excluded.ip_hash
	`, a.ID, tenantID, a.AssemblyID, a.UnitID, a.UserID, a.IsOwner, a.IsDelegate, a.CheckInTime, a.UpdatedAt, a.IPHash)
	if err != nil {
		return fmt.Errorf("failed to upsert attendance: %w", err)
	}

	stored, err := r.FindAttendance(ctx, a.AssemblyID, a.UnitID)
	if err != nil {
		return err
	}
	*a = *stored
	return nil
}

func (r *Repo) ListAttendance(ctx context.Context, assemblyID string) ([]models.Attendance, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance
		WHERE assembly_id = $1
		ORDER BY check_in_time, id
	`, assemblyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	attendees := []models.Attendance{}
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendees = append(attendees, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance: %w", err)
	}
	return attendees, nil
}

// ListAttendeeDetails joins attendance with the user's name and the unit's data
func (r *Repo) ListAttendeeDetails(ctx context.Context, assemblyID string) ([]models.AttendeeDetail, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT a.id, a.assembly_id, a.unit_id, a.user_id, a.is_owner, a.is_delegate,
			a.check_in_time, a.updated_at, a.ip_hash,
			u.first_name, u.last_name, un.name, un.coefficient
		FROM attendance a
		JOIN app_user u ON u.id = a.user_id
		JOIN unit un ON un.id = a.unit_id
		WHERE a.assembly_id = $1
		ORDER BY a.check_in_time, a.id
	`, assemblyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendees: %w", err)
	}
	defer rows.Close()

	details := []models.AttendeeDetail{}
	for rows.Next() {
		var d models.AttendeeDetail
		var user models.User
		err := rows.Scan(
			&d.ID, &d.AssemblyID, &d.UnitID, &d.UserID, &d.IsOwner, &d.IsDelegate,
			&d.CheckInTime, &d.UpdatedAt, &d.IPHash,
			&user.FirstName, &user.LastName, &d.UnitName, &d.Coefficient,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendee: %w", err)
		}
		d.UserName = user.FullName()
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendees: %w", err)
	}
	return details, nil
}

// IsAttending reports whether the user holds any attendance record in the assembly
func (r *Repo) IsAttending(ctx context.Context, assemblyID, userID string) (bool, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendance
		WHERE assembly_id = $1 AND user_id = $2
	`, assemblyID, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check attendance: %w", err)
	}
	return count > 0, nil
}
