// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danielhkuo/armonia/db"
	"github.com/danielhkuo/armonia/models"
)

func (r *Repo) CreateMinutes(ctx context.Context, tenantID string, m *models.Minutes) error {
	content, err := json.Marshal(m.Content)
	if err != nil {
		return fmt.Errorf("failed to encode minutes: %w", err)
	}

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO minutes (id, tenant_id, assembly_id, status, content, generated_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, tenantID, m.AssemblyID, m.Status, string(content), m.GeneratedBy, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert minutes: %w", err)
	}
	return nil
}

// LatestMinutes returns the most recently generated minutes of an assembly
func (r *Repo) LatestMinutes(ctx context.Context, tenantID, assemblyID string) (*models.Minutes, error) {
	return scanMinutes(r.q.QueryRowContext(ctx, `
		SELECT `+minutesColumns+`
		FROM minutes
		WHERE assembly_id = $1 AND tenant_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, assemblyID, tenantID))
}

func (r *Repo) GetMinutes(ctx context.Context, tenantID, id string) (*models.Minutes, error) {
	return scanMinutes(r.q.QueryRowContext(ctx, `
		SELECT `+minutesColumns+`
		FROM minutes
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID))
}

const minutesColumns = `id, assembly_id, status, content, generated_by, signatures_required, signatures_completed, created_at`

func scanMinutes(s scanner) (*models.Minutes, error) {
	var m models.Minutes
	var content string
	err := s.Scan(&m.ID, &m.AssemblyID, &m.Status, &content, &m.GeneratedBy, &m.SignaturesRequired, &m.SignaturesCompleted, &m.CreatedAt)
	if err != nil {
		return nil, notFound(err, "minutes")
	}

	if err := json.Unmarshal([]byte(content), &m.Content); err != nil {
		return nil, fmt.Errorf("failed to decode minutes: %w", err)
	}
	return &m, nil
}

// UpdateMinutesSigning stores the signing status and counters
func (r *Repo) UpdateMinutesSigning(ctx context.Context, m *models.Minutes) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE minutes
		SET status = $1, signatures_required = $2, signatures_completed = $3
		WHERE id = $4
	`, m.Status, m.SignaturesRequired, m.SignaturesCompleted, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update minutes: %w", err)
	}
	return expectRows(res, "minutes")
}

const signatureColumns = `id, minutes_id, signer_user_id, signer_name, signer_role, status, digest, signed_at, ip_hash, user_agent, created_at`

func scanSignature(s scanner) (*models.Signature, error) {
	var sig models.Signature
	err := s.Scan(&sig.ID, &sig.MinutesID, &sig.SignerUserID, &sig.SignerName, &sig.SignerRole, &sig.Status,
		&sig.Digest, &sig.SignedAt, &sig.IPHash, &sig.UserAgent, &sig.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sig, nil
}

func (r *Repo) CreateSignature(ctx context.Context, tenantID string, sig *models.Signature) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO minutes_signature (`+signatureColumns+`, tenant_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, sig.ID, sig.MinutesID, sig.SignerUserID, sig.SignerName, sig.SignerRole, sig.Status,
		sig.Digest, sig.SignedAt, sig.IPHash, sig.UserAgent, sig.CreatedAt, tenantID)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("signer %s: %w", sig.SignerUserID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert signature: %w", err)
	}
	return nil
}

func (r *Repo) GetSignature(ctx context.Context, tenantID, id string) (*models.Signature, error) {
	sig, err := scanSignature(r.q.QueryRowContext(ctx, `
		SELECT `+signatureColumns+`
		FROM minutes_signature
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID))
	if err != nil {
		return nil, notFound(err, "signature")
	}
	return sig, nil
}

func (r *Repo) ListSignatures(ctx context.Context, minutesID string) ([]models.Signature, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+signatureColumns+`
		FROM minutes_signature
		WHERE minutes_id = $1
		ORDER BY created_at, id
	`, minutesID)
	if err != nil {
		return nil, fmt.Errorf("failed to query signatures: %w", err)
	}
	defer rows.Close()

	signatures := []models.Signature{}
	for rows.Next() {
		sig, err := scanSignature(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signature: %w", err)
		}
		signatures = append(signatures, *sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signatures: %w", err)
	}
	return signatures, nil
}

// MarkSigned records a pending signature as signed. It reports false when
// the signature was no longer pending.
func (r *Repo) MarkSigned(ctx context.Context, sig *models.Signature) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE minutes_signature
		SET status = $1, digest = $2, signed_at = $3, ip_hash = $4, user_agent = $5
		WHERE id = $6 AND status = $7
	`, models.SignatureSigned, sig.Digest, sig.SignedAt, sig.IPHash, sig.UserAgent, sig.ID, models.SignaturePending)
	if err != nil {
		return false, fmt.Errorf("failed to sign: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to sign: %w", err)
	}
	return n == 1, nil
}
