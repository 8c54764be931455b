// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielhkuo/armonia/models"
)

const voteColumns = `id, assembly_id, title, description, weighted, status, start_time, end_time, created_by, created_at`

func scanVote(s scanner) (*models.Vote, error) {
	var v models.Vote
	err := s.Scan(&v.ID, &v.AssemblyID, &v.Title, &v.Description, &v.Weighted, &v.Status, &v.StartTime, &v.EndTime, &v.CreatedBy, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateVote inserts the vote and its options in declaration order
func (r *Repo) CreateVote(ctx context.Context, tenantID string, v *models.Vote) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO vote (id, tenant_id, assembly_id, title, description, weighted, status, start_time, end_time, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, v.ID, tenantID, v.AssemblyID, v.Title, v.Description, v.Weighted, v.Status, v.StartTime, v.EndTime, v.CreatedBy, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert vote: %w", err)
	}

	for i, label := range v.Options {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO vote_option (vote_id, sort_order, label)
			VALUES ($1, $2, $3)
		`, v.ID, i, label)
		if err != nil {
			return fmt.Errorf("failed to insert vote option: %w", err)
		}
	}
	return nil
}

func (r *Repo) GetVote(ctx context.Context, tenantID, id string) (*models.Vote, error) {
	v, err := scanVote(r.q.QueryRowContext(ctx, `
		SELECT `+voteColumns+`
		FROM vote
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID))
	if err != nil {
		return nil, notFound(err, "vote")
	}

	v.Options, err = r.voteOptions(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListVotes returns the assembly's votes in creation order, options included
func (r *Repo) ListVotes(ctx context.Context, tenantID, assemblyID string) ([]models.Vote, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+voteColumns+`
		FROM vote
		WHERE assembly_id = $1 AND tenant_id = $2
		ORDER BY created_at, id
	`, assemblyID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}

	votes := []models.Vote{}
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, *v)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("error iterating votes: %w", err)
	}

	// Options are loaded after the vote cursor is closed
	for i := range votes {
		votes[i].Options, err = r.voteOptions(ctx, votes[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return votes, nil
}

func (r *Repo) voteOptions(ctx context.Context, voteID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT label FROM vote_option
		WHERE vote_id = $1
		ORDER BY sort_order
	`, voteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vote options: %w", err)
	}
	defer rows.Close()

	options := []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan vote option: %w", err)
		}
		options = append(options, label)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vote options: %w", err)
	}
	return options, nil
}

func (r *Repo) CountActiveVotes(ctx context.Context, assemblyID string) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM vote
		WHERE assembly_id = $1 AND status = $2
	`, assemblyID, models.VoteActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active votes: %w", err)
	}
	return count, nil
}

// CompleteVote closes an active vote and stores its final results snapshot
func (r *Repo) CompleteVote(ctx context.Context, tenantID, id string, endTime time.Time, results models.VoteResults) error {
	snapshot, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to encode vote results: %w", err)
	}

	res, err := r.q.ExecContext(ctx, `
		UPDATE vote SET status = $1, end_time = $2, results = $3
		WHERE id = $4 AND tenant_id = $5 AND status = $6
	`, models.VoteCompleted, endTime, string(snapshot), id, tenantID, models.VoteActive)
	if err != nil {
		return fmt.Errorf("failed to complete vote: %w", err)
	}
	return expectRows(res, "active vote")
}

// StoredResults returns the snapshot saved when the vote closed, if any
func (r *Repo) StoredResults(ctx context.Context, tenantID, voteID string) (*models.VoteResults, error) {
	var raw *string
	err := r.q.QueryRowContext(ctx, `
		SELECT results FROM vote WHERE id = $1 AND tenant_id = $2
	`, voteID, tenantID).Scan(&raw)
	if err != nil {
		return nil, notFound(err, "vote")
	}
	if raw == nil {
		return nil, nil
	}

	var results models.VoteResults
	if err := json.Unmarshal([]byte(*raw), &results); err != nil {
		return nil, fmt.Errorf("failed to decode vote results: %w", err)
	}
	return &results, nil
}

const ballotColumns = `id, vote_id, unit_id, user_id, option_label, coefficient, cast_at, updated_at, ip_hash`

func scanBallot(s scanner) (*models.Ballot, error) {
	var b models.Ballot
	err := s.Scan(&b.ID, &b.VoteID, &b.UnitID, &b.UserID, &b.Option, &b.Coefficient, &b.CastAt, &b.UpdatedAt, &b.IPHash)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repo) FindBallot(ctx context.Context, voteID, unitID string) (*models.Ballot, error) {
	b, err := scanBallot(r.q.QueryRowContext(ctx, `
		SELECT `+ballotColumns+`
		FROM ballot
		WHERE vote_id = $1 AND unit_id = $2
	`, voteID, unitID))
	if err != nil {
		return nil, notFound(err, "ballot")
	}
	return b, nil
}

// UpsertBallot stores the unit's ballot. On conflict the option, user and
// timestamp are replaced; the coefficient only when refreshCoefficient is set.
// The stored row is read back into b.
func (r *Repo) UpsertBallot(ctx context.Context, tenantID string, b *models.Ballot, refreshCoefficient bool) error {
	query := `
		INSERT INTO ballot (id, tenant_id, vote_id, unit_id, user_id, option_label, coefficient, cast_at, updated_at, ip_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (vote_id, unit_id) DO UPDATE SET
			user_id = excluded.user_id,
			option_label = excluded.option_label,
			updated_at = excluded.updated_at,
			ip_hash = excluded.ip_hash`
	if refreshCoefficient {
		query += `,
			coefficient = excluded.coefficient`
	}

	_, err := r.q.ExecContext(ctx, query,
		b.ID, tenantID, b.VoteID, b.UnitID, b.UserID, b.Option, b.Coefficient, b.CastAt, b.UpdatedAt, b.IPHash)
	if err != nil {
		return fmt.Errorf("failed to upsert ballot: %w", err)
	}

	stored, err := r.FindBallot(ctx, b.VoteID, b.UnitID)
	if err != nil {
		return err
	}
	*b = *stored
	return nil
}

func (r *Repo) ListBallots(ctx context.Context, voteID string) ([]models.Ballot, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+ballotColumns+`
		FROM ballot
		WHERE vote_id = $1
		ORDER BY cast_at, id
	`, voteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ballots: %w", err)
	}
	defer rows.Close()

	ballots := []models.Ballot{}
	for rows.Next() {
		b, err := scanBallot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ballot: %w", err)
		}
		ballots = append(ballots, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ballots: %w", err)
	}
	return ballots, nil
}
