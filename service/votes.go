// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/danielhkuo/armonia/auth"
	"github.com/danielhkuo/armonia/models"
	"github.com/danielhkuo/armonia/store"
	"github.com/danielhkuo/armonia/tally"
)

// CreateVote opens a motion inside an in-progress assembly
func (s *Service) CreateVote(ctx context.Context, p auth.Principal, assemblyID string, req models.CreateVoteRequest) (*models.Vote, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, s.fail(ctx, "vote rejected", fmt.Errorf("%w: title is required", ErrValidation), "assembly_id", assemblyID)
	}

	options, err := normalizeOptions(req.Options)
	if err != nil {
		return nil, s.fail(ctx, "vote rejected", err, "assembly_id", assemblyID)
	}

	weighted := true
	if req.Weighted != nil {
		weighted = *req.Weighted
	}

	var vote models.Vote
	err = s.store.WithTx(ctx, func(r *store.Repo) error {
		a, err := r.GetAssembly(ctx, p.TenantID, assemblyID)
		if err != nil {
			return err
		}
		if a.Status != models.AssemblyInProgress {
			return fmt.Errorf("%w: assembly is %s", ErrInvalidState, a.Status)
		}

		now := s.now()
		vote = models.Vote{
			ID:          auth.GenerateID(),
			AssemblyID:  assemblyID,
			Title:       title,
			Description: req.Description,
			Options:     options,
			Weighted:    weighted,
			Status:      models.VoteActive,
			StartTime:   now,
			CreatedBy:   p.UserID,
			CreatedAt:   now,
		}
		return r.CreateVote(ctx, p.TenantID, &vote)
	})
	if err != nil {
		return nil, s.fail(ctx, "failed to create vote", err, "assembly_id", assemblyID)
	}

	s.log.Info("vote created", "assembly_id", assemblyID, "vote_id", vote.ID, "weighted", weighted)
	s.publish(p.TenantID, assemblyID, models.EventVoteCreated, vote)
	return &vote, nil
}

// normalizeOptions trims labels and applies the default option set when none are given
func normalizeOptions(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return slices.Clone(models.DefaultVoteOptions), nil
	}

	options := make([]string, 0, len(raw))
	for _, o := range raw {
		label := strings.TrimSpace(o)
		if label == "" {
			return nil, fmt.Errorf("%w: option labels must not be empty", ErrValidation)
		}
		if slices.Contains(options, label) {
			return nil, fmt.Errorf("%w: duplicate option %q", ErrValidation, label)
		}
		options = append(options, label)
	}
	if len(options) < 2 {
		return nil, fmt.Errorf("%w: at least 2 options required", ErrValidation)
	}
	return options, nil
}

func (s *Service) ListVotes(ctx context.Context, p auth.Principal, assemblyID string) ([]models.Vote, error) {
	if _, err := s.store.GetAssembly(ctx, p.TenantID, assemblyID); err != nil {
		return nil, s.fail(ctx, "failed to list votes", err, "assembly_id", assemblyID)
	}
	votes, err := s.store.ListVotes(ctx, p.TenantID, assemblyID)
	if err != nil {
		return nil, s.fail(ctx, "failed to list votes", err, "assembly_id", assemblyID)
	}
	return votes, nil
}

func (s *Service) GetVote(ctx context.Context, p auth.Principal, voteID string) (*models.Vote, error) {
	v, err := s.store.GetVote(ctx, p.TenantID, voteID)
	if err != nil {
		return nil, s.fail(ctx, "failed to get vote", err, "vote_id", voteID)
	}
	return v, nil
}

// CastVote records the unit's ballot, replacing its previous choice if any.
// The caller must be attending the vote's assembly.
func (s *Service) CastVote(ctx context.Context, p auth.Principal, voteID string, req models.CastVoteRequest, ipHash *string) (*models.CastVoteResponse, error) {
	if req.UnitID == "" {
		return nil, s.fail(ctx, "ballot rejected", fmt.Errorf("%w: unit_id is required", ErrValidation), "vote_id", voteID)
	}

	var (
		vote     *models.Vote
		ballot   models.Ballot
		results  models.VoteResults
		isUpdate bool
	)
	err := s.store.WithTx(ctx, func(r *store.Repo) error {
		var err error
		vote, err = r.GetVote(ctx, p.TenantID, voteID)
		if err != nil {
			return err
		}
		if vote.Status != models.VoteActive {
			return fmt.Errorf("%w: vote is %s", ErrInvalidState, vote.Status)
		}
		if !slices.Contains(vote.Options, req.Option) {
			return fmt.Errorf("%w: %q is not an option of this vote", ErrInvalidOption, req.Option)
		}

		attending, err := r.IsAttending(ctx, vote.AssemblyID, p.UserID)
		if err != nil {
			return err
		}
		if !attending {
			return fmt.Errorf("%w: register attendance before voting", ErrNotAttending)
		}

		unit, err := r.GetUnit(ctx, p.TenantID, req.UnitID)
		if err != nil {
			return err
		}
		assembly, err := r.GetAssembly(ctx, p.TenantID, vote.AssemblyID)
		if err != nil {
			return err
		}
		if unit.PropertyID != assembly.PropertyID {
			return fmt.Errorf("%w: unit does not belong to the assembly's property", ErrValidation)
		}

		_, err = r.FindBallot(ctx, voteID, unit.ID)
		switch {
		case err == nil:
			isUpdate = true
		case !errors.Is(err, ErrNotFound):
			return err
		}

		now := s.now()
		ballot = models.Ballot{
			ID:          auth.GenerateID(),
			VoteID:      voteID,
			UnitID:      unit.ID,
			UserID:      p.UserID,
			Option:      req.Option,
			Coefficient: tally.SnapshotCoefficient(*unit, vote.Weighted),
			CastAt:      now,
			UpdatedAt:   now,
			IPHash:      ipHash,
		}
		if err := r.UpsertBallot(ctx, p.TenantID, &ballot, !s.cfg.PreserveOriginalWeight); err != nil {
			return err
		}

		ballots, err := r.ListBallots(ctx, voteID)
		if err != nil {
			return err
		}
		results = tally.VoteResults(*vote, ballots, now)
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "failed to cast vote", err, "vote_id", voteID, "unit_id", req.UnitID, "user_id", p.UserID)
	}

	s.log.Info("ballot cast", "vote_id", voteID, "unit_id", req.UnitID, "user_id", p.UserID, "updated", isUpdate)
	s.metrics.BallotCast(isUpdate)
	s.publish(p.TenantID, vote.AssemblyID, models.EventVoteResultsUpdate, models.VoteResultsUpdate{VoteID: voteID, Results: results})

	message := "Voto registrado correctamente"
	if isUpdate {
		message = "Voto actualizado correctamente"
	}
	return &models.CastVoteResponse{Ballot: ballot, IsUpdate: isUpdate, Message: message}, nil
}

// CalculateVoteResults tallies the vote's ballots as they stand now
func (s *Service) CalculateVoteResults(ctx context.Context, p auth.Principal, voteID string) (*models.VoteResults, error) {
	vote, err := s.store.GetVote(ctx, p.TenantID, voteID)
	if err != nil {
		return nil, s.fail(ctx, "failed to calculate vote results", err, "vote_id", voteID)
	}

	ballots, err := s.store.ListBallots(ctx, voteID)
	if err != nil {
		return nil, s.fail(ctx, "failed to calculate vote results", err, "vote_id", voteID)
	}

	results := tally.VoteResults(*vote, ballots, s.now())
	return &results, nil
}

// VoteResults returns the frozen snapshot of a closed vote, or the live tally
// of an active one.
func (s *Service) VoteResults(ctx context.Context, p auth.Principal, voteID string) (*models.VoteResults, error) {
	stored, err := s.store.StoredResults(ctx, p.TenantID, voteID)
	if err != nil {
		return nil, s.fail(ctx, "failed to load vote results", err, "vote_id", voteID)
	}
	if stored != nil {
		return stored, nil
	}
	return s.CalculateVoteResults(ctx, p, voteID)
}

// EndVote closes an active vote and stores its final tally
func (s *Service) EndVote(ctx context.Context, p auth.Principal, voteID string) (*models.EndVoteResponse, error) {
	var (
		vote    *models.Vote
		results models.VoteResults
	)
	err := s.store.WithTx(ctx, func(r *store.Repo) error {
		v, err := r.GetVote(ctx, p.TenantID, voteID)
		if err != nil {
			return err
		}
		if v.Status != models.VoteActive {
			return fmt.Errorf("%w: vote is %s", ErrInvalidState, v.Status)
		}

		ballots, err := r.ListBallots(ctx, voteID)
		if err != nil {
			return err
		}

		now := s.now()
		results = tally.VoteResults(*v, ballots, now)
		if err := r.CompleteVote(ctx, p.TenantID, voteID, now, results); err != nil {
			return err
		}

		vote, err = r.GetVote(ctx, p.TenantID, voteID)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "failed to end vote", err, "vote_id", voteID)
	}

	s.log.Info("vote ended", "vote_id", voteID, "total_votes", results.TotalVotes)
	s.metrics.VoteClosed()
	resp := models.EndVoteResponse{Vote: *vote, Results: results}
	s.publish(p.TenantID, vote.AssemblyID, models.EventVoteEnded, resp)
	s.notifier.VoteClosed(ctx, *vote, results)
	return &resp, nil
}
