// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danielhkuo/armonia/auth"
	"github.com/danielhkuo/armonia/models"
	"github.com/danielhkuo/armonia/store"
)

// RegisterSigners adds signers to a minutes document and moves it to SIGNING.
// Signers can be added while the document is DRAFT or SIGNING.
func (s *Service) RegisterSigners(ctx context.Context, p auth.Principal, minutesID string, req models.RegisterSignersRequest) ([]models.Signature, error) {
	signers, err := normalizeSigners(req.Signers)
	if err != nil {
		return nil, s.fail(ctx, "signers rejected", err, "minutes_id", minutesID)
	}

	var all []models.Signature
	err = s.store.WithTx(ctx, func(r *store.Repo) error {
		m, err := r.GetMinutes(ctx, p.TenantID, minutesID)
		if err != nil {
			return err
		}
		if !statusIn(m.Status, models.MinutesDraft, models.MinutesSigning) {
			return fmt.Errorf("%w: minutes are %s", ErrInvalidState, m.Status)
		}

		now := s.now()
		for _, signer := range signers {
			user, err := r.GetUser(ctx, p.TenantID, signer.UserID)
			if err != nil {
				return err
			}
			name := signer.Name
			if name == "" {
				name = strings.TrimSpace(user.FirstName + " " + user.LastName)
			}
			sig := models.Signature{
				ID:           auth.GenerateID(),
				MinutesID:    m.ID,
				SignerUserID: user.ID,
				SignerName:   name,
				SignerRole:   signer.Role,
				Status:       models.SignaturePending,
				CreatedAt:    now,
			}
			if err := r.CreateSignature(ctx, p.TenantID, &sig); err != nil {
				return err
			}
		}

		all, err = r.ListSignatures(ctx, m.ID)
		if err != nil {
			return err
		}
		m.Status = models.MinutesSigning
		m.SignaturesRequired = len(all)
		return r.UpdateMinutesSigning(ctx, m)
	})
	if err != nil {
		return nil, s.fail(ctx, "failed to register signers", err, "minutes_id", minutesID)
	}

	s.log.Info("signers registered", "minutes_id", minutesID, "added", len(signers), "required", len(all))
	return all, nil
}

// SignMinutes signs the caller's pending slot. The last signature moves the
// minutes to SIGNED and notifies the assembly room.
func (s *Service) SignMinutes(ctx context.Context, p auth.Principal, signatureID string, ipHash *string, userAgent string) (*models.SignMinutesResponse, error) {
	var (
		sig     *models.Signature
		minutes *models.Minutes
	)
	err := s.store.WithTx(ctx, func(r *store.Repo) error {
		var err error
		sig, err = r.GetSignature(ctx, p.TenantID, signatureID)
		if err != nil {
			return err
		}
		if sig.SignerUserID != p.UserID {
			return fmt.Errorf("%w: signature belongs to another signer", ErrForbidden)
		}
		if sig.Status != models.SignaturePending {
			return fmt.Errorf("%w: signature is %s", ErrInvalidState, sig.Status)
		}

		minutes, err = r.GetMinutes(ctx, p.TenantID, sig.MinutesID)
		if err != nil {
			return err
		}
		if minutes.Status != models.MinutesSigning {
			return fmt.Errorf("%w: minutes are %s", ErrInvalidState, minutes.Status)
		}

		document, err := json.Marshal(minutes.Content)
		if err != nil {
			return fmt.Errorf("failed to encode minutes: %w", err)
		}
		now := s.now()
		digest := auth.DocumentDigest(document, sig.SignerUserID, sig.SignerRole, now)
		sig.Status = models.SignatureSigned
		sig.Digest = &digest
		sig.SignedAt = &now
		sig.IPHash = ipHash
		sig.UserAgent = userAgent

		ok, err := r.MarkSigned(ctx, sig)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: signature is no longer pending", ErrInvalidState)
		}

		minutes.SignaturesCompleted++
		if minutes.SignaturesCompleted >= minutes.SignaturesRequired {
			signatures, err := r.ListSignatures(ctx, minutes.ID)
			if err != nil {
				return err
			}
			for _, other := range signatures {
				if other.Status != models.SignatureSigned {
					return fmt.Errorf("%w: signature %s still pending", ErrInvalidState, other.ID)
				}
			}
			minutes.Status = models.MinutesSigned
		}
		return r.UpdateMinutesSigning(ctx, minutes)
	})
	if err != nil {
		return nil, s.fail(ctx, "failed to sign minutes", err, "signature_id", signatureID, "user_id", p.UserID)
	}

	s.log.Info("minutes signed", "minutes_id", minutes.ID, "signature_id", sig.ID, "user_id", p.UserID,
		"completed", minutes.SignaturesCompleted, "required", minutes.SignaturesRequired)
	if minutes.Status == models.MinutesSigned {
		s.publish(p.TenantID, minutes.AssemblyID, models.EventMinutesSigned, models.MinutesSignedMessage{
			AssemblyID: minutes.AssemblyID,
			MinutesID:  minutes.ID,
			Signers:    minutes.SignaturesRequired,
		})
	}

	return &models.SignMinutesResponse{
		Signature:           *sig,
		MinutesStatus:       minutes.Status,
		SignaturesRequired:  minutes.SignaturesRequired,
		SignaturesCompleted: minutes.SignaturesCompleted,
	}, nil
}

// ListSignatures returns every signature slot of a minutes document
func (s *Service) ListSignatures(ctx context.Context, p auth.Principal, minutesID string) ([]models.Signature, error) {
	m, err := s.store.GetMinutes(ctx, p.TenantID, minutesID)
	if err != nil {
		return nil, s.fail(ctx, "failed to list signatures", err, "minutes_id", minutesID)
	}
	signatures, err := s.store.ListSignatures(ctx, m.ID)
	if err != nil {
		return nil, s.fail(ctx, "failed to list signatures", err, "minutes_id", minutesID)
	}
	return signatures, nil
}

func normalizeSigners(in []models.SignerRequest) ([]models.SignerRequest, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: at least one signer is required", ErrValidation)
	}

	seen := make(map[string]bool, len(in))
	out := make([]models.SignerRequest, 0, len(in))
	for _, signer := range in {
		signer.UserID = strings.TrimSpace(signer.UserID)
		signer.Name = strings.TrimSpace(signer.Name)
		signer.Role = strings.TrimSpace(signer.Role)
		if signer.UserID == "" || signer.Role == "" {
			return nil, fmt.Errorf("%w: signers need user_id and role", ErrValidation)
		}
		if seen[signer.UserID] {
			return nil, fmt.Errorf("%w: signer %s listed twice", ErrValidation, signer.UserID)
		}
		seen[signer.UserID] = true
		out = append(out, signer)
	}
	return out, nil
}
