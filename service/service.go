// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/danielhkuo/armonia/metrics"
	"github.com/danielhkuo/armonia/models"
	"github.com/danielhkuo/armonia/notify"
	"github.com/danielhkuo/armonia/store"
)

var (
	ErrNotFound      = store.ErrNotFound
	ErrDuplicate     = store.ErrDuplicate
	ErrValidation    = errors.New("validation failed")
	ErrInvalidState  = errors.New("invalid state")
	ErrInvalidOption = errors.New("invalid option")
	ErrNotAuthorized = errors.New("not authorized for unit")
	ErrNotAttending  = errors.New("not attending assembly")
	ErrForbidden     = errors.New("forbidden")
)

// Publisher delivers realtime events. Publish reaches the subscribers of one
// assembly, BroadcastToSchema every connected client of the tenant.
// Delivery is fire-and-forget.
type Publisher interface {
	Publish(tenantID, assemblyID string, event models.Event)
	BroadcastToSchema(tenantID string, event models.Event)
}

// MinutesRenderer turns a minutes document into a downloadable file
type MinutesRenderer interface {
	Render(doc models.MinutesDocument) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Config struct {
	// Re-cast ballots keep their first coefficient when true
	PreserveOriginalWeight bool
}

// Deps are optional collaborators; nil fields fall back to no-ops
type Deps struct {
	Publisher Publisher
	Notifier  notify.Notifier
	Renderer  MinutesRenderer
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

type Service struct {
	store     *store.Store
	cfg       Config
	publisher Publisher
	notifier  notify.Notifier
	renderer  MinutesRenderer
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
}

func New(st *store.Store, cfg Config, deps Deps) *Service {
	s := &Service{
		store:     st,
		cfg:       cfg,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		renderer:  deps.Renderer,
		metrics:   deps.Metrics,
		log:       deps.Logger,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
	if s.publisher == nil {
		s.publisher = nopPublisher{}
	}
	if s.notifier == nil {
		s.notifier = notify.Noop{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, models.Event) {}
func (nopPublisher) BroadcastToSchema(string, models.Event) {}

func (s *Service) publish(tenantID, assemblyID, name string, data any) {
	s.publisher.Publish(tenantID, assemblyID, models.Event{Event: name, Data: data})
	s.metrics.Broadcast(name)
}

// broadcast reaches residents who have not joined the assembly's room yet
func (s *Service) broadcast(tenantID, name string, data any) {
	s.publisher.BroadcastToSchema(tenantID, models.Event{Event: name, Data: data})
	s.metrics.Broadcast(name)
}

// fail logs err with the entity ids in args and returns it unchanged.
// Domain errors log at warn, storage errors at error.
func (s *Service) fail(ctx context.Context, msg string, err error, args ...any) error {
	level := slog.LevelError
	if IsDomainError(err) {
		level = slog.LevelWarn
	}
	s.log.Log(ctx, level, msg, append(args, "error", err)...)
	return err
}

// IsDomainError reports whether err is a caller mistake rather than a system failure
func IsDomainError(err error) bool {
	for _, target := range []error{ErrNotFound, ErrDuplicate, ErrValidation, ErrInvalidState, ErrInvalidOption, ErrNotAuthorized, ErrNotAttending, ErrForbidden} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
