// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/danielhkuo/armonia/auth"
	"github.com/danielhkuo/armonia/export"
	"github.com/danielhkuo/armonia/metrics"
	"github.com/danielhkuo/armonia/models"
	"github.com/danielhkuo/armonia/store"
	"github.com/danielhkuo/armonia/testutil"
)

const tenant = testutil.TestTenant

var admin = auth.Principal{UserID: "admin-1", TenantID: tenant, Role: models.RoleAdmin}

type published struct {
	tenantID   string
	assemblyID string // empty for tenant-wide broadcasts
	event      models.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(tenantID, assemblyID string, event models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{tenantID, assemblyID, event})
}

func (p *recordingPublisher) BroadcastToSchema(tenantID string, event models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{tenantID: tenantID, event: event})
}

func (p *recordingPublisher) named(name string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.events {
		if e.event.Event == name {
			out = append(out, e)
		}
	}
	return out
}

type recordingNotifier struct {
	mu            sync.Mutex
	quorumReached int
	votesClosed   int
}

func (n *recordingNotifier) QuorumReached(context.Context, models.Assembly, models.QuorumResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.quorumReached++
}

func (n *recordingNotifier) VoteClosed(context.Context, models.Vote, models.VoteResults) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.votesClosed++
}

type harness struct {
	svc       *Service
	db        *sql.DB
	publisher *recordingPublisher
	notifier  *recordingNotifier
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	h := &harness{
		db:        conn,
		publisher: &recordingPublisher{},
		notifier:  &recordingNotifier{},
	}
	h.svc = New(store.New(conn), cfg, Deps{
		Publisher: h.publisher,
		Notifier:  h.notifier,
		Renderer:  export.XLSX{},
		Metrics:   metrics.New(),
	})
	return h
}

// complexFixture is a property with two units: "A" (coefficient 60) owned by owner
// and "B" (coefficient 40) owned by other.
type complexFixture struct {
	propertyID string
	unitA      string
	unitB      string
	owner      auth.Principal
	other      auth.Principal
}

func (h *harness) seedComplex(t *testing.T, coefficientA, coefficientB float64) complexFixture {
	t.Helper()

	c := complexFixture{propertyID: testutil.CreateTestProperty(t, h.db, tenant)}
	c.unitA = testutil.CreateTestUnit(t, h.db, tenant, c.propertyID, "A", testutil.Coefficient(coefficientA))
	c.unitB = testutil.CreateTestUnit(t, h.db, tenant, c.propertyID, "B", testutil.Coefficient(coefficientB))

	ownerID := testutil.CreateTestUser(t, h.db, tenant, "Ana")
	otherID := testutil.CreateTestUser(t, h.db, tenant, "Bruno")
	testutil.AddTestMember(t, h.db, c.unitA, ownerID, models.MemberOwner)
	testutil.AddTestMember(t, h.db, c.unitB, otherID, models.MemberOwner)

	c.owner = auth.Principal{UserID: ownerID, TenantID: tenant, Role: models.RoleResident}
	c.other = auth.Principal{UserID: otherID, TenantID: tenant, Role: models.RoleResident}
	return c
}
