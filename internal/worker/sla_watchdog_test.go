package worker

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/district-helpdesk/internal/domain"
	"github.com/spec-kit/district-helpdesk/internal/events"
	"github.com/spec-kit/district-helpdesk/internal/repository"
	"github.com/spec-kit/district-helpdesk/internal/taxonomy"
)

type fakeTicketRepo struct {
	repository.TicketRepository

	overdue []domain.Ticket
	flagged map[string]bool
}

func (f *fakeTicketRepo) ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, t := range f.overdue {
		if t.SLADueAt.Before(asOf) && !f.flagged[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTicketRepo) MarkBreached(ctx context.Context, id string) (bool, error) {
	if f.flagged[id] {
		return false, nil
	}
	f.flagged[id] = true
	return true, nil
}

type fakeHistoryRepo struct {
	repository.TicketHistoryRepository

	entries []domain.TicketHistory
}

func (f *fakeHistoryRepo) Create(ctx context.Context, entry *domain.TicketHistory) error {
	f.entries = append(f.entries, *entry)
	return nil
}

type fixedCatalog struct {
	tax *taxonomy.Taxonomy
}

func (c fixedCatalog) Taxonomy() *taxonomy.Taxonomy { return c.tax }

func newWatchdogFixture(overdue []domain.Ticket) (*SLAWatchdog, *fakeTicketRepo, *fakeHistoryRepo, *[]events.Event) {
	tickets := &fakeTicketRepo{overdue: overdue, flagged: map[string]bool{}}
	history := &fakeHistoryRepo{}
	dispatcher := events.NewInMemoryDispatcher()

	var published []events.Event
	dispatcher.Subscribe(events.EventTicketSLABreached, func(ctx context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})

	tax := taxonomy.New([]domain.CategoryConfig{
		{Name: "Projector & AV", OwningDepartment: "AV Services", Keywords: []string{"projector"}},
	})

	w := NewSLAWatchdog(tickets, history, fixedCatalog{tax: tax}, dispatcher, zap.NewNop(), time.Minute)
	return w, tickets, history, &published
}

func TestSweepFlagsOverdueTickets(t *testing.T) {
	now := time.Now()
	w, tickets, history, published := newWatchdogFixture([]domain.Ticket{
		{ID: "t1", Category: "Projector & AV", SLADueAt: now.Add(-time.Hour)},
		{ID: "t2", Category: "Projector & AV", SLADueAt: now.Add(time.Hour)},
	})

	breached, err := w.Sweep(context.Background(), now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if breached != 1 {
		t.Fatalf("breached = %d, want 1", breached)
	}
	if !tickets.flagged["t1"] || tickets.flagged["t2"] {
		t.Fatalf("flagged = %v, want only t1", tickets.flagged)
	}
	if len(history.entries) != 1 || history.entries[0].ChangeType != domain.ChangeTypeBreach {
		t.Fatalf("history = %+v", history.entries)
	}
	if len(*published) != 1 {
		t.Fatalf("events = %d, want 1", len(*published))
	}
	payload := (*published)[0].Payload.(events.TicketSLABreachedPayload)
	if payload.OwningDepartment != "AV Services" {
		t.Errorf("owning department = %q, want AV Services", payload.OwningDepartment)
	}
}

func TestSweepEscalatesExactlyOnce(t *testing.T) {
	now := time.Now()
	w, _, _, published := newWatchdogFixture([]domain.Ticket{
		{ID: "t1", Category: "Projector & AV", SLADueAt: now.Add(-time.Hour)},
	})

	for i := 0; i < 3; i++ {
		if _, err := w.Sweep(context.Background(), now); err != nil {
			t.Fatalf("Sweep %d: %v", i, err)
		}
	}
	if len(*published) != 1 {
		t.Fatalf("events = %d, want exactly 1 after repeated sweeps", len(*published))
	}
}

func TestSweepUnknownCategoryEscalatesToUnassigned(t *testing.T) {
	now := time.Now()
	w, _, _, published := newWatchdogFixture([]domain.Ticket{
		{ID: "t1", Category: "Retired Category", SLADueAt: now.Add(-time.Hour)},
	})

	if _, err := w.Sweep(context.Background(), now); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	payload := (*published)[0].Payload.(events.TicketSLABreachedPayload)
	if payload.OwningDepartment != domain.UnassignedDepartment {
		t.Errorf("owning department = %q, want %q", payload.OwningDepartment, domain.UnassignedDepartment)
	}
}
