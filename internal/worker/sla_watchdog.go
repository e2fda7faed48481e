// Package worker hosts background loops that run beside the HTTP server.
package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/district-helpdesk/internal/domain"
	"github.com/spec-kit/district-helpdesk/internal/events"
	"github.com/spec-kit/district-helpdesk/internal/repository"
	"github.com/spec-kit/district-helpdesk/internal/taxonomy"
)

const sweepBatchSize = 200

// TaxonomyProvider resolves the current category taxonomy.
type TaxonomyProvider interface {
	Taxonomy() *taxonomy.Taxonomy
}

// SLAWatchdog periodically flags tickets past their response deadline.
// The breach flag is monotonic and the store-level guarded update makes
// each escalation fire exactly once even with concurrent sweeps.
type SLAWatchdog struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	catalog    TaxonomyProvider
	dispatcher events.Dispatcher
	logger     *zap.Logger
	interval   time.Duration
}

// NewSLAWatchdog builds the watchdog.
func NewSLAWatchdog(
	tickets repository.TicketRepository,
	history repository.TicketHistoryRepository,
	catalog TaxonomyProvider,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
	interval time.Duration,
) *SLAWatchdog {
	return &SLAWatchdog{
		tickets:    tickets,
		history:    history,
		catalog:    catalog,
		dispatcher: dispatcher,
		logger:     logger,
		interval:   interval,
	}
}

// Run sweeps on the configured cadence until ctx is cancelled.
func (w *SLAWatchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("sla watchdog started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sla watchdog stopped")
			return
		case <-ticker.C:
			if _, err := w.Sweep(ctx, time.Now()); err != nil {
				w.logger.Error("sla sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep flags every overdue ticket as of asOf and returns how many were
// newly breached.
func (w *SLAWatchdog) Sweep(ctx context.Context, asOf time.Time) (int, error) {
	overdue, err := w.tickets.ListOverdue(ctx, asOf, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	breached := 0
	for i := range overdue {
		ticket := &overdue[i]

		flipped, err := w.tickets.MarkBreached(ctx, ticket.ID)
		if err != nil {
			w.logger.Warn("breach flag update failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
			continue
		}
		if !flipped {
			// Another sweep got there first; it owns the escalation.
			continue
		}
		breached++

		entry := &domain.TicketHistory{
			TicketID:   ticket.ID,
			ChangeType: domain.ChangeTypeBreach,
			OldValue:   map[string]any{"sla_breached": false},
			NewValue:   map[string]any{"sla_breached": true, "due_at": ticket.SLADueAt},
		}
		if err := w.history.Create(ctx, entry); err != nil {
			w.logger.Warn("breach history write failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
		}

		w.publishBreach(ctx, ticket)
	}

	if breached > 0 {
		w.logger.Info("sla sweep flagged tickets", zap.Int("breached", breached))
	}
	return breached, nil
}

func (w *SLAWatchdog) publishBreach(ctx context.Context, ticket *domain.Ticket) {
	if w.dispatcher == nil {
		return
	}
	owning := w.catalog.Taxonomy().OwningDepartment(ticket.Category)
	err := w.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketSLABreached,
		TicketID:  ticket.ID,
		Timestamp: time.Now(),
		Payload: events.TicketSLABreachedPayload{
			Category:         ticket.Category,
			OwningDepartment: owning,
			DueAt:            ticket.SLADueAt,
		},
	})
	if err != nil {
		w.logger.Warn("breach event handlers failed",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
	}
}
