package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/district-helpdesk/internal/config"
	"github.com/spec-kit/district-helpdesk/internal/domain"
	"github.com/spec-kit/district-helpdesk/internal/events"
	"github.com/spec-kit/district-helpdesk/internal/intake"
	"github.com/spec-kit/district-helpdesk/internal/observability"
	"github.com/spec-kit/district-helpdesk/internal/realtime"
)

type stubCreator struct {
	created int
}

func (s *stubCreator) CreateFromIntake(ctx context.Context, requesterEmail, school string, draft intake.Draft) (*domain.Ticket, error) {
	s.created++
	return &domain.Ticket{
		ID:          "ticket-1",
		ExternalKey: "HD-TEST01",
		Subject:     draft.Subject,
		Category:    draft.Category,
		School:      school,
		Location:    draft.Location,
		Status:      domain.TicketStatusOpen,
		Priority:    draft.Priority,
	}, nil
}

func newIntakeFixture(t *testing.T, articles []domain.Article) (*IntakeService, *stubCreator, *observability.Metrics) {
	t.Helper()

	logger := zap.NewNop()
	feed := realtime.NewChangeFeed(nil, logger)
	catalog := NewCatalogService(&memCategoryRepo{categories: []domain.CategoryConfig{
		{Name: "IT - Network", OwningDepartment: "IT", Keywords: []string{"wifi", "internet"}},
	}}, &memArticleRepo{articles: articles}, feed, logger)
	if err := catalog.Refresh(context.Background()); err != nil {
		t.Fatalf("catalog refresh: %v", err)
	}

	creator := &stubCreator{}
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	cfg := config.IntakeConfig{ConversationTTLMinutes: 60}

	return NewIntakeService(catalog, creator, dispatcher, metrics, logger, cfg), creator, metrics
}

func TestIntakeFullFlow(t *testing.T) {
	svc, creator, _ := newIntakeFixture(t, nil)
	ctx := context.Background()

	conv, opening := svc.Start(ctx, "teacher@school.example", "North High")
	if opening.Prompt == "" {
		t.Fatal("expected an opening prompt")
	}

	if _, err := svc.Get(conv.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}

	for _, msg := range []string{"the wifi in my room keeps dropping", "Room 12", "High"} {
		if _, err := svc.HandleTurn(ctx, conv.ID, msg); err != nil {
			t.Fatalf("HandleTurn(%q): %v", msg, err)
		}
	}
	if creator.created != 1 {
		t.Fatalf("created = %d, want 1", creator.created)
	}

	// Finalized conversations leave the registry.
	if _, err := svc.Get(conv.ID); err == nil {
		t.Fatal("expected finalized conversation to be gone")
	}
}

func TestIntakeDeflectionCountsMetric(t *testing.T) {
	svc, creator, metrics := newIntakeFixture(t, []domain.Article{
		{ID: "a1", Title: "Troubleshooting Slow Wifi", Triggers: []string{"slow wifi"}},
	})
	ctx := context.Background()

	conv, _ := svc.Start(ctx, "teacher@school.example", "North High")
	reply, err := svc.HandleTurn(ctx, conv.ID, "my slow wifi is driving me crazy")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if reply.Article == nil {
		t.Fatal("expected an article suggestion")
	}

	if _, err := svc.HandleTurn(ctx, conv.ID, intake.AnswerSolved); err != nil {
		t.Fatalf("HandleTurn solved: %v", err)
	}
	if creator.created != 0 {
		t.Fatalf("created = %d, want 0 after deflection", creator.created)
	}
	if got := metrics.Snapshot().Deflections; got != 1 {
		t.Fatalf("deflections = %d, want 1", got)
	}
}

func TestIntakeEvictIdleConversations(t *testing.T) {
	svc, _, _ := newIntakeFixture(t, nil)
	ctx := context.Background()

	conv, _ := svc.Start(ctx, "teacher@school.example", "North High")
	svc.evictOlderThan(time.Now().Add(time.Minute))

	if _, err := svc.Get(conv.ID); err == nil {
		t.Fatal("expected stale conversation to be evicted")
	}
}
