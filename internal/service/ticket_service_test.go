package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/district-helpdesk/internal/config"
	"github.com/spec-kit/district-helpdesk/internal/domain"
	"github.com/spec-kit/district-helpdesk/internal/events"
	"github.com/spec-kit/district-helpdesk/internal/intake"
	"github.com/spec-kit/district-helpdesk/internal/observability"
	"github.com/spec-kit/district-helpdesk/internal/policy"
	"github.com/spec-kit/district-helpdesk/internal/realtime"
	"github.com/spec-kit/district-helpdesk/internal/repository"
	"github.com/spec-kit/district-helpdesk/pkg/util/errorutil"
)

type memTicketRepo struct {
	seq        int
	tickets    map[string]*domain.Ticket
	lastFilter repository.TicketFilter
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *memTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *memTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *memTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *t
	return &clone, nil
}

func (r *memTicketRepo) GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error) {
	for _, t := range r.tickets {
		if t.ExternalKey == key {
			clone := *t
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// ListWithFilter applies the facet fields and pages afterwards, mirroring
// the shape of the SQL query.
func (r *memTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.lastFilter = filter
	var out []domain.Ticket
	for i := 1; i <= r.seq; i++ {
		t, ok := r.tickets[fmt.Sprintf("ticket-%d", i)]
		if !ok {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, t.Status) {
			continue
		}
		if filter.Category != nil && t.Category != *filter.Category {
			continue
		}
		if filter.School != nil && t.School != *filter.School {
			continue
		}
		out = append(out, *t)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (r *memTicketRepo) ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]domain.Ticket, error) {
	return nil, nil
}

func (r *memTicketRepo) MarkBreached(ctx context.Context, id string) (bool, error) {
	t, ok := r.tickets[id]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if t.SLABreached {
		return false, nil
	}
	t.SLABreached = true
	return true, nil
}

type memHistoryRepo struct {
	entries []domain.TicketHistory
}

func (r *memHistoryRepo) Create(ctx context.Context, entry *domain.TicketHistory) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memHistoryRepo) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	var out []domain.TicketHistory
	for _, e := range r.entries {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memCategoryRepo struct {
	categories []domain.CategoryConfig
}

func (r *memCategoryRepo) Create(ctx context.Context, c *domain.CategoryConfig) error {
	r.categories = append(r.categories, *c)
	return nil
}

func (r *memCategoryRepo) Update(ctx context.Context, c *domain.CategoryConfig) error { return nil }

func (r *memCategoryRepo) GetByName(ctx context.Context, name string) (*domain.CategoryConfig, error) {
	for i := range r.categories {
		if r.categories[i].Name == name {
			return &r.categories[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memCategoryRepo) ListOrdered(ctx context.Context) ([]domain.CategoryConfig, error) {
	return r.categories, nil
}

type memArticleRepo struct {
	articles []domain.Article
}

func (r *memArticleRepo) Create(ctx context.Context, a *domain.Article) error {
	r.articles = append(r.articles, *a)
	return nil
}

func (r *memArticleRepo) Update(ctx context.Context, a *domain.Article) error { return nil }

func (r *memArticleRepo) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	for i := range r.articles {
		if r.articles[i].ID == id {
			return &r.articles[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memArticleRepo) ListOrdered(ctx context.Context) ([]domain.Article, error) {
	return r.articles, nil
}

type fixture struct {
	svc        *TicketService
	tickets    *memTicketRepo
	history    *memHistoryRepo
	events     *[]events.Event
	catalog    *CatalogService
	security   *policy.AccessPolicy
	dispatcher events.Dispatcher
	logs       *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)
	tickets := newMemTicketRepo()
	history := &memHistoryRepo{}
	feed := realtime.NewChangeFeed(nil, logger)

	catalog := NewCatalogService(&memCategoryRepo{categories: []domain.CategoryConfig{
		{Name: "Chromebook & Devices", OwningDepartment: "Device Support", Keywords: []string{"chromebook"}, Position: 0},
		{Name: "Student Records", OwningDepartment: "Data Services", Sensitive: true, Keywords: []string{"grades"}, Position: 1},
	}}, &memArticleRepo{}, feed, logger)
	if err := catalog.Refresh(context.Background()); err != nil {
		t.Fatalf("catalog refresh: %v", err)
	}

	dispatcher := events.NewInMemoryDispatcher()
	var published []events.Event
	for _, typ := range []events.EventType{events.EventTicketCreated, events.EventTicketStatusChanged, events.EventTicketAssigned} {
		dispatcher.Subscribe(typ, func(ctx context.Context, e events.Event) error {
			published = append(published, e)
			return nil
		})
	}

	sla := config.SLAConfig{LowHours: 72, MediumHours: 24, HighHours: 8, CriticalHours: 4}
	security := policy.NewAccessPolicy(policy.MutateSuperAdminOnly)
	svc := NewTicketService(tickets, history, security, catalog, sla, dispatcher, feed, observability.NewMetrics(), logger)

	return &fixture{
		svc:        svc,
		tickets:    tickets,
		history:    history,
		events:     &published,
		catalog:    catalog,
		security:   security,
		dispatcher: dispatcher,
		logs:       logs,
	}
}

func superAdmin() *domain.Staff {
	return &domain.Staff{ID: "admin-1", Email: "admin@district.example", SuperAdmin: true, Active: true}
}

func deviceTech() *domain.Staff {
	return &domain.Staff{
		ID:            "tech-1",
		Email:         "tech@district.example",
		Department:    "Device Support",
		AccessSchools: []string{domain.AllSchools},
		Active:        true,
	}
}

func TestCreateFromIntake(t *testing.T) {
	f := newFixture(t)

	ticket, err := f.svc.CreateFromIntake(context.Background(), "Teacher@School.Example", "Lincoln Elementary", intake.Draft{
		Subject:          "chromebook will not charge",
		Description:      "chromebook will not charge",
		Category:         "Chromebook & Devices",
		OwningDepartment: "Device Support",
		Location:         "Room 204",
		Priority:         domain.TicketPriorityHigh,
	})
	if err != nil {
		t.Fatalf("CreateFromIntake: %v", err)
	}

	if ticket.Status != domain.TicketStatusOpen {
		t.Errorf("status = %q, want Open", ticket.Status)
	}
	if ticket.RequesterEmail != "teacher@school.example" {
		t.Errorf("requester email = %q, want lowercased", ticket.RequesterEmail)
	}
	if !strings.HasPrefix(ticket.ExternalKey, "HD-") || len(ticket.ExternalKey) != 9 {
		t.Errorf("external key = %q", ticket.ExternalKey)
	}

	wantDue := ticket.CreatedAt.Add(8 * time.Hour)
	if diff := ticket.SLADueAt.Sub(wantDue); diff < -time.Minute || diff > time.Minute {
		t.Errorf("sla due = %v, want about %v", ticket.SLADueAt, wantDue)
	}

	if len(*f.events) != 1 || (*f.events)[0].Type != events.EventTicketCreated {
		t.Fatalf("events = %+v, want one ticket_created", *f.events)
	}
}

func TestCreateFromIntakeLogsEventHandlerFailures(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.Subscribe(events.EventTicketCreated, func(ctx context.Context, e events.Event) error {
		return errors.New("relay unavailable")
	})

	if _, err := f.svc.CreateFromIntake(context.Background(), "a@school.example", "Lincoln Elementary", intake.Draft{
		Subject: "x", Description: "x", Category: "Chromebook & Devices", Priority: domain.TicketPriorityLow,
	}); err != nil {
		t.Fatalf("CreateFromIntake: %v", err)
	}

	// A failing subscriber never fails the write, but it must be logged.
	warned := f.logs.FilterMessage("event handlers failed").All()
	if len(warned) != 1 {
		t.Fatalf("warnings = %d, want 1", len(warned))
	}
}

func TestListVisibleScopesByDepartment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mustCreate := func(category, requester string) *domain.Ticket {
		ticket, err := f.svc.CreateFromIntake(ctx, requester, "Lincoln Elementary", intake.Draft{
			Subject: "x", Description: "x", Category: category, Priority: domain.TicketPriorityLow,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return ticket
	}
	deviceTicket := mustCreate("Chromebook & Devices", "a@school.example")
	mustCreate("Student Records", "b@school.example")

	visible, err := f.svc.ListVisible(ctx, deviceTech(), ListQuery{Status: policy.StatusFacetAll})
	if err != nil {
		t.Fatalf("ListVisible: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != deviceTicket.ID {
		t.Fatalf("visible = %+v, want only the device ticket", visible)
	}

	all, err := f.svc.ListVisible(ctx, superAdmin(), ListQuery{Status: policy.StatusFacetAll})
	if err != nil {
		t.Fatalf("ListVisible admin: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin sees %d tickets, want 2", len(all))
	}
}

func TestListVisiblePushesFacetsIntoQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := superAdmin()

	mustCreate := func(category string) *domain.Ticket {
		ticket, err := f.svc.CreateFromIntake(ctx, "a@school.example", "Lincoln Elementary", intake.Draft{
			Subject: "x", Description: "x", Category: category, Priority: domain.TicketPriorityLow,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return ticket
	}
	mustCreate("Student Records")
	first := mustCreate("Chromebook & Devices")
	second := mustCreate("Chromebook & Devices")

	// With the category in the query, a page of 2 holds both device
	// tickets instead of being clipped by the unrelated first row.
	visible, err := f.svc.ListVisible(ctx, admin, ListQuery{
		Status:   policy.StatusFacetAll,
		Category: "Chromebook & Devices",
		Limit:    2,
	})
	if err != nil {
		t.Fatalf("ListVisible: %v", err)
	}
	if len(visible) != 2 || visible[0].ID != first.ID || visible[1].ID != second.ID {
		t.Fatalf("visible = %+v, want both device tickets", visible)
	}
	if f.tickets.lastFilter.Category == nil || *f.tickets.lastFilter.Category != "Chromebook & Devices" {
		t.Fatalf("store filter category = %v, want pushed down", f.tickets.lastFilter.Category)
	}

	if _, err := f.svc.UpdateStatus(ctx, admin, first.ID, domain.TicketStatusResolved, ""); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	resolved, err := f.svc.ListVisible(ctx, admin, ListQuery{Status: policy.StatusFacetResolved})
	if err != nil {
		t.Fatalf("ListVisible resolved: %v", err)
	}
	if len(resolved) != 1 || resolved[0].ID != first.ID {
		t.Fatalf("resolved = %+v, want only the resolved ticket", resolved)
	}
	if len(f.tickets.lastFilter.Statuses) != 1 || f.tickets.lastFilter.Statuses[0] != domain.TicketStatusResolved {
		t.Fatalf("store filter statuses = %v, want [Resolved]", f.tickets.lastFilter.Statuses)
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := superAdmin()

	ticket, err := f.svc.CreateFromIntake(ctx, "a@school.example", "Lincoln Elementary", intake.Draft{
		Subject: "x", Description: "x", Category: "Chromebook & Devices", Priority: domain.TicketPriorityLow,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.svc.UpdateStatus(ctx, admin, ticket.ID, domain.TicketStatusInProgress, "looking into it")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != domain.TicketStatusInProgress {
		t.Errorf("status = %q", updated.Status)
	}

	// Pending Vendor cannot jump straight to Closed.
	if _, err := f.svc.UpdateStatus(ctx, admin, ticket.ID, domain.TicketStatusPendingVendor, ""); err != nil {
		t.Fatalf("to pending vendor: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, admin, ticket.ID, domain.TicketStatusClosed, ""); err == nil {
		t.Fatal("expected invalid transition error")
	}

	if _, err := f.svc.UpdateStatus(ctx, admin, ticket.ID, domain.TicketStatusResolved, ""); err != nil {
		t.Fatalf("to resolved: %v", err)
	}
	closed, err := f.svc.UpdateStatus(ctx, admin, ticket.ID, domain.TicketStatusClosed, "")
	if err != nil {
		t.Fatalf("to closed: %v", err)
	}
	if closed.ClosedAt == nil {
		t.Error("ClosedAt not set on close")
	}

	if len(f.history.entries) != 4 {
		t.Errorf("history entries = %d, want 4", len(f.history.entries))
	}
}

func TestUpdateStatusRequiresMutationRights(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.svc.CreateFromIntake(ctx, "a@school.example", "Lincoln Elementary", intake.Draft{
		Subject: "x", Description: "x", Category: "Chromebook & Devices", Priority: domain.TicketPriorityLow,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.UpdateStatus(ctx, deviceTech(), ticket.ID, domain.TicketStatusInProgress, "")
	var domainErr *errorutil.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Fatalf("err = %v, want FORBIDDEN under super-admin-only mutation", err)
	}
}

func TestGetDetailSensitiveGating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.svc.CreateFromIntake(ctx, "tech@district.example", "Lincoln Elementary", intake.Draft{
		Subject: "grade export looks wrong", Description: "grade export looks wrong",
		Category: "Student Records", Sensitive: true, Priority: domain.TicketPriorityMedium,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// The requester can see the ticket in lists but not open the detail.
	_, _, err = f.svc.GetDetail(ctx, deviceTech(), ticket.ID)
	var domainErr *errorutil.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Fatalf("err = %v, want FORBIDDEN for sensitive detail", err)
	}

	got, history, err := f.svc.GetDetail(ctx, superAdmin(), ticket.ID)
	if err != nil {
		t.Fatalf("GetDetail admin: %v", err)
	}
	if got.ID != ticket.ID {
		t.Fatalf("detail = %+v", got)
	}
	if len(history) != 0 {
		t.Fatalf("history = %+v, want none yet", history)
	}
}

func TestAssign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := superAdmin()

	ticket, err := f.svc.CreateFromIntake(ctx, "a@school.example", "Lincoln Elementary", intake.Draft{
		Subject: "x", Description: "x", Category: "Chromebook & Devices", Priority: domain.TicketPriorityLow,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	assignee := "tech-1"
	updated, err := f.svc.Assign(ctx, admin, ticket.ID, &assignee)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if updated.AssigneeID == nil || *updated.AssigneeID != "tech-1" {
		t.Errorf("assignee = %v", updated.AssigneeID)
	}

	cleared, err := f.svc.Assign(ctx, admin, ticket.ID, nil)
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if cleared.AssigneeID != nil {
		t.Errorf("assignee = %v, want nil", cleared.AssigneeID)
	}
}
