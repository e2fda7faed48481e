package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/district-helpdesk/internal/config"
	"github.com/spec-kit/district-helpdesk/internal/events"
	"github.com/spec-kit/district-helpdesk/internal/intake"
	"github.com/spec-kit/district-helpdesk/internal/observability"
	"github.com/spec-kit/district-helpdesk/pkg/util/errorutil"
)

// IntakeService tracks live intake conversations keyed by id. Conversations
// live in memory only; abandoning one loses nothing but the draft, which is
// conversation-scoped anyway.
type IntakeService struct {
	catalog    *CatalogService
	creator    intake.TicketCreator
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        config.IntakeConfig

	mu            sync.Mutex
	conversations map[string]*intake.Conversation
}

// NewIntakeService wires the intake flow and registers the deflection
// metric hook.
func NewIntakeService(
	catalog *CatalogService,
	creator intake.TicketCreator,
	dispatcher events.Dispatcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
	cfg config.IntakeConfig,
) *IntakeService {
	s := &IntakeService{
		catalog:       catalog,
		creator:       creator,
		dispatcher:    dispatcher,
		metrics:       metrics,
		logger:        logger,
		cfg:           cfg,
		conversations: make(map[string]*intake.Conversation),
	}
	if dispatcher != nil {
		dispatcher.Subscribe(events.EventKBDeflection, func(ctx context.Context, event events.Event) error {
			metrics.RecordDeflection()
			return nil
		})
	}
	return s
}

// Start opens a conversation for a requester and returns its id with the
// opening prompt.
func (s *IntakeService) Start(ctx context.Context, requesterEmail, school string) (*intake.Conversation, intake.Reply) {
	conv := intake.NewConversation(requesterEmail, school, s.options(), intake.Dependencies{
		Taxonomy:   s.catalog.Taxonomy(),
		Articles:   s.catalog.Articles(),
		Creator:    s.creator,
		Dispatcher: s.dispatcher,
		Logger:     s.logger,
	})

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.mu.Unlock()

	s.logger.Info("intake conversation started",
		zap.String("conversation_id", conv.ID),
		zap.String("school", school))

	return conv, intake.Reply{
		State:  conv.State(),
		Prompt: "Hi! Describe the problem you're having and I'll route it to the right team.",
	}
}

// Get returns a live conversation by id.
func (s *IntakeService) Get(conversationID string) (*intake.Conversation, error) {
	s.mu.Lock()
	conv, ok := s.conversations[conversationID]
	s.mu.Unlock()
	if !ok {
		return nil, errorutil.NewNotFound("conversation", map[string]any{"conversation_id": conversationID})
	}
	return conv, nil
}

// HandleTurn advances a conversation by one user message.
func (s *IntakeService) HandleTurn(ctx context.Context, conversationID, message string) (intake.Reply, error) {
	s.mu.Lock()
	conv, ok := s.conversations[conversationID]
	s.mu.Unlock()
	if !ok {
		return intake.Reply{}, errorutil.NewNotFound("conversation", map[string]any{"conversation_id": conversationID})
	}

	reply, err := conv.Advance(ctx, message)
	if err != nil {
		return reply, err
	}

	if conv.Done() {
		s.mu.Lock()
		delete(s.conversations, conversationID)
		s.mu.Unlock()
	}
	return reply, nil
}

// EvictIdle runs TTL-based cleanup at half the TTL cadence until ctx is
// cancelled.
func (s *IntakeService) EvictIdle(ctx context.Context) {
	ttl := s.cfg.ConversationTTL()
	ticker := time.NewTicker(ttl / 2)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.evictOlderThan(time.Now().Add(-ttl))
			}
		}
	}()
}

func (s *IntakeService) evictOlderThan(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, conv := range s.conversations {
		if conv.UpdatedAt.Before(cutoff) {
			delete(s.conversations, id)
			s.logger.Debug("intake conversation evicted", zap.String("conversation_id", id))
		}
	}
}

func (s *IntakeService) options() intake.Options {
	opts := intake.Options{
		Priorities: intake.DefaultPriorities,
		ReplyDelay: s.cfg.ReplyDelay(),
	}
	if s.cfg.FourLevelPriorities {
		opts.Priorities = intake.FourLevelPriorities
	}
	return opts
}
