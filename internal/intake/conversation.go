// Package intake drives the chat-style ticket creation flow: a short
// sequential state machine that turns a free-text description into a
// structured ticket, attempting knowledge-base deflection first.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/district-helpdesk/internal/domain"
	"github.com/spec-kit/district-helpdesk/internal/events"
	"github.com/spec-kit/district-helpdesk/internal/kb"
	"github.com/spec-kit/district-helpdesk/internal/taxonomy"
)

// State identifies the conversation's position in the intake flow.
type State string

const (
	StateIssue       State = "ISSUE"
	StateKBSuggested State = "KB_SUGGESTED"
	StateLocation    State = "LOCATION"
	StatePriority    State = "PRIORITY"
	StateFinalized   State = "FINALIZED"
	StateDeflected   State = "DEFLECTED"
)

// Recognized replies while an article suggestion is pending.
const (
	AnswerSolved    = "solved"
	AnswerNotSolved = "not solved"
)

const subjectDisplayLimit = 80

// ErrConversationOver is returned when a turn arrives after a terminal state.
var ErrConversationOver = errors.New("conversation already finished")

// ErrEmptyMessage is returned for blank user input.
var ErrEmptyMessage = errors.New("message text required")

// Draft accumulates ticket fields across turns. It is conversation-scoped
// and never visible to other users before finalization.
type Draft struct {
	Subject          string
	Description      string
	Category         string
	OwningDepartment string
	Sensitive        bool
	Location         string
	Priority         domain.TicketPriority
}

// TicketCreator persists a finalized draft. A failure leaves the
// conversation in PRIORITY with the draft intact so the turn can be retried.
type TicketCreator interface {
	CreateFromIntake(ctx context.Context, requesterEmail, school string, draft Draft) (*domain.Ticket, error)
}

// Options tunes conversation behavior per deployment.
type Options struct {
	// Priorities is the selectable set, in display order. Both the 3-level
	// and 4-level variants from the district's views are supported.
	Priorities []domain.TicketPriority
	// ReplyDelay is the perceived-typing pause before each bot reply.
	// Zero disables it; it is a UX affordance, not a correctness concern.
	ReplyDelay time.Duration
}

// DefaultPriorities is the 3-level intake variant.
var DefaultPriorities = []domain.TicketPriority{
	domain.TicketPriorityLow,
	domain.TicketPriorityMedium,
	domain.TicketPriorityHigh,
}

// FourLevelPriorities adds the Critical option.
var FourLevelPriorities = []domain.TicketPriority{
	domain.TicketPriorityLow,
	domain.TicketPriorityMedium,
	domain.TicketPriorityHigh,
	domain.TicketPriorityCritical,
}

// Dependencies bundles collaborators for a conversation.
type Dependencies struct {
	Taxonomy   *taxonomy.Taxonomy
	Articles   []domain.Article
	Creator    TicketCreator
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// Reply is one bot turn presented back to the requester.
type Reply struct {
	State   State
	Prompt  string
	Article *domain.Article
	Ticket  *domain.Ticket
}

// Conversation is a single requester's intake session. Not safe for
// concurrent use; each session is driven by one user at a time.
type Conversation struct {
	ID             string
	RequesterEmail string
	School         string

	state     State
	draft     Draft
	issueText string
	suggested *domain.Article

	opts Options
	deps Dependencies

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewConversation starts an intake session for a requester at a school.
func NewConversation(requesterEmail, school string, opts Options, deps Dependencies) *Conversation {
	if len(opts.Priorities) == 0 {
		opts.Priorities = DefaultPriorities
	}
	now := time.Now()
	return &Conversation{
		ID:             uuid.NewString(),
		RequesterEmail: requesterEmail,
		School:         school,
		state:          StateIssue,
		opts:           opts,
		deps:           deps,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// State returns the current conversation state.
func (c *Conversation) State() State {
	return c.state
}

// Draft returns the accumulated draft.
func (c *Conversation) Draft() Draft {
	return c.draft
}

// Done reports whether the conversation reached a terminal state.
func (c *Conversation) Done() bool {
	return c.state == StateFinalized || c.state == StateDeflected
}

// Advance consumes one user turn and returns the bot's reply. Input is
// interpreted by the current state. Only the ticket-store handoff can fail;
// every other outcome (no classification match, no article match) is normal
// control flow.
func (c *Conversation) Advance(ctx context.Context, input string) (Reply, error) {
	if c.Done() {
		return Reply{State: c.state}, ErrConversationOver
	}
	text := strings.TrimSpace(input)
	if text == "" {
		return Reply{State: c.state}, ErrEmptyMessage
	}

	var reply Reply
	var err error
	switch c.state {
	case StateIssue:
		reply = c.handleIssue(text, false)
	case StateKBSuggested:
		reply = c.handleSuggestionAnswer(ctx, text)
	case StateLocation:
		c.draft.Location = text
		c.state = StatePriority
		reply = Reply{State: c.state, Prompt: c.priorityPrompt()}
	case StatePriority:
		reply, err = c.handlePriority(ctx, text)
	default:
		return Reply{State: c.state}, fmt.Errorf("unexpected conversation state %q", c.state)
	}

	c.UpdatedAt = time.Now()
	if err == nil && c.opts.ReplyDelay > 0 {
		time.Sleep(c.opts.ReplyDelay)
	}
	return reply, err
}

// handleIssue runs the deflection-then-classify path. skipKB forces
// classification after the requester rejected a suggested article.
func (c *Conversation) handleIssue(text string, skipKB bool) Reply {
	if !skipKB {
		if article, ok := kb.MatchTriggers(text, c.deps.Articles); ok {
			c.issueText = text
			c.suggested = &article
			c.state = StateKBSuggested
			return Reply{
				State:   c.state,
				Prompt:  fmt.Sprintf("This article might help: %q. Did it solve your problem? (%s / %s)", article.Title, AnswerSolved, AnswerNotSolved),
				Article: &article,
			}
		}
	}

	decision := taxonomy.Classify(text, c.deps.Taxonomy)
	c.issueText = text
	c.draft.Subject = truncateForDisplay(text, subjectDisplayLimit)
	c.draft.Description = text
	c.draft.Category = decision.Category
	c.draft.OwningDepartment = decision.OwningDepartment
	c.draft.Sensitive = decision.Sensitive
	c.state = StateLocation

	return Reply{
		State:  c.state,
		Prompt: fmt.Sprintf("Got it, this looks like a %s issue. Which room or location?", decision.Category),
	}
}

func (c *Conversation) handleSuggestionAnswer(ctx context.Context, text string) Reply {
	switch strings.ToLower(text) {
	case AnswerSolved:
		c.state = StateDeflected
		c.publishDeflection(ctx)
		return Reply{
			State:  c.state,
			Prompt: "Great, glad that helped. No ticket was created.",
		}
	case AnswerNotSolved:
		return c.handleIssue(c.issueText, true)
	default:
		return Reply{
			State:  c.state,
			Prompt: fmt.Sprintf("Please answer %q or %q.", AnswerSolved, AnswerNotSolved),
		}
	}
}

func (c *Conversation) handlePriority(ctx context.Context, text string) (Reply, error) {
	priority, ok := c.parsePriority(text)
	if !ok {
		return Reply{State: c.state, Prompt: c.priorityPrompt()},
			fmt.Errorf("unrecognized priority %q", text)
	}
	c.draft.Priority = priority

	ticket, err := c.deps.Creator.CreateFromIntake(ctx, c.RequesterEmail, c.School, c.draft)
	if err != nil {
		// Draft and state stay put so the requester can retry the turn.
		return Reply{State: c.state}, fmt.Errorf("create ticket: %w", err)
	}

	c.state = StateFinalized
	return Reply{
		State:  c.state,
		Prompt: fmt.Sprintf("Your ticket %s has been created. The %s team will follow up by email.", ticket.ExternalKey, c.draft.OwningDepartment),
		Ticket: ticket,
	}, nil
}

func (c *Conversation) parsePriority(text string) (domain.TicketPriority, bool) {
	for _, priority := range c.opts.Priorities {
		if strings.EqualFold(text, string(priority)) {
			return priority, true
		}
	}
	return "", false
}

func (c *Conversation) priorityPrompt() string {
	labels := make([]string, len(c.opts.Priorities))
	for i, priority := range c.opts.Priorities {
		labels[i] = string(priority)
	}
	return fmt.Sprintf("How urgent is this? (%s)", strings.Join(labels, " / "))
}

func (c *Conversation) publishDeflection(ctx context.Context) {
	if c.deps.Dispatcher == nil || c.suggested == nil {
		return
	}
	err := c.deps.Dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventKBDeflection,
		Timestamp: time.Now(),
		Payload: events.KBDeflectionPayload{
			ConversationID: c.ID,
			ArticleID:      c.suggested.ID,
		},
	})
	if err != nil && c.deps.Logger != nil {
		c.deps.Logger.Warn("deflection event handlers failed",
			zap.String("conversation_id", c.ID),
			zap.Error(err))
	}
}

// truncateForDisplay shortens to max runes, never splitting a multibyte
// character; the result is persisted and must stay valid UTF-8.
func truncateForDisplay(text string, max int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
