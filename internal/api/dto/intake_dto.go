package dto

// StartConversationRequest opens an intake session.
type StartConversationRequest struct {
	RequesterEmail string `json:"requester_email"`
	School         string `json:"school"`
}

// ConversationMessageRequest is one user turn.
type ConversationMessageRequest struct {
	Message string `json:"message"`
}

// ArticleSuggestion is a knowledge-base hit offered to the requester.
type ArticleSuggestion struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ConversationReply is the bot's side of one turn.
type ConversationReply struct {
	ConversationID string             `json:"conversation_id"`
	State          string             `json:"state"`
	Prompt         string             `json:"prompt"`
	Article        *ArticleSuggestion `json:"article,omitempty"`
	Ticket         *TicketSummary     `json:"ticket,omitempty"`
}

// KBSearchQuery is the standalone article search.
type KBSearchQuery struct {
	Query string `query:"q"`
}
