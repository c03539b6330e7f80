package domain

import "context"

// ToolRecord is one catalog entry from the AI tools CSV.
// Name is always non-empty; rows without it are dropped during ingest.
type ToolRecord struct {
	Name         string
	Category     string
	PrimaryTask  string
	Description  string
	Keywords     string
	Technologies string
	Industry     string
	Pricing      string
	Country      string
	YearFounded  string
	Website      string
}

// Document is the indexed form of a ToolRecord: the canonical text that gets
// embedded plus the metadata subset kept for display.
type Document struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// SearchResult is a retrieved document with its similarity score.
type SearchResult struct {
	Document Document
	Score    float64
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session holds the turn history for one user's conversation.
// It lives in memory only and must not be shared across sessions.
type Session struct {
	Messages []Message
}

// Append adds a turn to the session.
func (s *Session) Append(role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

// Answer is the orchestrator output: the generated text plus the documents
// that were used as retrieval context.
type Answer struct {
	Text    string
	Sources []Document
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	ModelID() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ChatModel generates a completion for a sequence of chat messages.
type ChatModel interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	ModelName() string
}

// Advisor answers a question grounded on retrieved catalog entries and
// records the exchange in the session.
type Advisor interface {
	Ask(ctx context.Context, session *Session, question, pricingFilter string) (Answer, error)
}
