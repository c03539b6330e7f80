package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/amalsp220/ai-tools-chatbot/internal/domain"
	"github.com/amalsp220/ai-tools-chatbot/internal/index"
)

// advisorTemplate is the fixed instruction template for answer generation.
// The formatting guidance is a prompt-level contract; the model's output is
// not validated against it.
const advisorTemplate = `You are an expert AI tools advisor with deep knowledge of 16,000+ AI tools.
Use the following context to answer questions about AI tools.

Context:
%s

Instructions:
1. Recommend 3-7 relevant AI tools based on the user's needs
2. For each tool, provide:
   - Name
   - Brief description (1-2 sentences)
   - Primary use case
   - Pricing model (Free/Freemium/Paid)
   - Key features or technologies
3. Be conversational and helpful
4. If unsure, admit it and suggest alternatives
5. Format your response in a clear, readable way`

// AdvisorServiceImpl wires the embedder, the loaded index and the chat model
// into the question-answering flow.
type AdvisorServiceImpl struct {
	embedder   domain.Embedder
	index      *index.Index
	model      domain.ChatModel
	topK       int
	maxSources int
}

// NewAdvisorService creates the advisor over an already loaded index. The
// index may be nil when no snapshot is available; Ask then reports
// ErrIndexUnavailable without attempting a query.
func NewAdvisorService(embedder domain.Embedder, ix *index.Index, model domain.ChatModel, topK, maxSources int) *AdvisorServiceImpl {
	if topK <= 0 {
		topK = 10
	}
	if maxSources <= 0 {
		maxSources = 5
	}
	return &AdvisorServiceImpl{embedder: embedder, index: ix, model: model, topK: topK, maxSources: maxSources}
}

// Ask answers one question grounded on retrieved catalog entries and records
// the (user, assistant) turns in the session. On a provider failure the
// error is surfaced and recorded as the assistant turn, so the session stays
// consistent and the conversation can continue.
func (s *AdvisorServiceImpl) Ask(ctx context.Context, session *domain.Session, question, pricingFilter string) (domain.Answer, error) {
	if s.index.Len() == 0 {
		return domain.Answer{}, index.ErrIndexUnavailable
	}

	// The pricing filter is applied structurally at retrieval and repeated
	// as a text hint so the model respects it when phrasing the answer.
	query := question
	if pricingFilter != "" {
		query += fmt.Sprintf(" Only show tools with pricing: %s.", pricingFilter)
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return s.failTurn(session, question, fmt.Errorf("embed query: %w", err))
	}
	results, err := s.index.Search(vec, s.topK, index.SearchOptions{Pricing: pricingFilter})
	if err != nil {
		return s.failTurn(session, question, fmt.Errorf("similarity search: %w", err))
	}

	messages := s.buildMessages(session, query, results)
	answer, err := s.model.Chat(ctx, messages)
	if err != nil {
		return s.failTurn(session, question, fmt.Errorf("generate answer: %w", err))
	}

	session.Append(domain.RoleUser, question)
	session.Append(domain.RoleAssistant, answer)

	n := s.maxSources
	if n > len(results) {
		n = len(results)
	}
	sources := make([]domain.Document, n)
	for i := 0; i < n; i++ {
		sources[i] = results[i].Document
	}
	return domain.Answer{Text: answer, Sources: sources}, nil
}

// buildMessages assembles the system instruction with retrieved context,
// the prior conversation history and the current question.
func (s *AdvisorServiceImpl) buildMessages(session *domain.Session, query string, results []domain.SearchResult) []domain.Message {
	var ctxText strings.Builder
	for i, r := range results {
		if i > 0 {
			ctxText.WriteString("\n\n---\n\n")
		}
		ctxText.WriteString(r.Document.Text)
	}
	messages := make([]domain.Message, 0, len(session.Messages)+2)
	messages = append(messages, domain.Message{
		Role:    domain.RoleSystem,
		Content: fmt.Sprintf(advisorTemplate, ctxText.String()),
	})
	messages = append(messages, session.Messages...)
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: query})
	return messages
}

// failTurn records a failed exchange without corrupting prior history.
func (s *AdvisorServiceImpl) failTurn(session *domain.Session, question string, err error) (domain.Answer, error) {
	msg := "Error: " + err.Error()
	session.Append(domain.RoleUser, question)
	session.Append(domain.RoleAssistant, msg)
	return domain.Answer{Text: msg}, err
}
