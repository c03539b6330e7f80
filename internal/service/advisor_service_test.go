package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amalsp220/ai-tools-chatbot/internal/domain"
	"github.com/amalsp220/ai-tools-chatbot/internal/index"
)

type fakeEmbedder struct {
	dim    int
	err    error
	inputs []string
}

func (f *fakeEmbedder) ModelID() string { return "fake:test" }
func (f *fakeEmbedder) Dimension() int  { return f.dim }

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, text)
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()
	v := make([]float64, f.dim)
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float64(seed%1000)/1000.0 + 0.001
	}
	return v, nil
}

type fakeChatModel struct {
	reply    string
	err      error
	received [][]domain.Message
}

func (f *fakeChatModel) ModelName() string { return "fake-chat" }

func (f *fakeChatModel) Chat(_ context.Context, messages []domain.Message) (string, error) {
	f.received = append(f.received, messages)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func buildTestIndex(t *testing.T, emb domain.Embedder, n int) *index.Index {
	t.Helper()
	docs := make([]domain.Document, n)
	for i := range docs {
		pricing := "Free"
		if i%2 == 1 {
			pricing = "Paid"
		}
		docs[i] = domain.Document{
			ID:       fmt.Sprintf("tool-%d", i),
			Text:     fmt.Sprintf("Tool Name: Tool%d\n\nPricing: %s", i, pricing),
			Metadata: map[string]string{"name": fmt.Sprintf("Tool%d", i), "pricing": pricing},
		}
	}
	ix, err := index.Build(context.Background(), emb, docs, index.BuildOptions{})
	require.NoError(t, err)
	return ix
}

func TestAskAppendsTurnsAndReturnsSources(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	ix := buildTestIndex(t, emb, 12)
	chat := &fakeChatModel{reply: "Try Tool3 and Tool7."}
	svc := NewAdvisorService(emb, ix, chat, 10, 5)

	session := &domain.Session{}
	answer, err := svc.Ask(context.Background(), session, "best free tools?", "")
	require.NoError(t, err)
	assert.Equal(t, "Try Tool3 and Tool7.", answer.Text)
	assert.Len(t, answer.Sources, 5, "sources capped at max")

	require.Len(t, session.Messages, 2)
	assert.Equal(t, domain.RoleUser, session.Messages[0].Role)
	assert.Equal(t, "best free tools?", session.Messages[0].Content)
	assert.Equal(t, domain.RoleAssistant, session.Messages[1].Role)
	assert.Equal(t, "Try Tool3 and Tool7.", session.Messages[1].Content)
}

func TestAskBuildsPromptWithContextHistoryAndQuestion(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	ix := buildTestIndex(t, emb, 6)
	chat := &fakeChatModel{reply: "ok"}
	svc := NewAdvisorService(emb, ix, chat, 3, 5)

	session := &domain.Session{}
	session.Append(domain.RoleUser, "earlier question")
	session.Append(domain.RoleAssistant, "earlier answer")

	_, err := svc.Ask(context.Background(), session, "what about video tools?", "")
	require.NoError(t, err)

	require.Len(t, chat.received, 1)
	msgs := chat.received[0]
	require.Len(t, msgs, 4) // system + 2 history + question
	assert.Equal(t, domain.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "AI tools advisor")
	assert.Contains(t, msgs[0].Content, "Tool Name: Tool", "retrieved context included")
	assert.Equal(t, "earlier question", msgs[1].Content)
	assert.Equal(t, "earlier answer", msgs[2].Content)
	assert.Equal(t, "what about video tools?", msgs[3].Content)
}

func TestAskAppliesPricingFilter(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	ix := buildTestIndex(t, emb, 10)
	chat := &fakeChatModel{reply: "ok"}
	svc := NewAdvisorService(emb, ix, chat, 10, 5)

	session := &domain.Session{}
	answer, err := svc.Ask(context.Background(), session, "image tools?", "Paid")
	require.NoError(t, err)

	// The filter is appended as a text hint to the embedded query.
	require.NotEmpty(t, emb.inputs)
	assert.Contains(t, emb.inputs[len(emb.inputs)-1], "Only show tools with pricing: Paid.")

	// And enforced structurally on the retrieved sources.
	require.NotEmpty(t, answer.Sources)
	for _, doc := range answer.Sources {
		assert.Equal(t, "Paid", doc.Metadata["pricing"])
	}

	// The session records the raw question, not the hinted query.
	assert.Equal(t, "image tools?", session.Messages[0].Content)
}

func TestAskChatFailureRecordsErrorTurn(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	ix := buildTestIndex(t, emb, 6)
	chat := &fakeChatModel{err: errors.New("model overloaded")}
	svc := NewAdvisorService(emb, ix, chat, 10, 5)

	session := &domain.Session{}
	session.Append(domain.RoleUser, "first question")
	session.Append(domain.RoleAssistant, "first answer")

	answer, err := svc.Ask(context.Background(), session, "second question", "")
	require.Error(t, err)
	assert.Contains(t, answer.Text, "model overloaded")
	assert.Empty(t, answer.Sources)

	// Prior turns intact, failed turn recorded as an error message.
	require.Len(t, session.Messages, 4)
	assert.Equal(t, "first question", session.Messages[0].Content)
	assert.Equal(t, "first answer", session.Messages[1].Content)
	assert.Equal(t, "second question", session.Messages[2].Content)
	assert.Equal(t, domain.RoleAssistant, session.Messages[3].Role)
	assert.Contains(t, session.Messages[3].Content, "Error:")
}

func TestAskEmbedFailureRecordsErrorTurn(t *testing.T) {
	goodEmb := &fakeEmbedder{dim: 8}
	ix := buildTestIndex(t, goodEmb, 4)
	svc := NewAdvisorService(&fakeEmbedder{dim: 8, err: errors.New("quota exceeded")}, ix, &fakeChatModel{reply: "never"}, 10, 5)

	session := &domain.Session{}
	answer, err := svc.Ask(context.Background(), session, "anything", "")
	require.Error(t, err)
	assert.Contains(t, answer.Text, "quota exceeded")
	require.Len(t, session.Messages, 2)
	assert.Contains(t, session.Messages[1].Content, "Error:")
}

func TestAskWithoutIndex(t *testing.T) {
	svc := NewAdvisorService(&fakeEmbedder{dim: 8}, nil, &fakeChatModel{reply: "never"}, 10, 5)
	session := &domain.Session{}
	_, err := svc.Ask(context.Background(), session, "anything", "")
	assert.ErrorIs(t, err, index.ErrIndexUnavailable)
	assert.Empty(t, session.Messages, "no turn recorded when no query was attempted")
}
