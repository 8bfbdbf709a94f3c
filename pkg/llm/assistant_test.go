package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	reply string
	err   error
	got   Request
}

func (f *fakeGenerator) Generate(_ context.Context, req Request) (string, error) {
	f.got = req
	return f.reply, f.err
}

const validSchema = `{
	"title": "Doubler",
	"description": "Doubles a number",
	"components": [{"type": "number", "id": "a", "label": "A", "required": true}],
	"calculations": [{"type": "formula", "expression": "a * 2", "outputs": ["double"]}]
}`

func newAssistant(t *testing.T, gen Generator) *Assistant {
	t.Helper()
	a, err := NewAssistant(gen)
	require.NoError(t, err)
	return a
}

func TestProcessCreateApp(t *testing.T) {
	gen := &fakeGenerator{reply: fmt.Sprintf(`{"action":"create_app","appSchema":%s,"message":"Done","thinking":["one"]}`, validSchema)}
	a := newAssistant(t, gen)

	reply, err := a.Process(context.Background(), "make a doubler", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionCreateApp, reply.Action)
	assert.Equal(t, "Done", reply.Message)
	require.NotNil(t, reply.Schema)
	assert.Equal(t, "Doubler", reply.Schema.Title)
	assert.Equal(t, SystemPrompt, gen.got.System)
	assert.InDelta(t, 0.7, gen.got.Temperature, 1e-6)
}

func TestProcessInvalidSchemaRegenerates(t *testing.T) {
	gen := &fakeGenerator{reply: `{"action":"create_app","appSchema":{"title":"x"},"message":"Done"}`}
	a := newAssistant(t, gen)

	reply, err := a.Process(context.Background(), "make something", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionChat, reply.Action)
	assert.Equal(t, RegenerateMessage, reply.Message)
	assert.Nil(t, reply.Schema)
}

func TestProcessCreateAppWithoutSchema(t *testing.T) {
	a := newAssistant(t, &fakeGenerator{reply: `{"action":"create_app","message":"hmm"}`})
	reply, err := a.Process(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionChat, reply.Action)
	assert.Equal(t, "hmm", reply.Message)
}

func TestProcessShowTemplates(t *testing.T) {
	a := newAssistant(t, &fakeGenerator{reply: `{"action":"show_templates","message":"whatever"}`})
	reply, err := a.Process(context.Background(), "what can you do?", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionShowTemplates, reply.Action)
	assert.Equal(t, TemplatesMessage, reply.Message)
}

func TestProcessOpenApp(t *testing.T) {
	a := newAssistant(t, &fakeGenerator{reply: `{"action":"open_app","appType":"calculator","message":"Opening"}`})
	reply, err := a.Process(context.Background(), "open the calculator", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionOpenApp, reply.Action)
	assert.Equal(t, "calculator", reply.AppType)
}

func TestProcessPlainText(t *testing.T) {
	a := newAssistant(t, &fakeGenerator{reply: "Hello there!"})
	reply, err := a.Process(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionChat, reply.Action)
	assert.Equal(t, "Hello there!", reply.Message)
}

func TestProcessFencedJSON(t *testing.T) {
	a := newAssistant(t, &fakeGenerator{reply: "```json\n{\"action\":\"chat\",\"message\":\"fenced\"}\n```"})
	reply, err := a.Process(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "fenced", reply.Message)
}

func TestProcessMissingMessageUsesRaw(t *testing.T) {
	raw := `{"action":"chat"}`
	a := newAssistant(t, &fakeGenerator{reply: raw})
	reply, err := a.Process(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, raw, reply.Message)
}

func TestProcessGeneratorError(t *testing.T) {
	a := newAssistant(t, &fakeGenerator{err: errors.New("boom")})
	reply, err := a.Process(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionChat, reply.Action)
	assert.Equal(t, ApologyMessage, reply.Message)
}

func TestProcessEmptyMessage(t *testing.T) {
	a := newAssistant(t, &fakeGenerator{})
	_, err := a.Process(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestProcessKeepsRecentHistory(t *testing.T) {
	gen := &fakeGenerator{reply: `{"action":"chat","message":"ok"}`}
	a := newAssistant(t, gen)

	var history []Turn
	for i := range 8 {
		history = append(history, Turn{Role: "user", Content: fmt.Sprint(i)})
	}
	_, err := a.Process(context.Background(), "latest", history)
	require.NoError(t, err)
	require.Len(t, gen.got.History, DefaultHistoryTurns)
	assert.Equal(t, "3", gen.got.History[0].Content)
	assert.Equal(t, "7", gen.got.History[4].Content)
	assert.Equal(t, "latest", gen.got.Message)
}

func TestContents(t *testing.T) {
	contents := Contents([]Turn{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}, "make an app")
	require.Len(t, contents, 3)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	assert.Equal(t, "make an app", contents[2].Parts[0].Text)
}

func TestNewGeminiGeneratorRequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
