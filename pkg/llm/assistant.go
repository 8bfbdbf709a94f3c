// Package llm adapts a language model into the desktop assistant that
// generates application schemas from natural-language requests.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"webos/pkg/appschema"
)

// Action is what the assistant asks the desktop to do with a reply.
type Action string

// Reply actions.
const (
	ActionCreateApp     Action = "create_app"
	ActionOpenApp       Action = "open_app"
	ActionChat          Action = "chat"
	ActionShowTemplates Action = "show_templates"
)

// Fixed assistant messages.
const (
	RegenerateMessage = "Sorry, I ran into a problem generating the app configuration. Please try describing the app you need in more detail."
	ApologyMessage    = "Sorry, I am having some technical trouble right now. Please try again later, or I can open one of the existing applications for you."
	TemplatesMessage  = `I can build all kinds of calculators and tools for you. Describe what you need and I will generate the app on the fly.

For example:
• BMI calculator, mortgage calculator, investment return calculator
• Currency converter, temperature converter, unit converter
• Age calculator, countdown timer, percentage calculator
• Tax calculator, tip calculator, discount calculator
• Or any other calculation tool you need

I will design the input fields, the calculation logic and the result display for you.`
)

// DefaultHistoryTurns is how many previous turns are sent with a message.
const DefaultHistoryTurns = 5

// ErrEmptyMessage is returned when the user message is blank.
var ErrEmptyMessage = errors.New("empty message")

// Turn is one entry of the conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reply is the assistant's answer. Schema is set only for create_app
// replies whose schema passed validation.
type Reply struct {
	Action    Action               `json:"action"`
	AppName   string               `json:"appName,omitempty"`
	AppType   string               `json:"appType,omitempty"`
	AppSchema json.RawMessage      `json:"appSchema,omitempty"`
	Message   string               `json:"message"`
	Thinking  []string             `json:"thinking,omitempty"`
	Schema    *appschema.AppSchema `json:"-"`
}

// Generator sends a prompt to a language model and returns its raw text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is a single generation call.
type Request struct {
	System      string
	History     []Turn
	Message     string
	Temperature float32
}

// Assistant turns user messages into replies.
type Assistant struct {
	gen          Generator
	validator    *appschema.Validator
	log          *zap.Logger
	historyTurns int
	temperature  float32
	timeout      time.Duration
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *Assistant) {
		if log != nil {
			a.log = log
		}
	}
}

// WithHistoryTurns sets how many history turns are kept.
func WithHistoryTurns(n int) Option {
	return func(a *Assistant) {
		if n >= 0 {
			a.historyTurns = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(a *Assistant) { a.temperature = t }
}

// WithTimeout bounds each generation call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(a *Assistant) { a.timeout = d }
}

// WithValidator sets the schema gate.
func WithValidator(v *appschema.Validator) Option {
	return func(a *Assistant) { a.validator = v }
}

// NewAssistant creates an assistant backed by gen.
func NewAssistant(gen Generator, opts ...Option) (*Assistant, error) {
	a := &Assistant{
		gen:          gen,
		log:          zap.NewNop(),
		historyTurns: DefaultHistoryTurns,
		temperature:  0.7,
		timeout:      30 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.validator == nil {
		v, err := appschema.Default()
		if err != nil {
			return nil, err
		}
		a.validator = v
	}
	return a, nil
}

// Process sends message with the most recent history turns and interprets
// the model's answer. Model failures never surface as errors: they become
// an apology chat reply. The only error is an empty message.
func (a *Assistant) Process(ctx context.Context, message string, history []Turn) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}
	if len(history) > a.historyTurns {
		history = history[len(history)-a.historyTurns:]
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.gen.Generate(ctx, Request{
		System:      SystemPrompt,
		History:     history,
		Message:     message,
		Temperature: a.temperature,
	})
	if err != nil {
		a.log.Warn("generation failed", zap.Error(err))
		return Reply{Action: ActionChat, Message: ApologyMessage}, nil
	}
	return a.Interpret(raw), nil
}

// Interpret converts raw model output into a reply. Text that is not a
// JSON object becomes a chat reply carrying the text itself.
func (a *Assistant) Interpret(raw string) Reply {
	var reply Reply
	if err := json.Unmarshal([]byte(stripFence(raw)), &reply); err != nil {
		a.log.Debug("model reply is not JSON", zap.Error(err))
		return Reply{Action: ActionChat, Message: raw}
	}
	if reply.Message == "" {
		reply.Message = raw
	}
	if reply.Action == "" {
		reply.Action = ActionChat
	}
	for i, step := range reply.Thinking {
		a.log.Debug("assistant thinking", zap.Int("step", i+1), zap.String("text", step))
	}

	switch reply.Action {
	case ActionCreateApp:
		if len(reply.AppSchema) == 0 {
			reply.Action = ActionChat
			break
		}
		schema, err := a.validator.Parse(reply.AppSchema)
		if err != nil {
			a.log.Info("generated schema rejected", zap.Error(err))
			reply.Action = ActionChat
			reply.Message = RegenerateMessage
			reply.AppSchema = nil
			break
		}
		a.log.Info("generated schema accepted", zap.String("title", schema.Title))
		reply.Schema = schema
	case ActionShowTemplates:
		reply.Message = TemplatesMessage
	}
	return reply
}

// stripFence removes a surrounding markdown code fence.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
