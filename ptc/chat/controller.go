package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"

	ports "github.com/asterozoa/phi-terminal-chat/ptc/chat/ports"
)

// Params are the sampling constants for one generation, tuned for Phi-2 on
// constrained hardware: bounded output, low temperature, nucleus and top-k
// filtering, repetition penalty.
type Params struct {
	MaxTokens         int
	Temperature       float32
	TopP              float32
	TopK              int
	RepetitionPenalty float32
	Stop              []string
}

// DefaultParams returns the fixed Phi-2 sampling parameters. The stop
// sequences are the human-turn label, a section marker, a double newline,
// and the end-of-text marker.
func DefaultParams() Params {
	return Params{
		MaxTokens:         100,
		Temperature:       0.2,
		TopP:              0.8,
		TopK:              30,
		RepetitionPenalty: 1.2,
		Stop:              []string{"Human:", "###", "\n\n", "<|endoftext|>"},
	}
}

// DefaultHistoryWindow is the number of prior turns included in a prompt.
const DefaultHistoryWindow = 3

const (
	noResponsePlaceholder = "[No response generated]"
	errorReplyPrefix      = "[Model error]: "
	oomNeedle             = "out of memory"
	oomHint               = "\nHint: Try reducing MAX_TOKENS or HISTORY_LENGTH"
)

var (
	// ErrEmptyMessage rejects a submission that is blank after trimming.
	ErrEmptyMessage = errors.New("empty message")
	// ErrBusy rejects a submission while a generation is already in flight.
	ErrBusy = errors.New("generation already in flight")
)

// Notifier is the UI collaborator. Notify renders one chat line and
// NotifyReset clears the visible transcript. Both are only ever invoked from
// the interactive context.
type Notifier interface {
	Notify(role Role, text string, at time.Time)
	NotifyReset()
}

// nopNotifier backs a nil notifier.
type nopNotifier struct{}

func (nopNotifier) Notify(Role, string, time.Time) {}
func (nopNotifier) NotifyReset()                   {}

// Controller orchestrates conversational turns against the inference engine.
// It is a two-state machine, Idle or Generating, with at most one generation
// in flight; concurrent submissions are rejected, not queued.
//
// Access discipline: Submit, Resolve, and Clear run on the interactive
// context and are the only mutators of the history and the generating flag.
// The worker context runs PendingTurn.Run, which computes the reply text and
// touches no shared state.
type Controller struct {
	engine    ports.Engine
	builder   *PromptBuilder
	sanitizer *Sanitizer
	history   *History
	notifier  Notifier
	tracer    ports.Tracer

	params Params
	window int

	conversationID string
	generating     bool
}

// NewController wires the turn pipeline. A zero-valued params falls back to
// DefaultParams, window to DefaultHistoryWindow, and nil notifier/tracer to
// no-op implementations.
func NewController(
	engine ports.Engine,
	builder *PromptBuilder,
	sanitizer *Sanitizer,
	history *History,
	notifier Notifier,
	tracer ports.Tracer,
	params Params,
	window int,
) *Controller {
	if params.MaxTokens <= 0 {
		params = DefaultParams()
	}
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if tracer == nil {
		tracer = ports.NopTracer{}
	}
	return &Controller{
		engine:         engine,
		builder:        builder,
		sanitizer:      sanitizer,
		history:        history,
		notifier:       notifier,
		tracer:         tracer,
		params:         params,
		window:         window,
		conversationID: uuid.New().String(),
	}
}

// Generating reports whether a turn is in flight.
func (c *Controller) Generating() bool {
	return c.generating
}

// Submit accepts a user message and returns the work item for the worker
// context. Blank input yields ErrEmptyMessage and an in-flight generation
// yields ErrBusy; both leave all state untouched. On accept the user line is
// published synchronously, the history window is snapshotted into the
// prompt, and the controller transitions to Generating.
func (c *Controller) Submit(text string) (*PendingTurn, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}
	if c.generating {
		return nil, ErrBusy
	}

	c.generating = true
	c.notifier.Notify(RoleUser, trimmed, time.Now())

	prompt := c.builder.Build(c.history.Recent(c.window), trimmed)
	pending := &PendingTurn{
		id:        uuid.New().String(),
		user:      trimmed,
		request:   c.buildRequest(prompt),
		engine:    c.engine,
		sanitizer: c.sanitizer,
		tracer:    c.tracer,
	}

	c.tracer.Event(context.Background(), "turn_accepted", map[string]any{
		"conversation_id": c.conversationID,
		"turn_id":         pending.id,
		"history_turns":   c.history.Len(),
		"prompt_chars":    len(prompt),
	})
	return pending, nil
}

// Resolve completes the turn on the interactive context: the finished Turn
// is appended to history (error placeholders included, keeping the
// conversation log contiguous), the controller returns to Idle, and the
// assistant line is published.
func (c *Controller) Resolve(res TurnResult) Turn {
	turn := Turn{
		ID:        res.TurnID,
		User:      res.User,
		Assistant: res.Assistant,
		CreatedAt: time.Now(),
	}
	c.history.Append(turn)
	c.generating = false
	c.notifier.Notify(RoleAssistant, res.Assistant, turn.CreatedAt)
	return turn
}

// Clear empties the history and publishes a reset. Ignored (returns false)
// while a generation is in flight so it cannot corrupt the pending turn.
func (c *Controller) Clear() bool {
	if c.generating {
		return false
	}
	c.history.Clear()
	c.notifier.NotifyReset()
	c.tracer.Event(context.Background(), "history_cleared", map[string]any{
		"conversation_id": c.conversationID,
	})
	return true
}

// buildRequest pairs the prompt with the fixed sampling parameters.
func (c *Controller) buildRequest(prompt string) ports.GenerationRequest {
	return ports.GenerationRequest{
		Prompt:            prompt,
		MaxTokens:         c.params.MaxTokens,
		Temperature:       c.params.Temperature,
		TopP:              c.params.TopP,
		TopK:              c.params.TopK,
		RepetitionPenalty: c.params.RepetitionPenalty,
		Stop:              append([]string(nil), c.params.Stop...),
	}
}

// PendingTurn is one accepted submission, ready to run on the worker
// context. It carries everything the worker needs so Run never reads
// controller state.
type PendingTurn struct {
	id        string
	user      string
	request   ports.GenerationRequest
	engine    ports.Engine
	sanitizer *Sanitizer
	tracer    ports.Tracer
}

// ID returns the turn identifier used for result correlation.
func (p *PendingTurn) ID() string { return p.id }

// User returns the trimmed user message.
func (p *PendingTurn) User() string { return p.user }

// TurnResult is the fully computed outcome handed back to the interactive
// context. Assistant always holds display-ready text; Err is kept for
// logging only.
type TurnResult struct {
	TurnID    string
	User      string
	Assistant string
	Err       error
	Elapsed   time.Duration
}

// Run invokes the engine and computes the final reply text. An engine error
// (or a panic escaping the cgo boundary) becomes a descriptive placeholder,
// with a remediation hint appended for memory exhaustion; an empty sanitized
// reply becomes the fixed no-response placeholder. Run never fails the
// process and runs to completion once the engine is dialed; a context
// cancelled beforehand skips the call.
func (p *PendingTurn) Run(ctx context.Context) TurnResult {
	ctx, finish := p.tracer.StartSpan(ctx, "turn_generate", map[string]any{
		"turn_id":      p.id,
		"prompt_chars": len(p.request.Prompt),
	})

	start := time.Now()
	var completion ports.Completion
	err := ctx.Err()
	if err == nil {
		var catcher panics.Catcher
		catcher.Try(func() {
			completion, err = p.engine.Complete(ctx, p.request)
		})
		if recovered := catcher.Recovered(); recovered != nil {
			err = recovered.AsError()
		}
	}
	elapsed := time.Since(start)
	finish(err)

	res := TurnResult{TurnID: p.id, User: p.user, Err: err, Elapsed: elapsed}
	if err != nil {
		res.Assistant = errorReply(err)
		return res
	}

	reply := p.sanitizer.Sanitize(completion.Text)
	if reply == "" {
		reply = noResponsePlaceholder
	}
	res.Assistant = reply
	return res
}

// errorReply renders an engine failure as a user-visible placeholder,
// embedding the failure detail. Memory exhaustion, detected by substring,
// gets a remediation hint.
func errorReply(err error) string {
	reply := errorReplyPrefix + err.Error()
	if strings.Contains(strings.ToLower(err.Error()), oomNeedle) {
		reply += oomHint
	}
	return reply
}
