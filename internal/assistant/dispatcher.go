package assistant

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/teemow/voicecal/internal/calendar"
	"github.com/teemow/voicecal/internal/instrumentation"
	"github.com/teemow/voicecal/internal/logging"
	"github.com/teemow/voicecal/internal/resilience"
	"github.com/teemow/voicecal/internal/speech"
)

// AnonymousUser is reported when a request carries no user id.
const AnonymousUser = "anonymous"

// currentTimeLayout is ISO 8601 in UTC with milliseconds.
const currentTimeLayout = "2006-01-02T15:04:05.000Z"

// maxLoggedText caps utterances and replies in debug logs.
const maxLoggedText = 120

// State is a dispatcher state.
type State string

const (
	StateReceived           State = "RECEIVED"
	StateIntentRequested    State = "INTENT_REQUESTED"
	StateDirectReply        State = "DIRECT_REPLY"
	StateFunctionDispatched State = "FUNCTION_DISPATCHED"
	StateFinalRequested     State = "FINAL_REQUESTED"
	StateSynthesis          State = "SYNTHESIS"
	StateResponded          State = "RESPONDED"
	StateFailed             State = "FAILED"
)

// Completer issues one chat completion. *llm.Client implements it.
type Completer interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error)
}

// CalendarGateway is implemented by *calendar.Client.
type CalendarGateway interface {
	ListEvents(ctx context.Context, timeMin, timeMax time.Time, query string) ([]calendar.Event, error)
	CreateEvent(ctx context.Context, input calendar.EventInput) (*calendar.Event, error)
}

// SpeechGateway is implemented by *speech.Client.
type SpeechGateway interface {
	Synthesize(ctx context.Context, text, voiceID string, settings *speech.VoiceSettings) ([]byte, error)
	DefaultVoice() string
}

// Deps are the collaborators of a Dispatcher. Calendar and Speech may be nil
// when the corresponding provider is not configured.
type Deps struct {
	LLM      Completer
	Calendar CalendarGateway
	Speech   SpeechGateway

	// Now defaults to time.Now.
	Now func() time.Time
	// Location anchors relative dates. Defaults to time.Local.
	Location *time.Location

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Request is one inbound command.
type Request struct {
	Message      string
	UserID       string
	VoiceID      string
	UseSynthesis bool
	RequestID    string
}

// SpeechState is the outcome of the optional synthesis step.
type SpeechState int

const (
	// SpeechSkipped means synthesis was not requested or not configured.
	SpeechSkipped SpeechState = iota
	// SpeechSynthesized means audio is attached.
	SpeechSynthesized
	// SpeechDegraded means synthesis failed and the response is text only.
	SpeechDegraded
)

func (s SpeechState) String() string {
	switch s {
	case SpeechSynthesized:
		return "synthesized"
	case SpeechDegraded:
		return "degraded"
	default:
		return "skipped"
	}
}

// SpeechResult is the explicit synthesis outcome.
type SpeechResult struct {
	State SpeechState
	Audio []byte
	// Err is the swallowed synthesis error when State is SpeechDegraded.
	Err error
}

// AudioBase64 returns the encoded audio, or nil when none was produced.
func (r SpeechResult) AudioBase64() *string {
	if r.State != SpeechSynthesized {
		return nil
	}
	encoded := base64.StdEncoding.EncodeToString(r.Audio)
	return &encoded
}

// Response is the result of one command.
type Response struct {
	Text   string
	UserID string
	// Voice is the voice used for synthesis, empty when none was attempted.
	Voice  string
	Speech SpeechResult
	// Intent is the dispatched function name, or direct_reply.
	Intent string
}

// CurrentTime is the getCurrentTime result.
type CurrentTime struct {
	CurrentTime string `json:"currentTime"`
	Timezone    string `json:"timezone"`
}

// Dispatcher turns utterances into replies.
type Dispatcher struct {
	llm      Completer
	calendar CalendarGateway
	speech   SpeechGateway
	now      func() time.Time
	loc      *time.Location
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
}

// New creates a Dispatcher. A model client is required.
func New(deps Deps) (*Dispatcher, error) {
	if deps.LLM == nil {
		return nil, fmt.Errorf("a language model client is required")
	}

	d := &Dispatcher{
		llm:      deps.LLM,
		calendar: deps.Calendar,
		speech:   deps.Speech,
		now:      deps.Now,
		loc:      deps.Location,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.loc == nil {
		d.loc = time.Local
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d, nil
}

// CalendarEnabled reports whether a calendar gateway is configured.
func (d *Dispatcher) CalendarEnabled() bool {
	return d.calendar != nil
}

// SpeechEnabled reports whether a speech gateway is configured.
func (d *Dispatcher) SpeechEnabled() bool {
	return d.speech != nil
}

// Location returns the location relative dates are anchored to.
func (d *Dispatcher) Location() *time.Location {
	return d.loc
}

// Now returns the dispatcher clock in its location.
func (d *Dispatcher) Now() time.Time {
	return d.now().In(d.loc)
}

// Handle runs one command to completion.
func (d *Dispatcher) Handle(ctx context.Context, req Request) (resp *Response, err error) {
	start := time.Now()
	intent := instrumentation.IntentDirectReply

	logger := logging.WithRequestID(d.logger.With(logging.UserHash(req.UserID)), req.RequestID)
	d.transition(logger, StateReceived, slog.String("message", logging.Truncate(req.Message, maxLoggedText)))

	if strings.TrimSpace(req.Message) == "" {
		d.metrics.RecordDispatch(ctx, "", instrumentation.OutcomeInvalidRequest, time.Since(start))
		return nil, fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}

	ctx, span := instrumentation.StartDispatchSpan(ctx, instrumentation.NewSpanAttributeBuilder().
		WithUserHash(logging.AnonymizeUser(req.UserID)).
		WithRequestID(req.RequestID).
		Build()...)
	defer func() {
		outcome := instrumentation.OutcomeError
		if err == nil {
			outcome = outcomeFor(resp.Speech.State)
		} else {
			d.transition(logger, StateFailed, logging.Err(err))
		}
		d.metrics.RecordDispatch(ctx, intent, outcome, time.Since(start))
		span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithIntent(intent).Build()...)
		instrumentation.EndSpan(span, err)
	}()

	now := d.Now()
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(now)},
		{Role: openai.ChatMessageRoleUser, Content: req.Message},
	}

	d.transition(logger, StateIntentRequested)
	reply, err := d.llm.Complete(ctx, messages, Tools())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamModel, err)
	}

	text := reply.Content
	if len(reply.ToolCalls) == 0 {
		d.transition(logger, StateDirectReply)
	} else {
		call := reply.ToolCalls[0]
		intent = call.Function.Name
		d.transition(logger, StateFunctionDispatched, logging.Function(call.Function.Name))

		if text, err = d.dispatch(ctx, logger, req.Message, reply, call, now); err != nil {
			return nil, err
		}
	}

	resp = &Response{
		Text:   text,
		UserID: req.UserID,
		Intent: intent,
	}
	if resp.UserID == "" {
		resp.UserID = AnonymousUser
	}

	if req.UseSynthesis && d.speech != nil {
		d.transition(logger, StateSynthesis)
		resp.Voice, resp.Speech = d.synthesize(ctx, logger, text, req.VoiceID)
	}

	d.transition(logger, StateResponded,
		slog.String("speech", resp.Speech.State.String()),
		slog.String("reply", logging.Truncate(text, maxLoggedText)))
	return resp, nil
}

// dispatch executes the chosen function and asks the model for the final reply.
func (d *Dispatcher) dispatch(ctx context.Context, logger *slog.Logger, message string, reply openai.ChatCompletionMessage, call openai.ToolCall, now time.Time) (string, error) {
	intent, err := ParseIntent(call.Function, message, now)
	if err != nil {
		return "", err
	}

	result, err := d.execute(ctx, intent, now)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s result: %w", call.Function.Name, err)
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: finalPrompt},
		{Role: openai.ChatMessageRoleUser, Content: message},
		{Role: openai.ChatMessageRoleAssistant, Content: reply.Content, ToolCalls: []openai.ToolCall{call}},
		{Role: openai.ChatMessageRoleTool, Content: string(payload), Name: call.Function.Name, ToolCallID: call.ID},
	}

	d.transition(logger, StateFinalRequested, logging.Function(call.Function.Name))
	final, err := d.llm.Complete(ctx, messages, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstreamModel, err)
	}
	return final.Content, nil
}

// execute runs one intent and returns its JSON-serializable result.
func (d *Dispatcher) execute(ctx context.Context, intent Intent, now time.Time) (any, error) {
	switch in := intent.(type) {
	case ListEventsIntent:
		if d.calendar == nil {
			return nil, fmt.Errorf("%w: calendar is not configured", calendar.ErrUnavailable)
		}
		return d.calendar.ListEvents(ctx, in.TimeMin, in.TimeMax, in.Query)

	case CreateEventIntent:
		if d.calendar == nil {
			return nil, fmt.Errorf("%w: calendar is not configured", calendar.ErrUnavailable)
		}
		return d.calendar.CreateEvent(ctx, calendar.EventInput{
			Summary:     in.Summary,
			Description: in.Description,
			Start:       in.Start,
			End:         in.End,
			Attendees:   in.Attendees,
		})

	case CurrentTimeIntent:
		return CurrentTimeAt(now), nil

	case UnsupportedIntent:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, in.Name)

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownFunction, intent)
	}
}

// CurrentTimeAt formats now as the getCurrentTime result.
func CurrentTimeAt(now time.Time) CurrentTime {
	return CurrentTime{
		CurrentTime: now.UTC().Format(currentTimeLayout),
		Timezone:    now.Location().String(),
	}
}

// synthesize never fails the command. Errors downgrade to SpeechDegraded.
func (d *Dispatcher) synthesize(ctx context.Context, logger *slog.Logger, text, voiceID string) (string, SpeechResult) {
	voice := strings.TrimSpace(voiceID)
	if voice == "" {
		voice = d.speech.DefaultVoice()
	}

	audio, err := d.speech.Synthesize(ctx, text, voice, nil)
	if err != nil {
		reason := degradeReason(err)
		logger.Warn("speech synthesis failed, responding with text only",
			logging.Voice(voice), slog.String("reason", reason), logging.Err(err))
		d.metrics.RecordSynthesisDegraded(ctx, reason)
		instrumentation.AddSpanEvent(ctx, "synthesis_degraded",
			instrumentation.NewSpanAttributeBuilder().WithVoice(voice).WithReason(reason).Build()...)
		return voice, SpeechResult{State: SpeechDegraded, Err: err}
	}
	return voice, SpeechResult{State: SpeechSynthesized, Audio: audio}
}

func degradeReason(err error) string {
	switch {
	case resilience.IsOpen(err):
		return "breaker_open"
	case errors.Is(err, speech.ErrInvalidInput):
		return "invalid_input"
	case resilience.IsCallerError(err):
		return "rejected"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "provider_error"
	}
}

func outcomeFor(s SpeechState) string {
	switch s {
	case SpeechSynthesized:
		return instrumentation.OutcomeSpeech
	case SpeechDegraded:
		return instrumentation.OutcomeDegraded
	default:
		return instrumentation.OutcomeText
	}
}

func (d *Dispatcher) transition(logger *slog.Logger, state State, attrs ...any) {
	logger.Debug("command state", append([]any{logging.State(string(state))}, attrs...)...)
}
