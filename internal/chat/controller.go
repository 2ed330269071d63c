package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/svgpro/svgpro/internal/dispatch"
	"github.com/svgpro/svgpro/internal/event"
	"github.com/svgpro/svgpro/internal/logging"
	"github.com/svgpro/svgpro/internal/provider"
)

// State is the phase of a generation cycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
	StateValidating
	StateAccepted
	StateRetryPending
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateValidating:
		return "validating"
	case StateAccepted:
		return "accepted"
	case StateRetryPending:
		return "retry_pending"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// markupFence matches a fenced markup block tagged xml or svg. The first
// match wins; the fence must open at a line boundary after the tag.
var markupFence = regexp.MustCompile("```(xml|svg)\\s*\\n([\\s\\S]*?)\\n```")

// ExtractMarkup returns the contents of the first fenced xml/svg block in
// text, trimmed of surrounding whitespace. A block whose body trims to
// nothing does not count as markup.
func ExtractMarkup(text string) (string, bool) {
	m := markupFence.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	markup := strings.TrimSpace(m[2])
	if markup == "" {
		return "", false
	}
	return markup, true
}

// Dispatcher starts a completion call and yields its single result.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *provider.ChatRequest) <-chan dispatch.Result
}

var _ Dispatcher = (*dispatch.Dispatcher)(nil)

// MarkupSink receives the markup of each accepted response.
type MarkupSink interface {
	ApplyMarkup(markup string) error
}

// Outcome is the terminal result of one generation cycle.
type Outcome struct {
	State    State
	Response string
	Markup   string
	Err      error
}

// Controller validates completion responses and drives retries. One
// controller serves one session; at most one cycle is in flight at a time.
type Controller struct {
	agent      *Agent
	dispatcher Dispatcher
	sink       MarkupSink
	maxRetries int
	log        zerolog.Logger

	mu      sync.Mutex
	state   State
	attempt int
	busy    bool
}

// NewController wires an agent to a dispatcher. maxRetries is the number of
// retries after the initial attempt; negative means the default of 2. sink
// may be nil.
func NewController(agent *Agent, d Dispatcher, sink MarkupSink, maxRetries int) *Controller {
	if maxRetries < 0 {
		maxRetries = 2
	}
	return &Controller{
		agent:      agent,
		dispatcher: d,
		sink:       sink,
		maxRetries: maxRetries,
		log:        logging.Component("chat"),
	}
}

// State returns the current cycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempt returns the current retry attempt count, 0 outside a retry.
func (c *Controller) Attempt() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

// Busy reports whether a cycle is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Send appends content as a user message and starts a generation cycle.
// The returned channel yields exactly one Outcome and is then closed.
// Returns ErrBusy when a cycle is already in flight.
func (c *Controller) Send(ctx context.Context, content string) (<-chan Outcome, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.busy = true
	c.mu.Unlock()

	sess := c.agent.Session()
	msg := NewMessage(RoleUser, content)
	sess.Append(msg)
	event.Publish(event.Event{Type: event.MessageCreated, Data: event.MessageData{
		SessionID: sess.ID(),
		Role:      string(msg.Role),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}})

	out := make(chan Outcome, 1)
	go c.cycle(ctx, out)
	return out, nil
}

func (c *Controller) cycle(ctx context.Context, out chan<- Outcome) {
	defer close(out)

	sess := c.agent.Session()
	for {
		c.transition(StateAwaitingResponse, "")

		req := c.agent.BuildRequest()
		res, ok := c.await(ctx, c.dispatcher.Dispatch(ctx, req))
		if !ok {
			// Host going away mid-flight. Abandon the pending result and
			// leave the transcript as it stands.
			c.log.Warn().Str("session", sess.ID()).Msg("generation cycle abandoned")
			c.reset()
			out <- Outcome{State: StateIdle, Err: ctx.Err()}
			return
		}

		var cause error
		var reason string
		switch {
		case res.Err != nil:
			cause = &TransportError{Err: res.Err}
			reason = fmt.Sprintf("The AI request failed: %v.", res.Err)
		default:
			c.transition(StateValidating, "")
			if strings.TrimSpace(res.Text) == "" {
				cause = ErrEmptyResponse
				reason = "The AI returned an empty response."
			} else if markup, found := ExtractMarkup(res.Text); !found {
				cause = ErrMissingMarkupBlock
				reason = "AI response did not contain a valid SVG code block."
			} else {
				c.accept(res.Text, markup, out)
				return
			}
		}

		c.transition(StateRetryPending, reason)

		c.mu.Lock()
		exhausted := c.attempt >= c.maxRetries
		if !exhausted {
			c.attempt++
		}
		attempt := c.attempt
		c.mu.Unlock()

		if exhausted {
			c.fail(cause, reason, out)
			return
		}

		c.log.Info().
			Str("session", sess.ID()).
			Int("attempt", attempt).
			Int("maxRetries", c.maxRetries).
			Str("reason", reason).
			Msg("AI response failed, retrying")
		event.Publish(event.Event{Type: event.ChatRetry, Data: event.ChatRetryData{
			SessionID:   sess.ID(),
			Attempt:     attempt,
			MaxAttempts: c.maxRetries,
			Reason:      reason,
		}})

		// The steering message reaches the model on the next attempt but is
		// not announced as a visible message.
		sess.Append(NewMessage(RoleUser, steeringMessage(reason)))
	}
}

func (c *Controller) accept(response, markup string, out chan<- Outcome) {
	sess := c.agent.Session()

	msg := NewMessage(RoleAssistant, response)
	sess.Append(msg)
	event.Publish(event.Event{Type: event.MessageCreated, Data: event.MessageData{
		SessionID: sess.ID(),
		Role:      string(msg.Role),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}})

	if c.sink != nil {
		if err := c.sink.ApplyMarkup(markup); err != nil {
			c.log.Warn().Err(err).Str("session", sess.ID()).Msg("markup sink rejected accepted response")
		}
	}

	c.transition(StateAccepted, "")
	event.Publish(event.Event{Type: event.ChatAccepted, Data: event.ChatAcceptedData{
		SessionID: sess.ID(),
		Markup:    markup,
	}})

	c.reset()
	out <- Outcome{State: StateAccepted, Response: response, Markup: markup}
}

func (c *Controller) fail(cause error, reason string, out chan<- Outcome) {
	sess := c.agent.Session()

	exh := &ExhaustedRetriesError{
		Attempts:   c.maxRetries + 1,
		LastReason: cause.Error(),
	}

	c.log.Error().
		Str("session", sess.ID()).
		Str("reason", reason).
		Msg("AI failed to provide a valid response after all retries")

	c.transition(StateFailed, reason)
	event.Publish(event.Event{Type: event.ChatFailed, Data: event.ChatFailedData{
		SessionID: sess.ID(),
		Attempts:  exh.Attempts,
		Reason:    exh.Notice(),
	}})

	c.reset()
	out <- Outcome{State: StateFailed, Err: exh}
}

// transition is the single place state changes happen. Every change is
// logged and published.
func (c *Controller) transition(to State, reason string) {
	c.mu.Lock()
	from := c.state
	c.state = to
	attempt := c.attempt
	c.mu.Unlock()

	c.log.Debug().
		Str("session", c.agent.Session().ID()).
		Str("from", from.String()).
		Str("to", to.String()).
		Int("attempt", attempt).
		Str("reason", reason).
		Msg("state changed")
	event.Publish(event.Event{Type: event.ChatStateChanged, Data: event.ChatStateData{
		SessionID: c.agent.Session().ID(),
		From:      from.String(),
		To:        to.String(),
		Attempt:   attempt,
		Reason:    reason,
	}})
}

// reset returns the controller to Idle and re-opens Send.
func (c *Controller) reset() {
	c.mu.Lock()
	c.state = StateIdle
	c.attempt = 0
	c.busy = false
	c.mu.Unlock()
}

func (c *Controller) await(ctx context.Context, ch <-chan dispatch.Result) (dispatch.Result, bool) {
	select {
	case res := <-ch:
		return res, true
	case <-ctx.Done():
		return dispatch.Result{}, false
	}
}

func steeringMessage(reason string) string {
	return fmt.Sprintf("Your previous response was invalid. Reason: %s\n\n"+
		"You MUST follow the strict formatting rules. Your response MUST contain a valid SVG code block. "+
		"The code block must start with ```xml or ```svg. "+
		"There must be absolutely no text after the final ``` that closes the code block. "+
		"Please try again and provide a correctly formatted response for the last user request.", reason)
}
