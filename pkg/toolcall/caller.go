package toolcall

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"

	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/channel"
)

const (
	// DefaultTimeout bounds how long Dispatch waits for a paired response.
	DefaultTimeout = 60 * time.Second

	// sweep cadence and the age at which an orphaned request is
	// force-cancelled. Orphans accumulate when a client disconnects or
	// crashes without ever answering.
	defaultSweepInterval = 60 * time.Second
	defaultMaxPendingAge = 300 * time.Second
)

// Sender pushes a JSON message to the remote client application.
type Sender interface {
	Send(v interface{}) error
}

type pendingRequest struct {
	requestID string
	createdAt time.Time
	result    chan channel.ToolResult
}

// Caller is the request/response correlation primitive behind every
// client-side tool. Dispatch publishes a structured tool_request and blocks
// until a tool_result with the same request_id is resolved, the deadline
// passes, or the request is swept.
type Caller struct {
	owner   string
	methods map[string]bool
	sender  Sender
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*pendingRequest

	sweepInterval time.Duration
	maxPendingAge time.Duration
	sweepCancel   context.CancelFunc
	sweepWG       sync.WaitGroup
}

// NewCaller creates a correlation caller for one tool owner. methods lists
// the tool method names this owner services; they are used for legacy
// routing of responses that don't carry the owner's request-id prefix.
// The background sweep starts immediately; call Close on session teardown.
func NewCaller(owner string, sender Sender, methods ...string) *Caller {
	methodSet := make(map[string]bool, len(methods))
	for _, m := range methods {
		methodSet[m] = true
	}

	c := &Caller{
		owner:         owner,
		methods:       methodSet,
		sender:        sender,
		timeout:       DefaultTimeout,
		pending:       make(map[string]*pendingRequest),
		sweepInterval: defaultSweepInterval,
		maxPendingAge: defaultMaxPendingAge,
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.sweepCancel = cancel
	c.sweepWG.Add(1)
	go c.sweepLoop(ctx)

	return c
}

// Name returns the tool owner name used as the request-id prefix.
func (c *Caller) Name() string {
	return c.owner
}

// Methods returns the tool method names this caller services.
func (c *Caller) Methods() []string {
	out := make([]string, 0, len(c.methods))
	for m := range c.methods {
		out = append(out, m)
	}
	return out
}

// Close stops the background sweep and force-cancels anything still pending.
func (c *Caller) Close() {
	c.sweepCancel()
	c.sweepWG.Wait()

	c.mu.Lock()
	remaining := make([]*pendingRequest, 0, len(c.pending))
	for _, pr := range c.pending {
		remaining = append(remaining, pr)
	}
	c.pending = make(map[string]*pendingRequest)
	c.mu.Unlock()

	for _, pr := range remaining {
		close(pr.result)
	}
}

// newRequestID builds "<owner>_<unixNano>_<random>_<suffix>". The owner
// prefix gives coarse-grained response routing; the nanosecond stamp plus
// random component makes uniqueness an invariant rather than a probability.
func (c *Caller) newRequestID(method, disambiguator string) string {
	suffix := disambiguator
	if suffix == "" {
		suffix = method
	}
	random, _ := gonanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", 8)
	return fmt.Sprintf("%s_%d_%s_%s", c.owner, time.Now().UnixNano(), random, suffix)
}

// Dispatch sends a tool request to the client and waits for the paired
// response. The disambiguator, when non-empty, replaces the method name in
// the request-id suffix so concurrent calls to the same method stay
// tellable apart in logs.
//
// The pending entry is removed on every exit path: response, timeout,
// context cancellation, or sweep.
func (c *Caller) Dispatch(ctx context.Context, method string, params map[string]interface{}, disambiguator string) (map[string]interface{}, error) {
	requestID := c.newRequestID(method, disambiguator)

	pr := &pendingRequest{
		requestID: requestID,
		createdAt: time.Now(),
		result:    make(chan channel.ToolResult, 1),
	}

	c.mu.Lock()
	c.pending[requestID] = pr
	c.mu.Unlock()

	req := channel.NewToolRequest(method, requestID, params)

	log.Debug().
		Str("owner", c.owner).
		Str("method", method).
		Str("requestId", requestID).
		Msg("Dispatching tool request")

	if err := c.sender.Send(req); err != nil {
		c.take(requestID)
		return nil, fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case res, ok := <-pr.result:
		if !ok {
			// Force-cancelled by the sweep.
			return nil, fmt.Errorf("%w: request %s swept", ErrTimeout, requestID)
		}
		return c.unwrap(method, res)

	case <-timer.C:
		if _, taken := c.take(requestID); taken {
			log.Error().
				Str("owner", c.owner).
				Str("requestId", requestID).
				Msg("Timeout waiting for client response")
			return nil, fmt.Errorf("%w: no response for %s", ErrTimeout, method)
		}
		// The response won the race against the timer.
		select {
		case res, ok := <-pr.result:
			if ok {
				return c.unwrap(method, res)
			}
		default:
		}
		return nil, fmt.Errorf("%w: no response for %s", ErrTimeout, method)

	case <-ctx.Done():
		c.take(requestID)
		return nil, ctx.Err()
	}
}

func (c *Caller) unwrap(method string, res channel.ToolResult) (map[string]interface{}, error) {
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, &RemoteError{Tool: method, Message: msg}
	}
	if res.Result == nil {
		return map[string]interface{}{}, nil
	}
	return res.Result, nil
}

// take removes and returns the pending entry, if any. Every removal path
// funnels through here so an entry leaves the map exactly once.
func (c *Caller) take(requestID string) (*pendingRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pr, ok := c.pending[requestID]
	if ok {
		delete(c.pending, requestID)
	}
	return pr, ok
}

// Resolve delivers an inbound tool_result to its waiting dispatch. An
// unmatched request_id is logged and dropped: the request may have already
// timed out, or the response belongs to a different owner.
func (c *Caller) Resolve(res channel.ToolResult) bool {
	pr, ok := c.take(res.RequestID)
	if !ok {
		log.Warn().
			Str("owner", c.owner).
			Str("requestId", res.RequestID).
			Msg("No pending request for response, dropping")
		return false
	}

	pr.result <- res
	log.Debug().
		Str("owner", c.owner).
		Str("requestId", res.RequestID).
		Msg("Response delivered")
	return true
}

// CanHandle reports whether a response belongs to this caller: either the
// request id carries this owner's prefix, or (for legacy clients that echo
// only the method name) the tool method is one this owner services.
func (c *Caller) CanHandle(requestID, tool string) bool {
	if strings.HasPrefix(requestID, c.owner+"_") {
		return true
	}
	return c.methods[tool]
}

// PendingCount reports outstanding requests; used by tests and diagnostics.
func (c *Caller) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// sweepLoop force-cancels requests whose responses never arrived. This
// bounds pending-map growth across client disconnects and crashes.
func (c *Caller) sweepLoop(ctx context.Context) {
	defer c.sweepWG.Done()

	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweepOnce(time.Now())
		}
	}
}

func (c *Caller) sweepOnce(now time.Time) {
	c.mu.Lock()
	var stale []*pendingRequest
	for id, pr := range c.pending {
		if now.Sub(pr.createdAt) > c.maxPendingAge {
			delete(c.pending, id)
			stale = append(stale, pr)
		}
	}
	c.mu.Unlock()

	for _, pr := range stale {
		close(pr.result)
		log.Info().
			Str("owner", c.owner).
			Str("requestId", pr.requestID).
			Msg("Swept stale pending request")
	}
}
