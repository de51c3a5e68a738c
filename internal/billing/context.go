package billing

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// contextKey is the gin context key carrying the billing context.
const contextKey = "billingContext"

// Context is the ephemeral per-request state bridging precheck, the handler
// and postpayment. It is created at precheck, read once at postpayment and
// never persisted.
type Context struct {
	UserID            uint64
	Route             *Route
	Estimate          CostEstimate
	BalanceAtPrecheck int64

	mu    sync.Mutex
	usage any

	done     chan struct{}
	doneOnce sync.Once
}

// newContext builds a billing context with an unresolved completion signal.
func newContext(userID uint64, route *Route, estimate CostEstimate, balance int64) *Context {
	return &Context{
		UserID:            userID,
		Route:             route,
		Estimate:          estimate,
		BalanceAtPrecheck: balance,
		done:              make(chan struct{}),
	}
}

// ReportUsage stores the handler's usage payload and resolves the completion
// signal. Handlers with fixed costs never call this; the orchestrator
// resolves on their behalf.
func (bc *Context) ReportUsage(usage any) {
	bc.mu.Lock()
	bc.usage = usage
	bc.mu.Unlock()
	bc.Resolve()
}

// Resolve marks usage reporting as complete. Safe to call more than once.
func (bc *Context) Resolve() {
	bc.doneOnce.Do(func() { close(bc.done) })
}

// Usage returns the reported usage payload, or nil.
func (bc *Context) Usage() any {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.usage
}

// awaitUsage blocks until the completion signal resolves or the timeout
// elapses. It reports whether the signal resolved in time.
func (bc *Context) awaitUsage(timeout time.Duration) bool {
	select {
	case <-bc.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// FromGin returns the billing context attached to a request, or nil for
// unbilled requests.
func FromGin(c *gin.Context) *Context {
	val, exists := c.Get(contextKey)
	if !exists {
		return nil
	}
	bc, ok := val.(*Context)
	if !ok {
		return nil
	}
	return bc
}

// attach stores the billing context on the gin request.
func attach(c *gin.Context, bc *Context) {
	c.Set(contextKey, bc)
}
