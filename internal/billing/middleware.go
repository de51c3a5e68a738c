package billing

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/excing/credits-starter-kit/internal/ledger"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// debitTimeout bounds the detached postpayment database work.
const debitTimeout = 10 * time.Second

// Orchestrator runs the precheck / postpayment protocol around billed routes.
type Orchestrator struct {
	registry  *Registry
	ledger    *ledger.Ledger
	usageWait time.Duration // Bounded wait for handler usage reports.
}

// NewOrchestrator wires the orchestrator with its registry and ledger.
func NewOrchestrator(registry *Registry, l *ledger.Ledger, usageWait time.Duration) *Orchestrator {
	if usageWait <= 0 {
		usageWait = 30 * time.Second
	}
	return &Orchestrator{registry: registry, ledger: l, usageWait: usageWait}
}

// Middleware gates billed routes: precheck before the handler, postpayment
// after (or detached on stream completion for streaming routes).
func (o *Orchestrator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := o.registry.Lookup(c.Request.URL.Path, c.Request.Method)
		if route == nil {
			c.Next()
			return
		}

		// Unauthenticated callers pass through; the handler owns its own
		// authorization failure.
		userID := userIDFromGin(c)
		if userID == 0 {
			c.Next()
			return
		}

		estimate := route.Strategy.EstimateCost(c.Request)

		balance, errBalance := o.ledger.Balance(c.Request.Context(), userID)
		if errBalance != nil && !errors.Is(errBalance, ledger.ErrAccountNotFound) {
			log.WithError(errBalance).Error("billing: precheck balance read failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "billing unavailable"})
			return
		}

		if balance < estimate.EstimatedCost {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error":       "insufficient credit balance",
				"required":    estimate.EstimatedCost,
				"current":     balance,
				"description": estimate.Description,
			})
			return
		}

		bc := newContext(userID, route, estimate, balance)
		attach(c, bc)

		var sw *streamWriter
		if route.Shape == ResponseShapeStreaming {
			sw = newStreamWriter(c.Writer)
			c.Writer = sw
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest || len(c.Errors) > 0 {
			// Failed handler: the operation did not complete, nothing to
			// bill. Handlers flag mid-stream upstream failures via c.Error
			// since the status line is already on the wire by then.
			return
		}

		if route.Shape == ResponseShapeStreaming {
			if sw.Failed() {
				// Client disconnected before clean end-of-stream; deliberate
				// no-charge-on-cancel policy.
				log.WithFields(log.Fields{
					"user_id": bc.UserID,
					"route":   route.PathPattern,
				}).Info("billing: stream aborted before completion, skipping charge")
				return
			}
			req := c.Request
			go o.postPayment(bc, req)
			return
		}

		// Standard response: fixed-cost handlers never report usage, so the
		// signal resolves here before the synchronous charge.
		bc.Resolve()
		o.postPayment(bc, c.Request)
	}
}

// postPayment waits for usage data, computes the actual cost and applies the
// debit. Failures here are logged for reconciliation and never alter the
// already-sent response.
func (o *Orchestrator) postPayment(bc *Context, req *http.Request) {
	if !bc.awaitUsage(o.usageWait) {
		log.WithFields(log.Fields{
			"user_id": bc.UserID,
			"route":   bc.Route.PathPattern,
		}).Warn("billing: usage report timed out, charging with default usage")
	}

	actual := bc.Route.Strategy.CalculateActualCost(req, bc.Usage())
	if actual.Amount <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), debitTimeout)
	defer cancel()

	result, errDebit := o.ledger.Debit(ctx, ledger.DebitInput{
		UserID:      bc.UserID,
		Amount:      actual.Amount,
		Description: actual.Description,
		Metadata:    actual.Metadata,
		Endpoint:    bc.Route.PathPattern,
	})
	if errDebit != nil {
		log.WithError(errDebit).WithFields(log.Fields{
			"user_id": bc.UserID,
			"route":   bc.Route.PathPattern,
			"amount":  actual.Amount,
		}).Error("billing: postpayment debit failed")
		return
	}

	log.WithFields(log.Fields{
		"user_id":        bc.UserID,
		"route":          bc.Route.PathPattern,
		"amount":         actual.Amount,
		"new_balance":    result.NewBalance,
		"transaction_id": result.TransactionID,
	}).Debug("billing: charge applied")
}

// userIDFromGin extracts the authenticated user ID from gin context.
func userIDFromGin(c *gin.Context) uint64 {
	val, exists := c.Get("userID")
	if !exists {
		return 0
	}
	id, ok := val.(uint64)
	if !ok {
		return 0
	}
	return id
}
