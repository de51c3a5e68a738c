package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/excing/credits-starter-kit/internal/ledger"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RefundHandler reverses redemption transactions.
type RefundHandler struct {
	ledger *ledger.Ledger
}

// NewRefundHandler constructs a RefundHandler.
func NewRefundHandler(l *ledger.Ledger) *RefundHandler {
	return &RefundHandler{ledger: l}
}

// Refund reverses one redemption transaction.
func (h *RefundHandler) Refund(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}

	result, errRefund := h.ledger.Refund(c.Request.Context(), id)
	if errRefund != nil {
		status, message := refundErrorResponse(errRefund)
		c.JSON(status, gin.H{"error": message})
		return
	}

	log.WithFields(log.Fields{
		"transaction_id": id,
		"user_id":        result.UserID,
		"deducted":       result.CreditsDeducted,
		"admin":          c.GetString("userEmail"),
	}).Info("admin: redemption refunded")

	c.JSON(http.StatusOK, gin.H{
		"transaction_id":   result.TransactionID,
		"user_id":          result.UserID,
		"credits_deducted": result.CreditsDeducted,
		"new_balance":      result.NewBalance,
	})
}

// refundErrorResponse maps refund failures to HTTP responses.
func refundErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrTransactionNotFound):
		return http.StatusNotFound, "transaction not found"
	case errors.Is(err, ledger.ErrNotARedemption):
		return http.StatusBadRequest, "only redemption transactions can be refunded"
	case errors.Is(err, ledger.ErrAccountGone):
		return http.StatusConflict, "redeeming account no longer exists"
	case errors.Is(err, ledger.ErrAlreadyRefunded):
		return http.StatusConflict, "transaction already refunded"
	default:
		return http.StatusInternalServerError, "refund failed"
	}
}
