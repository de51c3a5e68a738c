package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/excing/credits-starter-kit/internal/ledger"
	"github.com/gin-gonic/gin"
)

// CreditsHandler exposes the account's credit surface.
type CreditsHandler struct {
	ledger *ledger.Ledger
}

// NewCreditsHandler constructs a CreditsHandler.
func NewCreditsHandler(l *ledger.Ledger) *CreditsHandler {
	return &CreditsHandler{ledger: l}
}

// Balance returns the caller's credit balance.
func (h *CreditsHandler) Balance(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	balance, errBalance := h.ledger.DisplayBalance(c.Request.Context(), userID)
	if errBalance != nil {
		if errors.Is(errBalance, ledger.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// Transactions returns the caller's recent ledger entries.
func (h *CreditsHandler) Transactions(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	rows, errFind := h.ledger.Transactions(c.Request.Context(), userID, limit)
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": rows})
}

// redeemRequest defines the redemption payload.
type redeemRequest struct {
	Code string `json:"code"`
}

// Redeem converts a redemption code into credits for the caller.
func (h *CreditsHandler) Redeem(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body redeemRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	result, errRedeem := h.ledger.Redeem(c.Request.Context(), userID, body.Code)
	if errRedeem != nil {
		status, message := redeemErrorResponse(errRedeem)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"credits_added": result.CreditsAdded,
		"new_balance":   result.NewBalance,
	})
}

// redeemErrorResponse maps redemption failures to HTTP responses.
func redeemErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrCodeNotFound):
		return http.StatusNotFound, "code not found"
	case errors.Is(err, ledger.ErrCodeInactive):
		return http.StatusBadRequest, "code is no longer active"
	case errors.Is(err, ledger.ErrCodeExpired):
		return http.StatusBadRequest, "code has expired"
	case errors.Is(err, ledger.ErrCodeExhausted):
		return http.StatusConflict, "code has reached its redemption limit"
	case errors.Is(err, ledger.ErrAlreadyRedeemed):
		return http.StatusConflict, "code already redeemed by this account"
	case errors.Is(err, ledger.ErrPackageUnavailable):
		return http.StatusBadRequest, "credit package is unavailable"
	case errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound, "account not found"
	default:
		return http.StatusInternalServerError, "redemption failed"
	}
}
