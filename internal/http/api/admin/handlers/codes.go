package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/excing/credits-starter-kit/internal/ledger"
	"github.com/gin-gonic/gin"
)

// CodesHandler manages redemption codes.
type CodesHandler struct {
	ledger *ledger.Ledger
}

// NewCodesHandler constructs a CodesHandler.
func NewCodesHandler(l *ledger.Ledger) *CodesHandler {
	return &CodesHandler{ledger: l}
}

// createCodesRequest defines the batch generation payload.
type createCodesRequest struct {
	PackageID      uint64     `json:"package_id"`
	Count          int        `json:"count"`
	ExpiresAt      *time.Time `json:"expires_at"`
	MaxRedemptions *int       `json:"max_redemptions"`
}

// Create generates a batch of redemption codes for a package.
func (h *CodesHandler) Create(c *gin.Context) {
	var body createCodesRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.PackageID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "package_id is required"})
		return
	}
	if body.MaxRedemptions != nil && *body.MaxRedemptions < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_redemptions must be at least 1"})
		return
	}

	createdBy := c.GetUint64("userID")

	codes, errCreate := h.ledger.CreateCodes(c.Request.Context(), ledger.CreateCodesInput{
		PackageID:      body.PackageID,
		Count:          body.Count,
		ExpiresAt:      body.ExpiresAt,
		MaxRedemptions: body.MaxRedemptions,
	}, createdBy)
	if errCreate != nil {
		if errors.Is(errCreate, ledger.ErrPackageUnavailable) {
			c.JSON(http.StatusNotFound, gin.H{"error": "package not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create codes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"codes": codes, "count": len(codes)})
}

// List returns codes, optionally filtered by package and active flag.
func (h *CodesHandler) List(c *gin.Context) {
	var filters ledger.CodeFilters
	if raw := c.Query("package_id"); raw != "" {
		id, errParse := strconv.ParseUint(raw, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid package_id"})
			return
		}
		filters.PackageID = &id
	}
	if raw := c.Query("is_active"); raw != "" {
		active, errParse := strconv.ParseBool(raw)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid is_active"})
			return
		}
		filters.IsActive = &active
	}

	codes, errList := h.ledger.ListCodes(c.Request.Context(), filters)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list codes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"codes": codes})
}

// Redemptions lists the redemptions of one code with refund status.
func (h *CodesHandler) Redemptions(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code id"})
		return
	}

	redemptions, errList := h.ledger.RedemptionsByCode(c.Request.Context(), id)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list redemptions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"redemptions": redemptions})
}

// Deactivate disables a code.
func (h *CodesHandler) Deactivate(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code id"})
		return
	}

	if errDeactivate := h.ledger.DeactivateCode(c.Request.Context(), id); errDeactivate != nil {
		if errors.Is(errDeactivate, ledger.ErrCodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "code not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}
