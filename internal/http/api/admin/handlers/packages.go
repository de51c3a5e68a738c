package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/excing/credits-starter-kit/internal/ledger"
	"github.com/gin-gonic/gin"
)

// PackagesHandler manages credit packages.
type PackagesHandler struct {
	ledger *ledger.Ledger
}

// NewPackagesHandler constructs a PackagesHandler.
func NewPackagesHandler(l *ledger.Ledger) *PackagesHandler {
	return &PackagesHandler{ledger: l}
}

// createPackageRequest defines the package creation payload.
type createPackageRequest struct {
	Name        string `json:"name"`
	Credits     int64  `json:"credits"`
	Description string `json:"description"`
}

// Create adds a new credit package.
func (h *PackagesHandler) Create(c *gin.Context) {
	var body createPackageRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if body.Credits <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "credits must be positive"})
		return
	}

	pkg, errCreate := h.ledger.CreatePackage(c.Request.Context(), ledger.CreatePackageInput{
		Name:        strings.TrimSpace(body.Name),
		Credits:     body.Credits,
		Description: body.Description,
	})
	if errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create package"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"package": pkg})
}

// List returns all packages, inactive ones included.
func (h *PackagesHandler) List(c *gin.Context) {
	packages, errList := h.ledger.ListPackages(c.Request.Context(), true)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list packages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": packages})
}

// updatePackageRequest defines the partial update payload.
type updatePackageRequest struct {
	Name        *string `json:"name"`
	Credits     *int64  `json:"credits"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// Update applies a partial update to a package.
func (h *PackagesHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid package id"})
		return
	}

	var body updatePackageRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Credits != nil && *body.Credits <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "credits must be positive"})
		return
	}

	pkg, errUpdate := h.ledger.UpdatePackage(c.Request.Context(), id, ledger.UpdatePackageInput{
		Name:        body.Name,
		Credits:     body.Credits,
		Description: body.Description,
		IsActive:    body.IsActive,
	})
	if errUpdate != nil {
		if errors.Is(errUpdate, ledger.ErrPackageUnavailable) {
			c.JSON(http.StatusNotFound, gin.H{"error": "package not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update package"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"package": pkg})
}
