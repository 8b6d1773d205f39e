package keys

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/tally/pkg/tally/database"
	"github.com/mikepea/tally/pkg/tally/logs"
)

// Handler handles API key requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new keys handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateKeyRequest represents a request to create an API key
type CreateKeyRequest struct {
	Email string `json:"email"`
}

// CreateKeyResponse includes the full key (only shown once)
type CreateKeyResponse struct {
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

// Create issues a new API key for the requested email
func (h *Handler) Create(c *gin.Context) {
	var req CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	key, err := database.Atomic(h.db, func(tx *gorm.DB) (string, error) {
		return Issue(tx, req.Email)
	})
	if errors.Is(err, ErrDuplicateEmail) {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already has an API key"})
		return
	}
	if err != nil {
		logs.Logger.WithError(err).Error("API key issuance failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Return the full key - this is the only time it's visible
	c.JSON(http.StatusCreated, CreateKeyResponse{
		Key:       key,
		CreatedAt: time.Now().UTC(),
	})
}

// BearerToken extracts the bearer credential from the Authorization header.
// The boolean is false when the header is missing or not in bearer form.
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	// Expect "Bearer <key>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// RegisterRoutes registers API key routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/keys", h.Create)
}
