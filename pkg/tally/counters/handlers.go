package counters

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/tally/pkg/tally/database"
	"github.com/mikepea/tally/pkg/tally/keys"
	"github.com/mikepea/tally/pkg/tally/logs"
)

// Handler handles counter requests for API key holders
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new counters handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CounterResponse represents a counter value in responses
type CounterResponse struct {
	Tag   string `json:"tag"`
	Value int64  `json:"value"`
}

// Get returns the current value of the caller's counter; 0 if it has never
// been incremented.
func (h *Handler) Get(c *gin.Context) {
	h.withCounter(c, Read, "counter read failed")
}

// Increment bumps the caller's counter and returns the new value.
func (h *Handler) Increment(c *gin.Context) {
	h.withCounter(c, Increment, "counter increment failed")
}

// withCounter verifies the presented key and runs op for the authenticated
// owner, all inside one transaction, so the key check and the counter
// mutation commit or roll back together.
func (h *Handler) withCounter(c *gin.Context, op func(tx *gorm.DB, ownerID, tag string) (int64, error), logMsg string) {
	key, ok := keys.BearerToken(c)
	if !ok {
		unauthorized(c)
		return
	}
	tag := c.Param("tag")

	value, err := database.Atomic(h.db, func(tx *gorm.DB) (int64, error) {
		ownerID, err := keys.Verify(tx, key)
		if err != nil {
			return 0, err
		}
		return op(tx, ownerID, tag)
	})
	if errors.Is(err, keys.ErrUnauthorized) {
		unauthorized(c)
		return
	}
	if err != nil {
		logs.Logger.WithError(err).Error(logMsg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, CounterResponse{Tag: tag, Value: value})
}

// unauthorized is the single response for missing, malformed and wrong keys.
func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
}

// RegisterRoutes registers counter routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/counters/:tag", h.Get)
	rg.POST("/counters/:tag/increment", h.Increment)
}
