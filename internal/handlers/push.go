package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"teamchat-service/internal/repositories"
)

// PushHandler manages device push subscriptions.
type PushHandler struct {
	subscriptionRepo repositories.PushSubscriptionRepository
}

// NewPushHandler builds a PushHandler.
func NewPushHandler(subscriptionRepo repositories.PushSubscriptionRepository) *PushHandler {
	return &PushHandler{subscriptionRepo: subscriptionRepo}
}

// Register stores an active push subscription for the caller's device.
func (h *PushHandler) Register(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
		DeviceID string `json:"device_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.subscriptionRepo.Register(c.Request.Context(), userID, req.Endpoint, req.DeviceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register subscription"})
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// Deactivate disables one of the caller's push subscriptions.
func (h *PushHandler) Deactivate(c *gin.Context) {
	userID := c.GetInt("userID")
	subscriptionID, err := strconv.Atoi(c.Param("subscription_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription id"})
		return
	}

	if err := h.subscriptionRepo.Deactivate(c.Request.Context(), subscriptionID, userID); err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not deactivate subscription"})
		return
	}
	c.Status(http.StatusNoContent)
}
