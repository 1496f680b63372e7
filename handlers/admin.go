package handlers

import (
	"net/http"

	"food-order-bot/models"

	"github.com/gin-gonic/gin"
)

// AdminGetOrder returns any order with its status history (staff only)
func (h *Handler) AdminGetOrder(c *gin.Context) {
	o, err := h.engine.Order(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required,oneof=completed cancelled"`
	Note   string             `json:"note"`
}

// AdminUpdateOrderStatus completes or cancels a confirmed order (staff only)
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	o, err := h.engine.ChangeOrderStatus(c.Request.Context(), c.Param("id"), req.Status, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated to " + string(o.Status),
		"order":   o,
	})
}
