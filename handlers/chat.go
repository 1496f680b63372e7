package handlers

import (
	"net/http"

	"food-order-bot/bot"
	"food-order-bot/middleware"

	"github.com/gin-gonic/gin"
)

type ChatRequest struct {
	MessageID string            `json:"message_id" binding:"omitempty,max=128"`
	Text      string            `json:"text" binding:"required_without=ActionID,max=1000"`
	ActionID  string            `json:"action_id" binding:"required_without=Text"`
	Params    map[string]string `json:"params"`
}

// Chat runs one conversation turn for the caller and returns the bot's reply
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.engine.Handle(c.Request.Context(), bot.Message{
		ID:       req.MessageID,
		UserID:   middleware.GetUserID(c),
		Text:     req.Text,
		ActionID: req.ActionID,
		Params:   req.Params,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"directive": d})
}

// GetConversation returns the caller's current conversation state
func (h *Handler) GetConversation(c *gin.Context) {
	conv, err := h.engine.Conversation(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv})
}

// GetMyOrders lists every order of the caller
func (h *Handler) GetMyOrders(c *gin.Context) {
	orders, err := h.engine.Orders(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// GetOrderDetail returns one of the caller's orders
func (h *Handler) GetOrderDetail(c *gin.Context) {
	o, err := h.engine.Order(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if o.UserID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "This order does not belong to you"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}
