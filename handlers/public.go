package handlers

import (
	"net/http"
	"strings"

	"food-order-bot/models"
	"food-order-bot/statemachine"

	"github.com/gin-gonic/gin"
)

// GetMenu returns the categories and available items (public)
func (h *Handler) GetMenu(c *gin.Context) {
	cat := h.engine.Catalog()

	var items []models.MenuItem
	switch {
	case c.Query("category") != "":
		items = cat.ItemsInCategory(c.Query("category"))
	case c.Query("tag") != "":
		items = cat.ItemsByTag(strings.ToLower(c.Query("tag")))
	default:
		for _, category := range cat.Categories() {
			items = append(items, cat.ItemsInCategory(category.ID)...)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": cat.Categories(),
		"count":      len(items),
		"menu":       items,
	})
}

// GetStateMachineInfo returns both transition tables for informational purposes
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"conversation": gin.H{
			"states":      models.AllStates,
			"transitions": statemachine.ConversationTransitions(),
			"wildcard":    statemachine.AnyEvent,
		},
		"order": gin.H{
			"transitions":     statemachine.GetAllTransitions(),
			"terminal_states": []models.OrderStatus{models.StatusCompleted, models.StatusCancelled},
		},
		"description": "Conversation flow and order lifecycle state machines",
	})
}
