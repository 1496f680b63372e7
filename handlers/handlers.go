package handlers

import (
	"errors"
	"net/http"

	"food-order-bot/apperr"
	"food-order-bot/bot"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	engine *bot.Engine
}

func New(engine *bot.Engine) *Handler {
	return &Handler{engine: engine}
}

// respondError maps core errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, bot.ErrDuplicate):
		status = http.StatusConflict
	case apperr.IsNotFound(err):
		status = http.StatusNotFound
	case apperr.IsValidation(err):
		status = http.StatusBadRequest
	case apperr.IsConflict(err):
		status = http.StatusConflict
	case apperr.IsExternal(err):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
