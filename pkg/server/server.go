package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ilikeorangutans/holly/pkg/holly"
	"github.com/ilikeorangutans/holly/pkg/observability"
)

type CommandRequest struct {
	Command string `json:"command"`
}

// NewRouter builds the gin engine: CORS for the frontend, the command
// endpoint, and the observability routes. An empty origin list allows all
// origins.
func NewRouter(assistant *holly.Assistant, allowedOrigins []string, startTime time.Time) *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		log.Error().Interface("error", err).Msg("panic while handling request")
		c.AbortWithStatusJSON(http.StatusInternalServerError, holly.Response{
			Text: fmt.Sprintf("An error occurred: %v", err),
			Type: "error",
		})
	}))

	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}
	if len(allowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	r.Use(cors.New(corsConfig))

	h := NewCommandHandler(assistant)
	r.POST("/process_command", h.ProcessCommand)

	observability.MakeObservable(r, startTime)

	return r
}

func NewCommandHandler(assistant *holly.Assistant) *CommandHandler {
	return &CommandHandler{assistant: assistant}
}

type CommandHandler struct {
	assistant *holly.Assistant
}

// ProcessCommand answers a single command. Every failure mode still answers
// with the {text, type} shape so the client always has something to speak.
func (h *CommandHandler) ProcessCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusInternalServerError, holly.Response{
			Text: fmt.Sprintf("An error occurred: %s", err),
			Type: "error",
		})
		return
	}

	payload, err := h.assistant.Handle(c.Request.Context(), req.Command)
	if err != nil {
		log.Error().Err(err).Msg("handling command failed")
		c.JSON(http.StatusInternalServerError, holly.Response{
			Text: fmt.Sprintf("An error occurred: %s", err),
			Type: "error",
		})
		return
	}

	observability.CommandsTotal.WithLabelValues(payload.Kind()).Inc()
	c.JSON(http.StatusOK, payload)
}
