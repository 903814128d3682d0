package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/internal/service"
	"github.com/weiawesome/wes-io-chat/pkg/log"
	"github.com/weiawesome/wes-io-chat/pkg/middleware"
	"github.com/weiawesome/wes-io-chat/pkg/response"
)

type CreateChatRequest struct {
	ParticipantIDs []string `json:"participantIds"`
}

type SendMessageRequest struct {
	Receiver  string   `json:"receiver"`
	Text      string   `json:"text"`
	MediaURLs []string `json:"mediaUrls"`
}

// Handler serves the chat REST API.
type Handler struct {
	chatService    service.ChatService
	authMiddleware *middleware.AuthMiddleware
}

func NewHandler(chatService service.ChatService, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{
		chatService:    chatService,
		authMiddleware: authMiddleware,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.authMiddleware.RequireAuth())
	{
		chats := api.Group("/chats")
		{
			chats.POST("", h.CreateChat)
			chats.GET("", h.GetMyChats)
			chats.GET("/all", h.GetAllChats)
			chats.DELETE("/:chatId", h.DeleteChat)
			chats.GET("/:chatId/messages", h.GetMessages)
			chats.POST("/:chatId/messages", h.SendMessage)
			chats.DELETE("/:chatId/messages/:messageId", h.DeleteMessage)
		}

		messages := api.Group("/messages")
		{
			messages.PATCH("/:messageId/read", h.MarkMessageAsRead)
			messages.PUT("/:messageId/read", h.MarkMessageAsRead)
		}
	}
}

func (h *Handler) CreateChat(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to bind create chat request")
		response.BadRequest(c, err.Error())
		return
	}

	chat, err := h.chatService.CreateChat(ctx, middleware.GetUserID(c), req.ParticipantIDs)
	if err != nil {
		writeError(c, err, "failed to create chat")
		return
	}

	response.Created(c, chat)
}

func (h *Handler) GetMyChats(c *gin.Context) {
	chats, err := h.chatService.GetUserChats(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err, "failed to get chats")
		return
	}
	response.OK(c, chats)
}

func (h *Handler) GetAllChats(c *gin.Context) {
	chats, err := h.chatService.GetAllChats(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to get chats")
		return
	}
	response.OK(c, chats)
}

func (h *Handler) GetMessages(c *gin.Context) {
	msgs, err := h.chatService.GetMessages(c.Request.Context(), c.Param("chatId"))
	if err != nil {
		writeError(c, err, "failed to get messages")
		return
	}
	response.OK(c, msgs)
}

func (h *Handler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to bind send message request")
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.chatService.SendMessage(ctx, service.SendMessageInput{
		ChatID:    c.Param("chatId"),
		Sender:    middleware.GetUserID(c),
		Receiver:  req.Receiver,
		Text:      req.Text,
		MediaURLs: req.MediaURLs,
	})
	if err != nil {
		writeError(c, err, "failed to send message")
		return
	}

	response.Created(c, msg)
}

func (h *Handler) MarkMessageAsRead(c *gin.Context) {
	msg, err := h.chatService.MarkMessageAsRead(c.Request.Context(), middleware.GetUserID(c), c.Param("messageId"))
	if err != nil {
		writeError(c, err, "failed to mark message as read")
		return
	}
	response.OK(c, msg)
}

func (h *Handler) DeleteChat(c *gin.Context) {
	chatID := c.Param("chatId")

	if err := h.chatService.DeleteChat(c.Request.Context(), middleware.GetUserID(c), chatID); err != nil {
		writeError(c, err, "failed to delete chat")
		return
	}
	response.OK(c, domain.ChatDeletePayload{ChatID: chatID})
}

func (h *Handler) DeleteMessage(c *gin.Context) {
	chatID, messageID := c.Param("chatId"), c.Param("messageId")

	if err := h.chatService.DeleteMessage(c.Request.Context(), middleware.GetUserID(c), chatID, messageID); err != nil {
		writeError(c, err, "failed to delete message")
		return
	}
	response.OK(c, domain.MessageDeletePayload{MessageID: messageID})
}

// writeError maps service errors to the response envelope.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrChatNotFound):
		response.NotFound(c, "chat not found")
	case errors.Is(err, domain.ErrMessageNotFound):
		response.NotFound(c, "message not found")
	case errors.Is(err, domain.ErrNotParticipant):
		response.Forbidden(c, err.Error())
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg(fallback)
		c.Error(err)
		response.InternalError(c, fallback)
	}
}
