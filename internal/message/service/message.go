package service

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safesocial/safesocial-backend/internal/auth/middleware"
	"github.com/safesocial/safesocial-backend/internal/message/biz"
	"github.com/safesocial/safesocial-backend/internal/pkg/logger"
	"github.com/safesocial/safesocial-backend/internal/pkg/response"
)

type MessageService struct {
	uc  *biz.MessageUseCase
	log *logger.Logger
}

func NewMessageService(uc *biz.MessageUseCase, log *logger.Logger) *MessageService {
	return &MessageService{uc: uc, log: log}
}

type SendMessageRequest struct {
	To   string `json:"to" binding:"required"`
	Body string `json:"body" binding:"required"`
}

type MessageResponse struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	Read      bool   `json:"read"`
}

func (s *MessageService) Send(c *gin.Context) {
	wallet, ok := middleware.GetWalletAddress(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := s.uc.Send(c.Request.Context(), wallet, req.To, req.Body)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Created(c, s.toResponse(msg))
}

func (s *MessageService) Conversation(c *gin.Context) {
	wallet, ok := middleware.GetWalletAddress(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	other := c.Param("wallet")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	msgs, err := s.uc.Conversation(c.Request.Context(), wallet, other, page, pageSize)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"messages": s.toResponses(msgs)})
}

func (s *MessageService) Inbox(c *gin.Context) {
	wallet, ok := middleware.GetWalletAddress(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	msgs, err := s.uc.Inbox(c.Request.Context(), wallet, page, pageSize)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"messages": s.toResponses(msgs)})
}

func (s *MessageService) MarkRead(c *gin.Context) {
	wallet, ok := middleware.GetWalletAddress(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, "invalid message id")
		return
	}

	if err := s.uc.MarkRead(c.Request.Context(), wallet, id); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "marked read"})
}

func (s *MessageService) toResponse(msg *biz.Message) *MessageResponse {
	return &MessageResponse{
		ID:        msg.ID,
		From:      msg.FromWallet,
		To:        msg.ToWallet,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt.Format("2006-01-02 15:04:05"),
		Read:      msg.ReadAt != nil,
	}
}

func (s *MessageService) toResponses(msgs []*biz.Message) []*MessageResponse {
	out := make([]*MessageResponse, len(msgs))
	for i, msg := range msgs {
		out[i] = s.toResponse(msg)
	}
	return out
}

func (s *MessageService) RegisterRoutes(authed *gin.RouterGroup) {
	messages := authed.Group("/messages")
	{
		messages.POST("", s.Send)
		messages.GET("", s.Inbox)
		messages.PUT("/:id/read", s.MarkRead)
	}
	authed.GET("/conversations/:wallet", s.Conversation)
}
