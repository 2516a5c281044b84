package service

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safesocial/safesocial-backend/internal/auth/middleware"
	"github.com/safesocial/safesocial-backend/internal/pkg/logger"
	"github.com/safesocial/safesocial-backend/internal/pkg/response"
	"github.com/safesocial/safesocial-backend/internal/user/biz"
	"go.uber.org/zap"
)

type UserService struct {
	uc  *biz.UserUseCase
	log *logger.Logger
}

func NewUserService(uc *biz.UserUseCase, log *logger.Logger) *UserService {
	return &UserService{uc: uc, log: log}
}

type UserResponse struct {
	ID            string `json:"id"`
	WalletAddress string `json:"wallet_address"`
	Name          string `json:"name"`
	CreatedAt     string `json:"created_at"`
}

type SetNameRequest struct {
	Name string `json:"name" binding:"required"`
}

type AddFriendRequest struct {
	Name string `json:"name" binding:"required"`
}

// GetUser returns a user's public profile.
func (s *UserService) GetUser(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, "invalid user id")
		return
	}

	user, err := s.uc.GetUser(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, s.toResponse(user))
}

func (s *UserService) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	users, err := s.uc.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	responses := make([]*UserResponse, len(users))
	for i, user := range users {
		responses[i] = s.toResponse(user)
	}

	response.Success(c, gin.H{"users": responses})
}

// CheckName reports whether a display name is taken.
func (s *UserService) CheckName(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		response.BadRequest(c, "name is required")
		return
	}

	exists, err := s.uc.CheckNameExists(c.Request.Context(), name)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"exists": exists})
}

// SetName finishes onboarding by claiming a display name.
func (s *UserService) SetName(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req SetNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := s.uc.SetName(c.Request.Context(), userID, req.Name)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	s.log.Info("display name set",
		zap.String("user_id", userID),
		zap.String("name", user.Name))

	response.Success(c, s.toResponse(user))
}

func (s *UserService) AddFriend(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req AddFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	friend, err := s.uc.AddFriend(c.Request.Context(), userID, req.Name)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Created(c, s.toResponse(friend))
}

func (s *UserService) RemoveFriend(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	friendID := c.Param("id")
	if friendID == "" {
		response.BadRequest(c, "invalid friend id")
		return
	}

	if err := s.uc.RemoveFriend(c.Request.Context(), userID, friendID); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "friend removed"})
}

func (s *UserService) ListFriends(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	friends, err := s.uc.ListFriends(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	responses := make([]*UserResponse, len(friends))
	for i, friend := range friends {
		responses[i] = s.toResponse(friend)
	}

	response.Success(c, gin.H{"friends": responses})
}

func (s *UserService) toResponse(user *biz.User) *UserResponse {
	return &UserResponse{
		ID:            user.ID,
		WalletAddress: user.WalletAddress,
		Name:          user.Name,
		CreatedAt:     user.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func (s *UserService) RegisterRoutes(public *gin.RouterGroup, authed *gin.RouterGroup) {
	public.GET("/names/check", s.CheckName)

	users := authed.Group("/users")
	{
		users.GET("", s.ListUsers)
		users.GET("/:id", s.GetUser)
	}

	me := authed.Group("/me")
	{
		me.PUT("/name", s.SetName)
		me.GET("/friends", s.ListFriends)
		me.POST("/friends", s.AddFriend)
		me.DELETE("/friends/:id", s.RemoveFriend)
	}
}
