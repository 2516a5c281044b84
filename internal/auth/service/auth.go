package service

import (
	"github.com/gin-gonic/gin"
	"github.com/safesocial/safesocial-backend/internal/auth/biz"
	"github.com/safesocial/safesocial-backend/internal/auth/middleware"
	"github.com/safesocial/safesocial-backend/internal/pkg/logger"
	"github.com/safesocial/safesocial-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// AuthService exposes the wallet login endpoints.
type AuthService struct {
	uc  *biz.AuthUseCase
	log *logger.Logger
}

// NewAuthService creates the service.
func NewAuthService(uc *biz.AuthUseCase, log *logger.Logger) *AuthService {
	return &AuthService{uc: uc, log: log}
}

// RegisterRoutes mounts the auth endpoints.
func (s *AuthService) RegisterRoutes(public *gin.RouterGroup, authed *gin.RouterGroup) {
	public.POST("/auth/nonce", s.GetNonce)
	public.POST("/auth/login", s.Login)
	authed.GET("/auth/me", s.Me)
}

type nonceRequest struct {
	Address string `json:"address" binding:"required"`
}

type nonceResponse struct {
	Nonce string `json:"nonce"`
}

// GetNonce issues a fresh single-use login nonce for a wallet.
func (s *AuthService) GetNonce(c *gin.Context) {
	var req nonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	nonce, err := s.uc.GetNonce(c.Request.Context(), req.Address)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, nonceResponse{Nonce: nonce})
}

type loginRequest struct {
	Address   string `json:"address" binding:"required"`
	PublicKey string `json:"public_key" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

type loginResponse struct {
	Token      string   `json:"token"`
	User       userView `json:"user"`
	Onboarding bool     `json:"onboarding"`
}

type userView struct {
	ID            string `json:"id"`
	WalletAddress string `json:"wallet_address"`
	Name          string `json:"name"`
}

// Login exchanges a signed nonce for an access token.
func (s *AuthService) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := s.uc.Login(c.Request.Context(), req.Address, req.PublicKey, req.Signature)
	if err != nil {
		s.log.Warn("wallet login failed",
			zap.String("address", req.Address),
			zap.Error(err))
		response.HandleError(c, err)
		return
	}

	s.log.Info("wallet login",
		zap.String("address", result.User.WalletAddress),
		zap.Bool("onboarding", result.Onboarding))

	response.Success(c, loginResponse{
		Token:      result.Token,
		User:       toUserView(result.User),
		Onboarding: result.Onboarding,
	})
}

// Me returns the authenticated user's profile.
func (s *AuthService) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	user, err := s.uc.Me(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, toUserView(user))
}

func toUserView(u *biz.User) userView {
	return userView{
		ID:            u.ID,
		WalletAddress: u.WalletAddress,
		Name:          u.Name,
	}
}
