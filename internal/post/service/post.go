package service

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safesocial/safesocial-backend/internal/auth/middleware"
	"github.com/safesocial/safesocial-backend/internal/pkg/logger"
	"github.com/safesocial/safesocial-backend/internal/pkg/response"
	"github.com/safesocial/safesocial-backend/internal/post/biz"
)

// PostService exposes the read path over the on-chain feed.
type PostService struct {
	uc  *biz.PostUseCase
	log *logger.Logger
}

func NewPostService(uc *biz.PostUseCase, log *logger.Logger) *PostService {
	return &PostService{uc: uc, log: log}
}

type PostResponse struct {
	ID          uint64 `json:"id"`
	Creator     string `json:"creator"`
	CreatorName string `json:"creator_name,omitempty"`
	FileID      string `json:"file_id"`
	Description string `json:"description"`
	Price       string `json:"price"`
	IsPublic    bool   `json:"is_public"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

type AccessResponse struct {
	CanAccess    bool `json:"can_access"`
	IsOwner      bool `json:"is_owner"`
	IsSubscribed bool `json:"is_subscribed"`
	HasGrant     bool `json:"has_grant"`
}

type UnlockResponse struct {
	StoragePointer string `json:"storage_pointer"`
	Metadata       string `json:"metadata"`
	EncryptedKey   string `json:"encrypted_key,omitempty"`
}

type AccessHistoryEntry struct {
	Accessor  string `json:"accessor"`
	Timestamp int64  `json:"timestamp"`
}

// ListFeed returns a page of the indexed feed.
func (s *PostService) ListFeed(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	posts, total, err := s.uc.ListFeed(c.Request.Context(), page, pageSize)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"posts": toPostResponses(posts),
		"total": total,
	})
}

// ListByCreator returns one creator's posts.
func (s *PostService) ListByCreator(c *gin.Context) {
	creator := c.Param("wallet")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	posts, err := s.uc.ListByCreator(c.Request.Context(), creator, page, pageSize)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"posts": toPostResponses(posts)})
}

// GetPost returns a single post.
func (s *PostService) GetPost(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	post, err := s.uc.GetPost(c.Request.Context(), postID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, toPostResponse(post))
}

// CheckAccess evaluates whether the authenticated wallet may view the
// post and why.
func (s *PostService) CheckAccess(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}
	wallet, ok := middleware.GetWalletAddress(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := s.uc.CheckAccess(c.Request.Context(), postID, wallet)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, AccessResponse{
		CanAccess:    result.CanAccess,
		IsOwner:      result.IsOwner,
		IsSubscribed: result.IsSubscribed,
		HasGrant:     result.HasGrant,
	})
}

// Unlock returns the storage pointer and the viewer's encrypted key
// when access is permitted.
func (s *PostService) Unlock(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}
	wallet, ok := middleware.GetWalletAddress(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := s.uc.Unlock(c.Request.Context(), postID, wallet)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, UnlockResponse{
		StoragePointer: result.StoragePointer,
		Metadata:       result.Metadata,
		EncryptedKey:   result.EncryptedKey,
	})
}

// AccessHistory pages the file's on-chain audit log for the owner.
func (s *PostService) AccessHistory(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}
	wallet, ok := middleware.GetWalletAddress(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, total, err := s.uc.AccessHistory(c.Request.Context(), postID, wallet, offset, limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	out := make([]AccessHistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = AccessHistoryEntry{
			Accessor:  string(e.Accessor),
			Timestamp: e.Timestamp,
		}
	}

	response.Success(c, gin.H{
		"entries": out,
		"total":   total,
	})
}

func parsePostID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return 0, false
	}
	return id, true
}

func toPostResponse(p *biz.PostView) *PostResponse {
	return &PostResponse{
		ID:          p.ID,
		Creator:     p.Creator,
		CreatorName: p.CreatorName,
		FileID:      p.FileID,
		Description: p.Description,
		Price:       p.Price,
		IsPublic:    p.IsPublic,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toPostResponses(posts []*biz.PostView) []*PostResponse {
	out := make([]*PostResponse, len(posts))
	for i, p := range posts {
		out[i] = toPostResponse(p)
	}
	return out
}

func (s *PostService) RegisterRoutes(authed *gin.RouterGroup) {
	posts := authed.Group("/posts")
	{
		posts.GET("", s.ListFeed)
		posts.GET("/:id", s.GetPost)
		posts.GET("/:id/access", s.CheckAccess)
		posts.GET("/:id/unlock", s.Unlock)
		posts.GET("/:id/history", s.AccessHistory)
	}
	authed.GET("/creators/:wallet/posts", s.ListByCreator)
}
