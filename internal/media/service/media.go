package service

import (
	"github.com/gin-gonic/gin"
	"github.com/safesocial/safesocial-backend/internal/auth/middleware"
	"github.com/safesocial/safesocial-backend/internal/media/biz"
	"github.com/safesocial/safesocial-backend/internal/pkg/logger"
	"github.com/safesocial/safesocial-backend/internal/pkg/response"
	"go.uber.org/zap"
)

type MediaService struct {
	uc  *biz.MediaUseCase
	log *logger.Logger
}

func NewMediaService(uc *biz.MediaUseCase, log *logger.Logger) *MediaService {
	return &MediaService{uc: uc, log: log}
}

type UploadResponse struct {
	StoragePointer string `json:"storage_pointer"`
	FileID         string `json:"file_id"`
	ContentType    string `json:"content_type"`
	Size           int64  `json:"size"`
}

// Upload accepts a multipart file, stores it, and returns the
// pointer/fileId pair for on-chain registration.
func (s *MediaService) Upload(c *gin.Context) {
	wallet, ok := middleware.GetWalletAddress(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "failed to read file")
		return
	}
	defer file.Close()

	upload, err := s.uc.Upload(c.Request.Context(),
		wallet,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	s.log.Info("media uploaded",
		zap.String("wallet", wallet),
		zap.String("file_id", upload.FileID),
		zap.Int64("size", upload.Size))

	response.Created(c, UploadResponse{
		StoragePointer: upload.StoragePointer,
		FileID:         upload.FileID,
		ContentType:    upload.ContentType,
		Size:           upload.Size,
	})
}

func (s *MediaService) RegisterRoutes(authed *gin.RouterGroup) {
	authed.POST("/media", s.Upload)
}
