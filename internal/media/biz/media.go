package biz

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/safesocial/safesocial-backend/internal/chain"
	apperrors "github.com/safesocial/safesocial-backend/internal/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// MaxUploadSize caps uploads at 50 MiB.
const MaxUploadSize = 50 << 20

var allowedTypes = map[string]bool{
	"image/jpeg":       true,
	"image/png":        true,
	"image/gif":        true,
	"image/webp":       true,
	"video/mp4":        true,
	"video/webm":       true,
	"application/json": true, // encrypted payload envelopes
}

// ObjectStore is the slice of the media store the upload path needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
}

// Upload is the result handed back to the client: the opaque pointer
// plus the derived file id it will register on-chain.
type Upload struct {
	StoragePointer string
	FileID         string
	ContentType    string
	Size           int64
}

// MediaUseCase uploads content and derives its on-chain file id.
type MediaUseCase struct {
	store ObjectStore
}

func NewMediaUseCase(store ObjectStore) *MediaUseCase {
	return &MediaUseCase{store: store}
}

// Upload stores the content and returns the pointer/fileId pair. The
// file id is the keccak-256 of the uploaded bytes, hashed as they
// stream to storage, so it matches what the client registers in the
// vault and identical content always maps to the same id.
func (uc *MediaUseCase) Upload(ctx context.Context, wallet, filename, contentType string, size int64, reader io.Reader) (*Upload, error) {
	if size <= 0 || size > MaxUploadSize {
		return nil, apperrors.New(apperrors.ErrMediaTooLarge)
	}
	if !allowedTypes[strings.ToLower(contentType)] {
		return nil, apperrors.New(apperrors.ErrMediaInvalidType, contentType)
	}

	hasher := sha3.NewLegacyKeccak256()
	key := fmt.Sprintf("%s/%s%s", strings.ToLower(wallet), uuid.New().String(), filepath.Ext(filename))
	pointer, err := uc.store.Put(ctx, key, io.TeeReader(reader, hasher), size, contentType)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrMediaUploadFailed)
	}

	var fileID chain.FileID
	hasher.Sum(fileID[:0])
	return &Upload{
		StoragePointer: pointer,
		FileID:         fileID.Hex(),
		ContentType:    contentType,
		Size:           size,
	}, nil
}
