package biz

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/safesocial/safesocial-backend/internal/chain"
	apperrors "github.com/safesocial/safesocial-backend/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Put(_ context.Context, key string, reader io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.objects[key] = data
	return "minio://media/" + key, nil
}

const uploaderWallet = "0xAAAA000000000000000000000000000000000000"

func TestUploadReturnsPointerAndFileID(t *testing.T) {
	store := newMemStore()
	uc := NewMediaUseCase(store)

	body := []byte("fake png bytes")
	upload, err := uc.Upload(context.Background(), uploaderWallet, "cat.png", "image/png", int64(len(body)), bytes.NewReader(body))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(upload.StoragePointer, "minio://media/"))
	assert.True(t, strings.HasPrefix(upload.FileID, "0x"))
	assert.Len(t, upload.FileID, 66)
	assert.EqualValues(t, len(body), upload.Size)

	// Object key is namespaced by the lowercased wallet.
	for key := range store.objects {
		assert.True(t, strings.HasPrefix(key, strings.ToLower(uploaderWallet)+"/"))
		assert.True(t, strings.HasSuffix(key, ".png"))
	}
}

func TestUploadFileIDIsContentDerived(t *testing.T) {
	uc := NewMediaUseCase(newMemStore())
	body := []byte("same bytes")

	a, err := uc.Upload(context.Background(), uploaderWallet, "a.png", "image/png", int64(len(body)), bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, chain.DeriveFileID(body).Hex(), a.FileID)

	// Same content hashes to the same id regardless of filename.
	b, err := uc.Upload(context.Background(), uploaderWallet, "b.png", "image/png", int64(len(body)), bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, a.FileID, b.FileID)

	other := []byte("other bytes")
	c, err := uc.Upload(context.Background(), uploaderWallet, "c.png", "image/png", int64(len(other)), bytes.NewReader(other))
	require.NoError(t, err)
	assert.NotEqual(t, a.FileID, c.FileID)
}

func TestUploadRejectsOversize(t *testing.T) {
	uc := NewMediaUseCase(newMemStore())

	_, err := uc.Upload(context.Background(), uploaderWallet, "big.png", "image/png", MaxUploadSize+1, bytes.NewReader(nil))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrMediaTooLarge, apperrors.ExtractCode(err))

	_, err = uc.Upload(context.Background(), uploaderWallet, "empty.png", "image/png", 0, bytes.NewReader(nil))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrMediaTooLarge, apperrors.ExtractCode(err))
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	uc := NewMediaUseCase(newMemStore())
	body := []byte("#!/bin/sh")

	_, err := uc.Upload(context.Background(), uploaderWallet, "x.sh", "application/x-sh", int64(len(body)), bytes.NewReader(body))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrMediaInvalidType, apperrors.ExtractCode(err))
}
