package biz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/safesocial/safesocial-backend/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memMessageRepo struct {
	mu   sync.Mutex
	seq  int
	msgs map[string]*Message
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{msgs: make(map[string]*Message)}
}

func (r *memMessageRepo) Create(_ context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	msg.ID = fmt.Sprintf("msg-%d", r.seq)
	cp := *msg
	r.msgs[msg.ID] = &cp
	return nil
}

func (r *memMessageRepo) GetByID(_ context.Context, id string) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.msgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *msg
	return &cp, nil
}

func (r *memMessageRepo) ListConversation(_ context.Context, a, b string, offset, limit int) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Message
	for _, m := range r.msgs {
		if (m.FromWallet == a && m.ToWallet == b) || (m.FromWallet == b && m.ToWallet == a) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memMessageRepo) ListInbox(_ context.Context, wallet string, offset, limit int) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Message
	for _, m := range r.msgs {
		if m.ToWallet == wallet {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memMessageRepo) MarkRead(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.msgs[id]; ok {
		m.ReadAt = &at
	}
	return nil
}

const (
	aliceWallet = "0xaaaa000000000000000000000000000000000000"
	bobWallet   = "0xbbbb000000000000000000000000000000000000"
)

func TestSendAndConversation(t *testing.T) {
	uc := NewMessageUseCase(newMemMessageRepo())
	ctx := context.Background()

	msg, err := uc.Send(ctx, aliceWallet, bobWallet, "hi bob")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, aliceWallet, msg.FromWallet)

	_, err = uc.Send(ctx, bobWallet, aliceWallet, "hi alice")
	require.NoError(t, err)

	msgs, err := uc.Conversation(ctx, aliceWallet, bobWallet, 1, 50)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestSendValidatesBody(t *testing.T) {
	uc := NewMessageUseCase(newMemMessageRepo())
	ctx := context.Background()

	_, err := uc.Send(ctx, aliceWallet, bobWallet, "   ")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrMessageInvalidBody, apperrors.ExtractCode(err))

	_, err = uc.Send(ctx, aliceWallet, bobWallet, strings.Repeat("x", 5000))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrMessageInvalidBody, apperrors.ExtractCode(err))

	_, err = uc.Send(ctx, aliceWallet, aliceWallet, "talking to myself")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrMessageInvalidBody, apperrors.ExtractCode(err))
}

func TestInboxOnlyShowsReceived(t *testing.T) {
	uc := NewMessageUseCase(newMemMessageRepo())
	ctx := context.Background()

	_, err := uc.Send(ctx, aliceWallet, bobWallet, "to bob")
	require.NoError(t, err)

	inbox, err := uc.Inbox(ctx, bobWallet, 1, 50)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "to bob", inbox[0].Body)

	inbox, err = uc.Inbox(ctx, aliceWallet, 1, 50)
	require.NoError(t, err)
	assert.Empty(t, inbox)
}

func TestMarkReadRecipientOnly(t *testing.T) {
	repo := newMemMessageRepo()
	uc := NewMessageUseCase(repo)
	ctx := context.Background()

	msg, err := uc.Send(ctx, aliceWallet, bobWallet, "read me")
	require.NoError(t, err)

	// Sender cannot mark the recipient's copy read.
	err = uc.MarkRead(ctx, aliceWallet, msg.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrForbidden, apperrors.ExtractCode(err))

	require.NoError(t, uc.MarkRead(ctx, bobWallet, msg.ID))

	stored, err := repo.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.ReadAt)

	// Idempotent.
	require.NoError(t, uc.MarkRead(ctx, bobWallet, msg.ID))
}

func TestMarkReadMissingMessage(t *testing.T) {
	uc := NewMessageUseCase(newMemMessageRepo())

	err := uc.MarkRead(context.Background(), bobWallet, "nope")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrMessageNotFound, apperrors.ExtractCode(err))
}
