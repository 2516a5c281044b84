package biz

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/safesocial/safesocial-backend/internal/pkg/errors"
)

// ErrNotFound is returned by repos when a record does not exist.
var ErrNotFound = errors.New("record not found")

const maxBodyLength = 4096

// Message is one direct message between two wallets. Body is
// plaintext in the domain model; the repo stores it encrypted.
type Message struct {
	ID         string
	FromWallet string
	ToWallet   string
	Body       string
	CreatedAt  time.Time
	ReadAt     *time.Time
}

// MessageRepo persists messages with encrypted bodies.
type MessageRepo interface {
	Create(ctx context.Context, msg *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	ListConversation(ctx context.Context, walletA, walletB string, offset, limit int) ([]*Message, error)
	ListInbox(ctx context.Context, wallet string, offset, limit int) ([]*Message, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
}

// MessageUseCase contains business logic for direct messages.
type MessageUseCase struct {
	repo MessageRepo
}

func NewMessageUseCase(repo MessageRepo) *MessageUseCase {
	return &MessageUseCase{repo: repo}
}

// Send stores a new message from one wallet to another.
func (uc *MessageUseCase) Send(ctx context.Context, fromWallet, toWallet, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.New(apperrors.ErrMessageInvalidBody, "body is required")
	}
	if len(body) > maxBodyLength {
		return nil, apperrors.New(apperrors.ErrMessageInvalidBody, "body too long")
	}
	fromWallet = strings.ToLower(fromWallet)
	toWallet = strings.ToLower(toWallet)
	if fromWallet == toWallet {
		return nil, apperrors.New(apperrors.ErrMessageInvalidBody, "cannot message yourself")
	}

	msg := &Message{
		FromWallet: fromWallet,
		ToWallet:   toWallet,
		Body:       body,
		CreatedAt:  time.Now(),
	}
	if err := uc.repo.Create(ctx, msg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return msg, nil
}

// Conversation returns the thread between the caller and another
// wallet, newest first.
func (uc *MessageUseCase) Conversation(ctx context.Context, wallet, otherWallet string, page, pageSize int) ([]*Message, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}
	msgs, err := uc.repo.ListConversation(ctx,
		strings.ToLower(wallet), strings.ToLower(otherWallet),
		(page-1)*pageSize, pageSize)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return msgs, nil
}

// Inbox returns messages addressed to the wallet, newest first.
func (uc *MessageUseCase) Inbox(ctx context.Context, wallet string, page, pageSize int) ([]*Message, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}
	msgs, err := uc.repo.ListInbox(ctx, strings.ToLower(wallet), (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return msgs, nil
}

// MarkRead flags a received message as read. Only the recipient may.
func (uc *MessageUseCase) MarkRead(ctx context.Context, wallet, messageID string) error {
	msg, err := uc.repo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperrors.New(apperrors.ErrMessageNotFound)
		}
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	if msg.ToWallet != strings.ToLower(wallet) {
		return apperrors.New(apperrors.ErrForbidden)
	}
	if msg.ReadAt != nil {
		return nil
	}
	if err := uc.repo.MarkRead(ctx, messageID, time.Now()); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return nil
}
