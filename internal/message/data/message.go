package data

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/safesocial/safesocial-backend/internal/message"
	"github.com/safesocial/safesocial-backend/internal/message/biz"
	apperrors "github.com/safesocial/safesocial-backend/internal/pkg/errors"
	"gorm.io/gorm"
)

// MessagePO represents the database model. CipherBody holds the
// AES-GCM sealed body; plaintext never touches the table.
type MessagePO struct {
	ID         string `gorm:"type:uuid;primarykey"`
	FromWallet string `gorm:"size:42;not null;index:idx_messages_from"`
	ToWallet   string `gorm:"size:42;not null;index:idx_messages_to"`
	CipherBody string `gorm:"type:text;not null"`
	ReadAt     *time.Time

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_messages_created"`
}

func (MessagePO) TableName() string {
	return "messages"
}

// MessageRepo implements biz.MessageRepo, encrypting bodies at rest.
type MessageRepo struct {
	db     *gorm.DB
	cipher *message.Cipher
}

func NewMessageRepo(db *gorm.DB, cipher *message.Cipher) biz.MessageRepo {
	return &MessageRepo{db: db, cipher: cipher}
}

func (r *MessageRepo) Create(ctx context.Context, msg *biz.Message) error {
	sealed, err := r.cipher.Encrypt(msg.Body)
	if err != nil {
		return err
	}

	po := &MessagePO{
		ID:         uuid.New().String(),
		FromWallet: msg.FromWallet,
		ToWallet:   msg.ToWallet,
		CipherBody: sealed,
		CreatedAt:  msg.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return err
	}
	msg.ID = po.ID
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*biz.Message, error) {
	var po MessagePO
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrNotFound
		}
		return nil, err
	}
	return r.toMessage(&po)
}

func (r *MessageRepo) ListConversation(ctx context.Context, walletA, walletB string, offset, limit int) ([]*biz.Message, error) {
	var pos []MessagePO
	err := r.db.WithContext(ctx).
		Where("(from_wallet = ? AND to_wallet = ?) OR (from_wallet = ? AND to_wallet = ?)",
			walletA, walletB, walletB, walletA).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return r.toMessages(pos)
}

func (r *MessageRepo) ListInbox(ctx context.Context, wallet string, offset, limit int) ([]*biz.Message, error) {
	var pos []MessagePO
	err := r.db.WithContext(ctx).
		Where("to_wallet = ?", wallet).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return r.toMessages(pos)
}

func (r *MessageRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&MessagePO{}).
		Where("id = ?", id).
		Update("read_at", at).Error
}

func (r *MessageRepo) toMessage(po *MessagePO) (*biz.Message, error) {
	body, err := r.cipher.Decrypt(po.CipherBody)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrMessageDecryption)
	}
	return &biz.Message{
		ID:         po.ID,
		FromWallet: po.FromWallet,
		ToWallet:   po.ToWallet,
		Body:       body,
		CreatedAt:  po.CreatedAt,
		ReadAt:     po.ReadAt,
	}, nil
}

func (r *MessageRepo) toMessages(pos []MessagePO) ([]*biz.Message, error) {
	msgs := make([]*biz.Message, len(pos))
	for i, po := range pos {
		msg, err := r.toMessage(&po)
		if err != nil {
			return nil, err
		}
		msgs[i] = msg
	}
	return msgs, nil
}
