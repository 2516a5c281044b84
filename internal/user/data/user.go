package data

import (
	"context"
	"errors"
	"time"

	"github.com/safesocial/safesocial-backend/internal/user/biz"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserPO represents the database model
type UserPO struct {
	ID            string `gorm:"type:uuid;primarykey"`
	WalletAddress string `gorm:"size:42;not null;uniqueIndex:idx_users_wallet"`
	Name          string `gorm:"size:100;uniqueIndex:idx_users_name,where:name <> ''"`

	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (UserPO) TableName() string {
	return "users"
}

// FriendPO is one directed friendship edge.
type FriendPO struct {
	UserID    string    `gorm:"type:uuid;primarykey"`
	FriendID  string    `gorm:"type:uuid;primarykey"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (FriendPO) TableName() string {
	return "user_friends"
}

// UserRepo implements biz.UserRepo interface
type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) biz.UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*biz.User, error) {
	var po UserPO
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		return nil, translateErr(err)
	}
	return r.toUser(&po), nil
}

func (r *UserRepo) GetByWallet(ctx context.Context, walletAddress string) (*biz.User, error) {
	var po UserPO
	if err := r.db.WithContext(ctx).Where("wallet_address = ?", walletAddress).First(&po).Error; err != nil {
		return nil, translateErr(err)
	}
	return r.toUser(&po), nil
}

func (r *UserRepo) GetByName(ctx context.Context, name string) (*biz.User, error) {
	var po UserPO
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&po).Error; err != nil {
		return nil, translateErr(err)
	}
	return r.toUser(&po), nil
}

func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]*biz.User, error) {
	var pos []UserPO
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&pos).Error; err != nil {
		return nil, err
	}

	users := make([]*biz.User, len(pos))
	for i, po := range pos {
		users[i] = r.toUser(&po)
	}
	return users, nil
}

func (r *UserRepo) UpdateName(ctx context.Context, id, name string) error {
	result := r.db.WithContext(ctx).
		Model(&UserPO{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return biz.ErrNotFound
	}
	return nil
}

func (r *UserRepo) AddFriend(ctx context.Context, userID, friendID string) error {
	po := &FriendPO{UserID: userID, FriendID: friendID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(po).Error
}

func (r *UserRepo) RemoveFriend(ctx context.Context, userID, friendID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Delete(&FriendPO{}).Error
}

func (r *UserRepo) ListFriends(ctx context.Context, userID string) ([]*biz.User, error) {
	var pos []UserPO
	err := r.db.WithContext(ctx).
		Joins("JOIN user_friends ON user_friends.friend_id = users.id").
		Where("user_friends.user_id = ?", userID).
		Order("user_friends.created_at DESC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}

	users := make([]*biz.User, len(pos))
	for i, po := range pos {
		users[i] = r.toUser(&po)
	}
	return users, nil
}

func (r *UserRepo) toUser(po *UserPO) *biz.User {
	return &biz.User{
		ID:            po.ID,
		WalletAddress: po.WalletAddress,
		Name:          po.Name,
		CreatedAt:     po.CreatedAt,
		UpdatedAt:     po.UpdatedAt,
	}
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return biz.ErrNotFound
	}
	return err
}
