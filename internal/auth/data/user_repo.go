package data

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/safesocial/safesocial-backend/internal/auth/biz"
	userdata "github.com/safesocial/safesocial-backend/internal/user/data"
	"gorm.io/gorm"
)

// AuthUserRepo reads and creates rows in the shared users table for
// the login flow.
type AuthUserRepo struct {
	db *gorm.DB
}

// NewAuthUserRepo creates the repo.
func NewAuthUserRepo(db *gorm.DB) biz.UserRepo {
	return &AuthUserRepo{db: db}
}

// GetOrCreateByWallet returns the user for the wallet, creating an
// empty-profile record on first login.
func (r *AuthUserRepo) GetOrCreateByWallet(ctx context.Context, walletAddress string) (*biz.User, bool, error) {
	walletAddress = strings.ToLower(walletAddress)

	var po userdata.UserPO
	err := r.db.WithContext(ctx).
		Where("wallet_address = ?", walletAddress).
		First(&po).Error
	if err == nil {
		return toAuthUser(&po), false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	po = userdata.UserPO{
		ID:            uuid.New().String(),
		WalletAddress: walletAddress,
	}
	if err := r.db.WithContext(ctx).Create(&po).Error; err != nil {
		return nil, false, err
	}
	return toAuthUser(&po), true, nil
}

// GetByID looks up a user by primary key.
func (r *AuthUserRepo) GetByID(ctx context.Context, id string) (*biz.User, error) {
	var po userdata.UserPO
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		return nil, err
	}
	return toAuthUser(&po), nil
}

func toAuthUser(po *userdata.UserPO) *biz.User {
	return &biz.User{
		ID:            po.ID,
		WalletAddress: po.WalletAddress,
		Name:          po.Name,
	}
}
