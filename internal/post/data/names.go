package data

import (
	"context"

	"github.com/safesocial/safesocial-backend/internal/post/biz"
	userdata "github.com/safesocial/safesocial-backend/internal/user/data"
	"gorm.io/gorm"
)

// NameDirectory implements biz.NameDirectory against the users table.
type NameDirectory struct {
	db *gorm.DB
}

func NewNameDirectory(db *gorm.DB) biz.NameDirectory {
	return &NameDirectory{db: db}
}

func (d *NameDirectory) NamesByWallets(ctx context.Context, wallets []string) (map[string]string, error) {
	if len(wallets) == 0 {
		return map[string]string{}, nil
	}

	var pos []userdata.UserPO
	if err := d.db.WithContext(ctx).
		Select("wallet_address", "name").
		Where("wallet_address IN ?", wallets).
		Find(&pos).Error; err != nil {
		return nil, err
	}

	names := make(map[string]string, len(pos))
	for _, po := range pos {
		names[po.WalletAddress] = po.Name
	}
	return names, nil
}
