package data

import (
	"context"
	"time"

	"github.com/safesocial/safesocial-backend/internal/post/biz"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedPostPO mirrors one on-chain post for feed queries.
type FeedPostPO struct {
	PostID        uint64 `gorm:"primarykey;autoIncrement:false"`
	CreatorWallet string `gorm:"size:42;not null;index:idx_feed_posts_creator"`
	FileID        string `gorm:"size:66;not null"`
	Description   string `gorm:"type:text"`
	Price         string `gorm:"size:78;not null;default:'0'"`
	IsPublic      bool   `gorm:"not null;default:false"`
	ChainCreated  int64  `gorm:"not null"`
	ChainUpdated  int64  `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (FeedPostPO) TableName() string {
	return "feed_posts"
}

// FeedRepo implements biz.FeedRepo on postgres.
type FeedRepo struct {
	db *gorm.DB
}

func NewFeedRepo(db *gorm.DB) biz.FeedRepo {
	return &FeedRepo{db: db}
}

func (r *FeedRepo) Upsert(ctx context.Context, entry *biz.FeedEntry) error {
	po := &FeedPostPO{
		PostID:        entry.PostID,
		CreatorWallet: entry.CreatorWallet,
		FileID:        entry.FileID,
		Description:   entry.Description,
		Price:         entry.Price,
		IsPublic:      entry.IsPublic,
		ChainCreated:  entry.CreatedAt,
		ChainUpdated:  entry.UpdatedAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "post_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"file_id", "description", "price", "is_public", "chain_updated", "updated_at",
			}),
		}).
		Create(po).Error
}

func (r *FeedRepo) List(ctx context.Context, offset, limit int) ([]*biz.FeedEntry, error) {
	var pos []FeedPostPO
	if err := r.db.WithContext(ctx).
		Order("post_id DESC").
		Offset(offset).Limit(limit).
		Find(&pos).Error; err != nil {
		return nil, err
	}
	return toEntries(pos), nil
}

func (r *FeedRepo) ListByCreator(ctx context.Context, creatorWallet string, offset, limit int) ([]*biz.FeedEntry, error) {
	var pos []FeedPostPO
	if err := r.db.WithContext(ctx).
		Where("creator_wallet = ?", creatorWallet).
		Order("post_id DESC").
		Offset(offset).Limit(limit).
		Find(&pos).Error; err != nil {
		return nil, err
	}
	return toEntries(pos), nil
}

func (r *FeedRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&FeedPostPO{}).Count(&count).Error
	return count, err
}

func toEntries(pos []FeedPostPO) []*biz.FeedEntry {
	entries := make([]*biz.FeedEntry, len(pos))
	for i, po := range pos {
		entries[i] = &biz.FeedEntry{
			PostID:        po.PostID,
			CreatorWallet: po.CreatorWallet,
			FileID:        po.FileID,
			Description:   po.Description,
			Price:         po.Price,
			IsPublic:      po.IsPublic,
			CreatedAt:     po.ChainCreated,
			UpdatedAt:     po.ChainUpdated,
		}
	}
	return entries
}
