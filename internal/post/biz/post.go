package biz

import (
	"context"
	"errors"

	"github.com/safesocial/safesocial-backend/internal/chain"
	apperrors "github.com/safesocial/safesocial-backend/internal/pkg/errors"
)

// FeedEntry is the indexed read model for one post, mirrored off the
// chain event stream into postgres.
type FeedEntry struct {
	PostID        uint64
	CreatorWallet string
	FileID        string
	Description   string
	Price         string
	IsPublic      bool
	CreatedAt     int64
	UpdatedAt     int64
}

// FeedRepo is the read-model store the indexer writes into.
type FeedRepo interface {
	Upsert(ctx context.Context, entry *FeedEntry) error
	List(ctx context.Context, offset, limit int) ([]*FeedEntry, error)
	ListByCreator(ctx context.Context, creatorWallet string, offset, limit int) ([]*FeedEntry, error)
	Count(ctx context.Context) (int64, error)
}

// NameDirectory resolves wallet addresses to display names.
type NameDirectory interface {
	NamesByWallets(ctx context.Context, wallets []string) (map[string]string, error)
}

// PostView is a post as the feed shows it. IsPublic here is the
// effective visibility: free posts are treated as public even when
// the creator did not flag them.
type PostView struct {
	ID          uint64
	Creator     string
	CreatorName string
	FileID      string
	Description string
	Price       string
	IsPublic    bool
	CreatedAt   int64
	UpdatedAt   int64
}

// AccessResult explains an access decision for the frontend.
type AccessResult struct {
	CanAccess    bool
	IsOwner      bool
	IsSubscribed bool
	HasGrant     bool
}

// UnlockResult carries what a permitted viewer needs to fetch and
// decrypt the content.
type UnlockResult struct {
	StoragePointer string
	Metadata       string
	EncryptedKey   string
}

// PostUseCase is the read path over the on-chain registry. Post
// mutations are user-signed chain transactions; nothing here submits
// one.
type PostUseCase struct {
	registry *chain.PostRegistry
	vault    *chain.DataVault
	feed     FeedRepo
	names    NameDirectory
}

func NewPostUseCase(registry *chain.PostRegistry, vault *chain.DataVault, feed FeedRepo, names NameDirectory) *PostUseCase {
	return &PostUseCase{
		registry: registry,
		vault:    vault,
		feed:     feed,
		names:    names,
	}
}

// ListFeed returns a page of the indexed feed, newest first, with
// creator names joined in.
func (uc *PostUseCase) ListFeed(ctx context.Context, page, pageSize int) ([]*PostView, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	entries, err := uc.feed.List(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	total, err := uc.feed.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	views, err := uc.toViews(ctx, entries)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// ListByCreator returns a creator's posts, newest first.
func (uc *PostUseCase) ListByCreator(ctx context.Context, creatorWallet string, page, pageSize int) ([]*PostView, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	entries, err := uc.feed.ListByCreator(ctx, creatorWallet, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return uc.toViews(ctx, entries)
}

// GetPost reads a single post straight from the registry.
func (uc *PostUseCase) GetPost(ctx context.Context, postID uint64) (*PostView, error) {
	post, err := uc.registry.GetPost(postID)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrPostNotFound)
	}

	view := uc.toView(post)
	names, err := uc.names.NamesByWallets(ctx, []string{string(post.Owner)})
	if err == nil {
		view.CreatorName = names[string(post.Owner)]
	}
	return view, nil
}

// CheckAccess evaluates the unified access decision for a viewer and
// breaks out the individual gates for display.
func (uc *PostUseCase) CheckAccess(_ context.Context, postID uint64, viewer string) (*AccessResult, error) {
	addr, err := chain.ParseAddress(viewer)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrChainInvalidInput, err.Error())
	}

	post, err := uc.registry.GetPost(postID)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrPostNotFound)
	}

	return &AccessResult{
		CanAccess:    uc.registry.CanUserAccessPost(postID, addr),
		IsOwner:      post.Owner == addr,
		IsSubscribed: uc.registry.IsSubscribed(post.Owner, addr),
		HasGrant:     uc.vault.CheckAccess(post.FileID, addr),
	}, nil
}

// Unlock hands a permitted viewer the storage pointer and their
// encrypted key. It is a pure read: the on-chain access log is only
// written by the viewer's own GetFile transaction.
func (uc *PostUseCase) Unlock(_ context.Context, postID uint64, viewer string) (*UnlockResult, error) {
	addr, err := chain.ParseAddress(viewer)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrChainInvalidInput, err.Error())
	}

	post, err := uc.registry.GetPost(postID)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrPostNotFound)
	}
	if !uc.registry.CanUserAccessPost(postID, addr) {
		return nil, apperrors.New(apperrors.ErrPostAccessDenied)
	}

	info := uc.vault.GetFileInfo(post.FileID)
	result := &UnlockResult{
		StoragePointer: info.StoragePointer,
		Metadata:       info.Metadata,
	}

	// Grant holders have a key on file; owners, public, free, and
	// subscription viewers hold the key out of band.
	key, err := uc.vault.GetEncryptedKey(post.FileID, addr)
	if err == nil {
		result.EncryptedKey = key
	} else if !errors.Is(err, chain.ErrAccessDenied) {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return result, nil
}

// AccessHistory pages through a file's on-chain audit log. Only the
// file owner may read it here.
func (uc *PostUseCase) AccessHistory(_ context.Context, postID uint64, viewer string, offset, limit int) ([]chain.AccessEntry, int, error) {
	addr, err := chain.ParseAddress(viewer)
	if err != nil {
		return nil, 0, apperrors.New(apperrors.ErrChainInvalidInput, err.Error())
	}

	post, err := uc.registry.GetPost(postID)
	if err != nil {
		return nil, 0, apperrors.New(apperrors.ErrPostNotFound)
	}
	if post.Owner != addr {
		return nil, 0, apperrors.New(apperrors.ErrPostAccessDenied)
	}

	if limit < 1 || limit > 100 {
		limit = 50
	}
	entries := uc.vault.GetAccessHistory(post.FileID, offset, limit)
	total := uc.vault.GetAccessHistoryLength(post.FileID)
	return entries, total, nil
}

func (uc *PostUseCase) toView(post chain.Post) *PostView {
	price := "0"
	if post.Price != nil {
		price = post.Price.String()
	}
	free := post.Price == nil || post.Price.Sign() == 0
	return &PostView{
		ID:          post.ID,
		Creator:     string(post.Owner),
		FileID:      post.FileID.Hex(),
		Description: post.Description,
		Price:       price,
		IsPublic:    post.IsPublic || free,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}
}

func (uc *PostUseCase) toViews(ctx context.Context, entries []*FeedEntry) ([]*PostView, error) {
	wallets := make([]string, 0, len(entries))
	for _, e := range entries {
		wallets = append(wallets, e.CreatorWallet)
	}

	names := map[string]string{}
	if len(wallets) > 0 {
		resolved, err := uc.names.NamesByWallets(ctx, wallets)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
		}
		names = resolved
	}

	views := make([]*PostView, len(entries))
	for i, e := range entries {
		views[i] = &PostView{
			ID:          e.PostID,
			Creator:     e.CreatorWallet,
			CreatorName: names[e.CreatorWallet],
			FileID:      e.FileID,
			Description: e.Description,
			Price:       e.Price,
			IsPublic:    e.IsPublic || e.Price == "0",
			CreatedAt:   e.CreatedAt,
			UpdatedAt:   e.UpdatedAt,
		}
	}
	return views, nil
}
