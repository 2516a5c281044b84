package indexer

import (
	"context"
	"sync"

	"github.com/safesocial/safesocial-backend/internal/chain"
	"github.com/safesocial/safesocial-backend/internal/pkg/logger"
	"github.com/safesocial/safesocial-backend/internal/pkg/workerpool"
	"github.com/safesocial/safesocial-backend/internal/post/biz"
	"go.uber.org/zap"
)

// Indexer mirrors post events off the ledger into the feed read
// model. It consumes the ledger's event stream and fans writes out
// through the worker pool, so feed queries never touch contract
// state under the ledger lock.
type Indexer struct {
	ledger   *chain.Ledger
	registry *chain.PostRegistry
	feed     biz.FeedRepo
	pool     *workerpool.Pool
	log      *logger.Logger

	events <-chan chain.Event
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(ledger *chain.Ledger, registry *chain.PostRegistry, feed biz.FeedRepo, pool *workerpool.Pool, log *logger.Logger) *Indexer {
	return &Indexer{
		ledger:   ledger,
		registry: registry,
		feed:     feed,
		pool:     pool,
		log:      log,
	}
}

// Start subscribes to the ledger and begins mirroring. It first
// backfills every existing post, so restarts converge.
func (ix *Indexer) Start(ctx context.Context) {
	ctx, ix.cancel = context.WithCancel(ctx)
	ix.events = ix.ledger.Subscribe(256)
	events := ix.events

	ix.backfill(ctx)

	ix.wg.Add(1)
	go func() {
		defer ix.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				ix.dispatch(ctx, ev)
			}
		}
	}()

	ix.log.Info("chain indexer started")
}

// Stop halts event consumption and deregisters from the ledger.
// In-flight pool tasks drain via the pool's own shutdown.
func (ix *Indexer) Stop() {
	if ix.cancel != nil {
		ix.cancel()
	}
	if ix.events != nil {
		ix.ledger.Unsubscribe(ix.events)
	}
	ix.wg.Wait()
	ix.log.Info("chain indexer stopped")
}

func (ix *Indexer) backfill(ctx context.Context) {
	next := ix.registry.NextPostID()
	for id := uint64(1); id < next; id++ {
		if post := ix.registry.Posts(id); post.Exists {
			ix.mirror(ctx, id)
		}
	}
	if next > 1 {
		ix.log.Info("feed backfill complete", zap.Uint64("posts", next-1))
	}
}

func (ix *Indexer) dispatch(ctx context.Context, ev chain.Event) {
	var postID uint64
	switch e := ev.(type) {
	case chain.PostCreated:
		postID = e.PostID
	case chain.PostUpdated:
		postID = e.PostID
	default:
		return
	}

	err := ix.pool.Submit(func() error {
		return ix.mirror(ctx, postID)
	})
	if err != nil {
		ix.log.Warn("failed to submit index task",
			zap.Uint64("post_id", postID),
			zap.Error(err))
	}
}

// mirror re-reads the post from the registry and upserts the feed
// row. Reading back instead of trusting event payloads keeps the row
// correct even when create and update events race in the pool.
func (ix *Indexer) mirror(ctx context.Context, postID uint64) error {
	post, err := ix.registry.GetPost(postID)
	if err != nil {
		return err
	}

	entry := &biz.FeedEntry{
		PostID:        post.ID,
		CreatorWallet: string(post.Owner),
		FileID:        post.FileID.Hex(),
		Description:   post.Description,
		Price:         post.Price.String(),
		IsPublic:      post.IsPublic,
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
	}
	if err := ix.feed.Upsert(ctx, entry); err != nil {
		ix.log.Error("failed to mirror post",
			zap.Uint64("post_id", postID),
			zap.Error(err))
		return err
	}
	return nil
}
