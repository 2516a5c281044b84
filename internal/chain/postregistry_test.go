package chain

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock drives subscription expiry deterministically.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type registryFixture struct {
	ledger   *Ledger
	clock    *testClock
	vault    *DataVault
	registry *PostRegistry
	fileID   FileID
}

func newRegistryFixture(t *testing.T) *registryFixture {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	ledger := NewLedger(WithClock(clock.Now))
	vault := NewDataVault(ledger, owner)
	registry := NewPostRegistry(ledger, vault)
	require.NoError(t, vault.AuthorizeGrantor(Call{Caller: owner}, registry.Address()))

	fileID := DeriveFileID([]byte("post1"))
	require.NoError(t, vault.RegisterFile(Call{Caller: owner}, fileID, "ipfs-cid-1", "meta-cid-1"))

	return &registryFixture{ledger: ledger, clock: clock, vault: vault, registry: registry, fileID: fileID}
}

func TestCreatePostReferencingVaultFile(t *testing.T) {
	f := newRegistryFixture(t)

	id, err := f.registry.CreatePost(Call{Caller: owner}, f.fileID, "desc", big.NewInt(0), false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	post := f.registry.Posts(1)
	assert.True(t, post.Exists)
	assert.Equal(t, f.fileID, post.FileID)
	assert.Equal(t, owner, post.Owner)

	events := f.ledger.Events()
	created, ok := events[len(events)-1].(PostCreated)
	require.True(t, ok)
	assert.Equal(t, uint64(1), created.PostID)
	assert.Equal(t, owner, created.Owner)
}

func TestCreatePostRequiresFileOwnership(t *testing.T) {
	f := newRegistryFixture(t)

	_, err := f.registry.CreatePost(Call{Caller: alice}, f.fileID, "desc", big.NewInt(0), false)
	require.ErrorIs(t, err, ErrNotFileOwner)

	_, err = f.registry.CreatePost(Call{Caller: owner}, DeriveFileID([]byte("missing")), "desc", big.NewInt(0), false)
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestSequentialPostIDs(t *testing.T) {
	f := newRegistryFixture(t)

	assert.Equal(t, uint64(1), f.registry.NextPostID())
	for want := uint64(1); want <= 3; want++ {
		id, err := f.registry.CreatePost(Call{Caller: owner}, f.fileID, "d", nil, true)
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
	assert.Equal(t, uint64(4), f.registry.NextPostID())
}

func TestUpdatePostContentOwnerOnly(t *testing.T) {
	f := newRegistryFixture(t)
	_, err := f.registry.CreatePost(Call{Caller: owner}, f.fileID, "desc", big.NewInt(0), false)
	require.NoError(t, err)

	fileID2 := DeriveFileID([]byte("post2"))
	require.NoError(t, f.vault.RegisterFile(Call{Caller: owner}, fileID2, "ipfs-cid-2", "meta2"))

	err = f.registry.UpdatePostContent(Call{Caller: alice}, 1, fileID2)
	require.ErrorIs(t, err, ErrNotPostOwner)
	assert.Equal(t, "execution reverted: Caller is not the owner", err.Error())

	require.NoError(t, f.registry.UpdatePostContent(Call{Caller: owner}, 1, fileID2))
	post := f.registry.Posts(1)
	assert.Equal(t, fileID2, post.FileID)

	events := f.ledger.Events()
	updated, ok := events[len(events)-1].(PostUpdated)
	require.True(t, ok)
	assert.Equal(t, fileID2, updated.NewFileID)
}

func TestUpdatePostContentChecksNewFileOwnership(t *testing.T) {
	f := newRegistryFixture(t)
	_, err := f.registry.CreatePost(Call{Caller: owner}, f.fileID, "desc", nil, false)
	require.NoError(t, err)

	aliceFile := DeriveFileID([]byte("alice-file"))
	require.NoError(t, f.vault.RegisterFile(Call{Caller: alice}, aliceFile, "p", "m"))

	err = f.registry.UpdatePostContent(Call{Caller: owner}, 1, aliceFile)
	require.ErrorIs(t, err, ErrNotFileOwner)

	err = f.registry.UpdatePostContent(Call{Caller: owner}, 1, DeriveFileID([]byte("missing")))
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestSubscribeExactFee(t *testing.T) {
	f := newRegistryFixture(t)
	require.NoError(t, f.registry.SetSubscriptionDetails(Call{Caller: owner}, Ether(1), 100))
	f.ledger.Fund(alice, Ether(10))

	half := new(big.Int).Div(Ether(1), big.NewInt(2))
	err := f.registry.Subscribe(Call{Caller: alice, Value: half}, owner)
	require.ErrorIs(t, err, ErrIncorrectFee)
	assert.Equal(t, "execution reverted: Incorrect subscription fee paid", err.Error())
	assert.False(t, f.registry.IsSubscribed(owner, alice))

	// Overpayment is rejected too; exact match only.
	err = f.registry.Subscribe(Call{Caller: alice, Value: Ether(2)}, owner)
	require.ErrorIs(t, err, ErrIncorrectFee)

	require.NoError(t, f.registry.Subscribe(Call{Caller: alice, Value: Ether(1)}, owner))
	assert.True(t, f.registry.IsSubscribed(owner, alice))

	// Fee forwarded to the creator.
	assert.Equal(t, Ether(1), f.ledger.BalanceOf(owner))
	assert.Equal(t, Ether(9), f.ledger.BalanceOf(alice))
}

func TestSubscribeInsufficientFunds(t *testing.T) {
	f := newRegistryFixture(t)
	require.NoError(t, f.registry.SetSubscriptionDetails(Call{Caller: owner}, Ether(1), 100))

	err := f.registry.Subscribe(Call{Caller: alice, Value: Ether(1)}, owner)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.False(t, f.registry.IsSubscribed(owner, alice))
}

func TestSubscriptionExpiry(t *testing.T) {
	f := newRegistryFixture(t)
	require.NoError(t, f.registry.SetSubscriptionDetails(Call{Caller: owner}, Ether(1), 100))
	f.ledger.Fund(alice, Ether(1))

	require.NoError(t, f.registry.Subscribe(Call{Caller: alice, Value: Ether(1)}, owner))
	assert.True(t, f.registry.IsSubscribed(owner, alice))

	f.clock.Advance(99 * time.Second)
	assert.True(t, f.registry.IsSubscribed(owner, alice))

	f.clock.Advance(time.Second)
	assert.False(t, f.registry.IsSubscribed(owner, alice))
}

func TestResubscribeOverwritesExpiry(t *testing.T) {
	f := newRegistryFixture(t)
	require.NoError(t, f.registry.SetSubscriptionDetails(Call{Caller: owner}, Ether(1), 100))
	f.ledger.Fund(alice, Ether(2))

	require.NoError(t, f.registry.Subscribe(Call{Caller: alice, Value: Ether(1)}, owner))
	f.clock.Advance(50 * time.Second)
	require.NoError(t, f.registry.Subscribe(Call{Caller: alice, Value: Ether(1)}, owner))

	// No stacking: expiry is now+100, not now+150.
	f.clock.Advance(99 * time.Second)
	assert.True(t, f.registry.IsSubscribed(owner, alice))
	f.clock.Advance(time.Second)
	assert.False(t, f.registry.IsSubscribed(owner, alice))
}

func TestCanUserAccessPostPaths(t *testing.T) {
	f := newRegistryFixture(t)

	privFile := DeriveFileID([]byte("private"))
	require.NoError(t, f.vault.RegisterFile(Call{Caller: owner}, privFile, "ipfs-priv", "meta-priv"))
	require.NoError(t, f.registry.SetSubscriptionDetails(Call{Caller: owner}, big.NewInt(1), 100))

	postID, err := f.registry.CreatePost(Call{Caller: owner}, privFile, "desc", big.NewInt(5), false)
	require.NoError(t, err)

	// Owner always passes.
	assert.True(t, f.registry.CanUserAccessPost(postID, owner))
	// Priced, non-public, no subscription, no grant: denied.
	assert.False(t, f.registry.CanUserAccessPost(postID, alice))

	f.ledger.Fund(alice, big.NewInt(1))
	require.NoError(t, f.registry.Subscribe(Call{Caller: alice, Value: big.NewInt(1)}, owner))
	assert.True(t, f.registry.CanUserAccessPost(postID, alice))

	// A direct vault grant is enough on its own.
	require.NoError(t, f.vault.GrantAccess(Call{Caller: owner}, privFile, bob, "enckeybob"))
	assert.True(t, f.registry.CanUserAccessPost(postID, bob))

	// Missing post: false, not an error.
	assert.False(t, f.registry.CanUserAccessPost(999, owner))
}

func TestPublicPostAccessibleToAll(t *testing.T) {
	f := newRegistryFixture(t)
	postID, err := f.registry.CreatePost(Call{Caller: owner}, f.fileID, "pub", Ether(5), true)
	require.NoError(t, err)
	assert.True(t, f.registry.CanUserAccessPost(postID, alice))
}

func TestFreePostAccessibleToAll(t *testing.T) {
	f := newRegistryFixture(t)

	// price 0, not public: free posts are open to everyone.
	postID, err := f.registry.CreatePost(Call{Caller: owner}, f.fileID, "free", big.NewInt(0), false)
	require.NoError(t, err)
	assert.True(t, f.registry.CanUserAccessPost(postID, alice))
	assert.True(t, f.registry.CanUserAccessPost(postID, bob))
}

func TestSubscriptionExpiryRemovesPostAccess(t *testing.T) {
	f := newRegistryFixture(t)
	require.NoError(t, f.registry.SetSubscriptionDetails(Call{Caller: owner}, Ether(1), 100))
	postID, err := f.registry.CreatePost(Call{Caller: owner}, f.fileID, "paid", Ether(1), false)
	require.NoError(t, err)

	f.ledger.Fund(alice, Ether(1))
	require.NoError(t, f.registry.Subscribe(Call{Caller: alice, Value: Ether(1)}, owner))
	assert.True(t, f.registry.CanUserAccessPost(postID, alice))

	f.clock.Advance(101 * time.Second)
	assert.False(t, f.registry.CanUserAccessPost(postID, alice))
}

func TestPayAndGrantAccess(t *testing.T) {
	f := newRegistryFixture(t)
	postID, err := f.registry.CreatePost(Call{Caller: owner}, f.fileID, "ppv", Ether(2), false)
	require.NoError(t, err)
	f.ledger.Fund(alice, Ether(3))

	require.NoError(t, f.registry.PayAndGrantAccess(Call{Caller: alice, Value: Ether(2)}, postID, "buyer-key"))

	// Permanent vault grant plus immediate payment to the owner.
	assert.True(t, f.vault.CheckAccess(f.fileID, alice))
	key, err := f.vault.GetEncryptedKey(f.fileID, alice)
	require.NoError(t, err)
	assert.Equal(t, "buyer-key", key)
	assert.True(t, f.registry.CanUserAccessPost(postID, alice))
	assert.Equal(t, Ether(2), f.ledger.BalanceOf(owner))
	assert.Equal(t, Ether(1), f.ledger.BalanceOf(alice))

	events := f.ledger.Events()
	purchased, ok := events[len(events)-1].(PostPurchased)
	require.True(t, ok)
	assert.Equal(t, alice, purchased.Buyer)
	granted, ok := events[len(events)-2].(AccessGranted)
	require.True(t, ok)
	assert.Equal(t, "buyer-key", granted.EncryptedKey)
}

func TestPayAndGrantAccessExactPrice(t *testing.T) {
	f := newRegistryFixture(t)
	postID, err := f.registry.CreatePost(Call{Caller: owner}, f.fileID, "ppv", Ether(2), false)
	require.NoError(t, err)
	f.ledger.Fund(alice, Ether(5))

	err = f.registry.PayAndGrantAccess(Call{Caller: alice, Value: Ether(1)}, postID, "k")
	require.ErrorIs(t, err, ErrIncorrectPayment)
	err = f.registry.PayAndGrantAccess(Call{Caller: alice, Value: Ether(3)}, postID, "k")
	require.ErrorIs(t, err, ErrIncorrectPayment)

	assert.False(t, f.vault.CheckAccess(f.fileID, alice))
	assert.Equal(t, Ether(5), f.ledger.BalanceOf(alice))
}

func TestPayAndGrantAccessMissingPost(t *testing.T) {
	f := newRegistryFixture(t)
	err := f.registry.PayAndGrantAccess(Call{Caller: alice}, 42, "k")
	require.ErrorIs(t, err, ErrPostNotFound)
}

func TestPayAndGrantAccessRevertsAtomically(t *testing.T) {
	f := newRegistryFixture(t)
	postID, err := f.registry.CreatePost(Call{Caller: owner}, f.fileID, "ppv", Ether(2), false)
	require.NoError(t, err)

	// Unfunded buyer: no grant, no transfer, no events.
	before := len(f.ledger.Events())
	err = f.registry.PayAndGrantAccess(Call{Caller: alice, Value: Ether(2)}, postID, "k")
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.False(t, f.vault.CheckAccess(f.fileID, alice))
	assert.Len(t, f.ledger.Events(), before)

	// Registry dropped from the allowlist: the delegated grant fails
	// and the payment must not move.
	f.ledger.Fund(alice, Ether(2))
	require.NoError(t, f.vault.RevokeGrantor(Call{Caller: owner}, f.registry.Address()))
	err = f.registry.PayAndGrantAccess(Call{Caller: alice, Value: Ether(2)}, postID, "k")
	require.ErrorIs(t, err, ErrNotOwner)
	assert.False(t, f.vault.CheckAccess(f.fileID, alice))
	assert.Equal(t, Ether(2), f.ledger.BalanceOf(alice))
	assert.Equal(t, big.NewInt(0), f.ledger.BalanceOf(owner))
}

func TestFreePostEndToEnd(t *testing.T) {
	f := newRegistryFixture(t)

	// Owner registers file F and creates post P with price 0. Any
	// stranger can see it immediately.
	postID, err := f.registry.CreatePost(Call{Caller: owner}, f.fileID, "free for all", big.NewInt(0), false)
	require.NoError(t, err)

	stranger := Address("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	assert.True(t, f.registry.CanUserAccessPost(postID, stranger))
}

func TestSubscriptionEndToEnd(t *testing.T) {
	f := newRegistryFixture(t)

	require.NoError(t, f.registry.SetSubscriptionDetails(Call{Caller: owner}, Ether(1), 100))
	postID, err := f.registry.CreatePost(Call{Caller: owner}, f.fileID, "premium", Ether(1), false)
	require.NoError(t, err)

	assert.False(t, f.registry.CanUserAccessPost(postID, alice))

	f.ledger.Fund(alice, Ether(1))
	require.NoError(t, f.registry.Subscribe(Call{Caller: alice, Value: Ether(1)}, owner))
	assert.True(t, f.registry.CanUserAccessPost(postID, alice))
}

func TestPostPriceStored(t *testing.T) {
	f := newRegistryFixture(t)
	_, err := f.registry.CreatePost(Call{Caller: owner}, f.fileID, "premium post", Ether(5), false)
	require.NoError(t, err)

	post := f.registry.Posts(1)
	assert.Equal(t, Ether(5), post.Price)
}

func TestNegativePriceRejected(t *testing.T) {
	f := newRegistryFixture(t)
	_, err := f.registry.CreatePost(Call{Caller: owner}, f.fileID, "bad", big.NewInt(-1), false)
	require.ErrorIs(t, err, ErrNegativePrice)
}

func TestGetPostMissing(t *testing.T) {
	f := newRegistryFixture(t)
	_, err := f.registry.GetPost(7)
	require.ErrorIs(t, err, ErrPostNotFound)

	post := f.registry.Posts(7)
	assert.False(t, post.Exists)
}

func TestSubscribeWithoutTerms(t *testing.T) {
	f := newRegistryFixture(t)

	// Unset terms read as zero fee and zero duration: paying zero
	// succeeds but the subscription expires immediately.
	require.NoError(t, f.registry.Subscribe(Call{Caller: alice}, bob))
	assert.False(t, f.registry.IsSubscribed(bob, alice))
}
