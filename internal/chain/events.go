package chain

import "math/big"

// Event is an entry in the ledger's append-only log. Events are only
// recorded by transactions that commit; a reverted call emits nothing.
type Event interface {
	Name() string
}

// FileRegistered is emitted once per file registration.
type FileRegistered struct {
	FileID         FileID
	Owner          Address
	StoragePointer string
	Metadata       string
}

func (FileRegistered) Name() string { return "FileRegistered" }

// AccessGranted is emitted on every grant, including re-grants that
// overwrite an earlier encrypted key.
type AccessGranted struct {
	FileID       FileID
	Recipient    Address
	EncryptedKey string
}

func (AccessGranted) Name() string { return "AccessGranted" }

// AccessRevoked is emitted when an owner removes a grant.
type AccessRevoked struct {
	FileID    FileID
	Recipient Address
}

func (AccessRevoked) Name() string { return "AccessRevoked" }

// Accessed records a successful GetFile call in the audit trail.
type Accessed struct {
	FileID    FileID
	Accessor  Address
	Timestamp int64
}

func (Accessed) Name() string { return "Accessed" }

// GrantorAuthorized is emitted when the vault deployer allowlists a
// delegate (normally the post registry's contract address).
type GrantorAuthorized struct {
	Grantor Address
}

func (GrantorAuthorized) Name() string { return "GrantorAuthorized" }

// GrantorRevoked is emitted when the deployer removes a delegate.
type GrantorRevoked struct {
	Grantor Address
}

func (GrantorRevoked) Name() string { return "GrantorRevoked" }

// PostCreated is emitted when a post is allocated.
type PostCreated struct {
	PostID   uint64
	Owner    Address
	FileID   FileID
	Price    *big.Int
	IsPublic bool
}

func (PostCreated) Name() string { return "PostCreated" }

// PostUpdated is emitted when a post's content reference changes.
type PostUpdated struct {
	PostID    uint64
	NewFileID FileID
	UpdatedAt int64
}

func (PostUpdated) Name() string { return "PostUpdated" }

// SubscriptionDetailsSet is emitted when a creator publishes terms.
type SubscriptionDetailsSet struct {
	Creator  Address
	Fee      *big.Int
	Duration int64
}

func (SubscriptionDetailsSet) Name() string { return "SubscriptionDetailsSet" }

// Subscribed is emitted on a successful subscription payment.
type Subscribed struct {
	Creator    Address
	Subscriber Address
	ExpiresAt  int64
}

func (Subscribed) Name() string { return "Subscribed" }

// PostPurchased is emitted on a successful pay-per-view payment. The
// matching AccessGranted event carries the encrypted key.
type PostPurchased struct {
	PostID uint64
	Buyer  Address
	Price  *big.Int
}

func (PostPurchased) Name() string { return "PostPurchased" }
