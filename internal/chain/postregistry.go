package chain

import "math/big"

// PostRegistry layers post-level visibility on top of the vault's
// file-level grants: public and free posts, owner access, per-creator
// subscriptions, and one-off pay-per-view purchases that settle into
// permanent vault grants.
//
// The registry is deployed with the vault reference and its own
// contract address; the vault deployer is expected to allowlist that
// address as a grantor before pay-per-view flows are opened.
type PostRegistry struct {
	ledger *Ledger
	vault  *DataVault
	addr   Address

	nextPostID uint64
	posts      map[uint64]*postRecord
	terms      map[Address]SubscriptionTerms
	subs       map[Address]map[Address]int64 // creator -> subscriber -> expiresAt
}

type postRecord struct {
	owner       Address
	fileID      FileID
	description string
	price       *big.Int
	isPublic    bool
	createdAt   int64
	updatedAt   int64
}

// Post is the public view of a post record. A missing id yields the
// zero value with Exists false, like reading an unset mapping slot.
type Post struct {
	ID          uint64
	Owner       Address
	FileID      FileID
	Description string
	Price       *big.Int
	IsPublic    bool
	Exists      bool
	CreatedAt   int64
	UpdatedAt   int64
}

// SubscriptionTerms are a creator's published subscription offer:
// a flat fee buys duration seconds of catalog access.
type SubscriptionTerms struct {
	Fee      *big.Int
	Duration int64
}

// NewPostRegistry deploys the registry against an existing vault.
func NewPostRegistry(ledger *Ledger, vault *DataVault) *PostRegistry {
	return &PostRegistry{
		ledger:     ledger,
		vault:      vault,
		addr:       ledger.NewContractAddress("PostRegistry"),
		nextPostID: 1,
		posts:      make(map[uint64]*postRecord),
		terms:      make(map[Address]SubscriptionTerms),
		subs:       make(map[Address]map[Address]int64),
	}
}

// Address returns the registry's contract address. This is the
// identity the vault sees on delegated grant calls.
func (r *PostRegistry) Address() Address {
	return r.addr
}

// CreatePost allocates the next sequential post id. The caller must
// own the referenced vault file, keeping the cross-contract ownership
// invariant intact from the moment of creation.
func (r *PostRegistry) CreatePost(call Call, fileID FileID, description string, price *big.Int, isPublic bool) (uint64, error) {
	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()

	owner, ok := r.vault.fileOwner(fileID)
	if !ok {
		return 0, ErrFileNotFound
	}
	if owner != call.Caller {
		return 0, ErrNotFileOwner
	}
	if price == nil {
		price = new(big.Int)
	}
	if price.Sign() < 0 {
		return 0, ErrNegativePrice
	}

	id := r.nextPostID
	r.nextPostID++

	now := r.ledger.timestamp()
	r.posts[id] = &postRecord{
		owner:       call.Caller,
		fileID:      fileID,
		description: description,
		price:       new(big.Int).Set(price),
		isPublic:    isPublic,
		createdAt:   now,
		updatedAt:   now,
	}
	r.ledger.emit(PostCreated{
		PostID:   id,
		Owner:    call.Caller,
		FileID:   fileID,
		Price:    new(big.Int).Set(price),
		IsPublic: isPublic,
	})
	return id, nil
}

// UpdatePostContent repoints a post at a new vault file. Post owner
// only, and the new file must also be owned by the caller.
func (r *PostRegistry) UpdatePostContent(call Call, postID uint64, newFileID FileID) error {
	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()

	post, ok := r.posts[postID]
	if !ok {
		return ErrPostNotFound
	}
	if call.Caller != post.owner {
		return ErrNotPostOwner
	}
	owner, ok := r.vault.fileOwner(newFileID)
	if !ok {
		return ErrFileNotFound
	}
	if owner != call.Caller {
		return ErrNotFileOwner
	}

	post.fileID = newFileID
	post.updatedAt = r.ledger.timestamp()
	r.ledger.emit(PostUpdated{PostID: postID, NewFileID: newFileID, UpdatedAt: post.updatedAt})
	return nil
}

// SetSubscriptionDetails publishes or overwrites the caller's
// subscription terms. Anyone can define terms for themselves.
func (r *PostRegistry) SetSubscriptionDetails(call Call, fee *big.Int, duration int64) error {
	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()

	if fee == nil {
		fee = new(big.Int)
	}
	if fee.Sign() < 0 {
		return ErrNegativePrice
	}

	r.terms[call.Caller] = SubscriptionTerms{Fee: new(big.Int).Set(fee), Duration: duration}
	r.ledger.emit(SubscriptionDetailsSet{Creator: call.Caller, Fee: new(big.Int).Set(fee), Duration: duration})
	return nil
}

// GetSubscriptionDetails returns a creator's terms; unset terms read
// as zero fee and zero duration.
func (r *PostRegistry) GetSubscriptionDetails(creator Address) SubscriptionTerms {
	r.ledger.mu.RLock()
	defer r.ledger.mu.RUnlock()

	t, ok := r.terms[creator]
	if !ok {
		return SubscriptionTerms{Fee: new(big.Int)}
	}
	return SubscriptionTerms{Fee: new(big.Int).Set(t.Fee), Duration: t.Duration}
}

// Subscribe pays a creator's exact fee and sets the caller's expiry
// to now + duration, overwriting any prior expiry rather than
// stacking. The fee moves to the creator in the same transaction.
func (r *PostRegistry) Subscribe(call Call, creator Address) error {
	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()

	terms := r.terms[creator] // zero terms if unset
	fee := terms.Fee
	if fee == nil {
		fee = new(big.Int)
	}
	if call.value().Cmp(fee) != 0 {
		return ErrIncorrectFee
	}
	if err := r.ledger.requireFunds(call.Caller, fee); err != nil {
		return err
	}

	r.ledger.transfer(call.Caller, creator, fee)

	expiresAt := r.ledger.timestamp() + terms.Duration
	if r.subs[creator] == nil {
		r.subs[creator] = make(map[Address]int64)
	}
	r.subs[creator][call.Caller] = expiresAt
	r.ledger.emit(Subscribed{Creator: creator, Subscriber: call.Caller, ExpiresAt: expiresAt})
	return nil
}

// IsSubscribed reports whether the subscription is active: current
// time strictly before the recorded expiry.
func (r *PostRegistry) IsSubscribed(creator, subscriber Address) bool {
	r.ledger.mu.RLock()
	defer r.ledger.mu.RUnlock()
	return r.isSubscribed(creator, subscriber)
}

func (r *PostRegistry) isSubscribed(creator, subscriber Address) bool {
	expiresAt, ok := r.subs[creator][subscriber]
	return ok && r.ledger.timestamp() < expiresAt
}

// CanUserAccessPost is the unified access decision. Evaluation order,
// short-circuiting on the first hit:
//
//	missing post        -> false
//	public post         -> true
//	post owner          -> true
//	free post (price 0) -> true
//	active subscription -> true
//	vault grant         -> true
//	otherwise           -> false
//
// Free posts are open to everyone regardless of the public flag,
// matching the API's isPublic || price == 0 convention.
func (r *PostRegistry) CanUserAccessPost(postID uint64, addr Address) bool {
	r.ledger.mu.RLock()
	defer r.ledger.mu.RUnlock()

	post, ok := r.posts[postID]
	if !ok {
		return false
	}
	if post.isPublic {
		return true
	}
	if addr == post.owner {
		return true
	}
	if post.price.Sign() == 0 {
		return true
	}
	if r.isSubscribed(post.owner, addr) {
		return true
	}
	return r.vault.checkAccess(post.fileID, addr)
}

// PayAndGrantAccess settles a one-off pay-per-view purchase: the
// caller pays the exact post price, the vault records a permanent
// grant with the supplied encrypted key, and the payment forwards to
// the post owner. Every precondition is checked before any effect, so
// a failing inner grant or transfer can never leave a dangling grant
// or a one-sided payment.
func (r *PostRegistry) PayAndGrantAccess(call Call, postID uint64, encryptedKey string) error {
	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()

	post, ok := r.posts[postID]
	if !ok {
		return ErrPostNotFound
	}
	if call.value().Cmp(post.price) != 0 {
		return ErrIncorrectPayment
	}
	if err := r.ledger.requireFunds(call.Caller, post.price); err != nil {
		return err
	}

	// Delegated grant: the vault sees the registry's own address as
	// the caller and checks it against the grantor allowlist.
	if err := r.vault.grantAccess(r.addr, post.fileID, call.Caller, encryptedKey); err != nil {
		return err
	}

	r.ledger.transfer(call.Caller, post.owner, post.price)
	r.ledger.emit(PostPurchased{PostID: postID, Buyer: call.Caller, Price: new(big.Int).Set(post.price)})
	return nil
}

// GetPost returns the post or ErrPostNotFound.
func (r *PostRegistry) GetPost(postID uint64) (Post, error) {
	r.ledger.mu.RLock()
	defer r.ledger.mu.RUnlock()

	post, ok := r.posts[postID]
	if !ok {
		return Post{}, ErrPostNotFound
	}
	return r.toPost(postID, post), nil
}

// Posts reads the post mapping directly: a missing id returns the
// zero value with Exists false instead of an error.
func (r *PostRegistry) Posts(postID uint64) Post {
	r.ledger.mu.RLock()
	defer r.ledger.mu.RUnlock()

	post, ok := r.posts[postID]
	if !ok {
		return Post{Price: new(big.Int)}
	}
	return r.toPost(postID, post)
}

// NextPostID returns the id the next CreatePost will assign. Ids
// start at 1 and are never reused.
func (r *PostRegistry) NextPostID() uint64 {
	r.ledger.mu.RLock()
	defer r.ledger.mu.RUnlock()
	return r.nextPostID
}

func (r *PostRegistry) toPost(id uint64, rec *postRecord) Post {
	return Post{
		ID:          id,
		Owner:       rec.owner,
		FileID:      rec.fileID,
		Description: rec.description,
		Price:       new(big.Int).Set(rec.price),
		IsPublic:    rec.isPublic,
		Exists:      true,
		CreatedAt:   rec.createdAt,
		UpdatedAt:   rec.updatedAt,
	}
}
