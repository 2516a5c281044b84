package biz

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/safesocial/safesocial-backend/internal/auth"
	"github.com/safesocial/safesocial-backend/internal/chain"
	apperrors "github.com/safesocial/safesocial-backend/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memNonceRepo struct {
	mu     sync.Mutex
	nonces map[string]string
}

func newMemNonceRepo() *memNonceRepo {
	return &memNonceRepo{nonces: make(map[string]string)}
}

func (r *memNonceRepo) Create(_ context.Context, address string, _ time.Duration) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	nonce := hex.EncodeToString(b)
	r.nonces[address] = nonce
	return nonce, nil
}

func (r *memNonceRepo) Get(_ context.Context, address string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	nonce, ok := r.nonces[address]
	if !ok {
		return "", ErrNonceNotFound
	}
	return nonce, nil
}

func (r *memNonceRepo) Delete(_ context.Context, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.nonces, address)
	return nil
}

type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*User)}
}

func (r *memUserRepo) GetOrCreateByWallet(_ context.Context, walletAddress string) (*User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[walletAddress]; ok {
		return u, false, nil
	}
	r.seq++
	u := &User{ID: hex.EncodeToString([]byte{byte(r.seq)}), WalletAddress: walletAddress}
	r.users[walletAddress] = u
	return u, true, nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.New("user not found")
}

type wallet struct {
	pub     ed25519.PublicKey
	priv    ed25519.PrivateKey
	address string
}

func newWallet(t *testing.T) wallet {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return wallet{pub: pub, priv: priv, address: string(chain.AddressFromPubKey(pub))}
}

func newAuthFixture() (*AuthUseCase, *memNonceRepo, *memUserRepo) {
	nonces := newMemNonceRepo()
	users := newMemUserRepo()
	jwtManager := auth.NewJWTManager("test-secret", "safesocial-test", time.Hour)
	uc := NewAuthUseCase(users, nonces, jwtManager, 5*time.Minute)
	return uc, nonces, users
}

func TestLoginWithSignedNonce(t *testing.T) {
	uc, _, _ := newAuthFixture()
	w := newWallet(t)
	ctx := context.Background()

	nonce, err := uc.GetNonce(ctx, w.address)
	require.NoError(t, err)
	require.NotEmpty(t, nonce)

	sig := ed25519.Sign(w.priv, []byte(nonce))
	result, err := uc.Login(ctx, w.address, hex.EncodeToString(w.pub), hex.EncodeToString(sig))
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.True(t, result.Onboarding)
	assert.Equal(t, w.address, result.User.WalletAddress)
}

func TestLoginSecondTimeIsNotOnboarding(t *testing.T) {
	uc, _, _ := newAuthFixture()
	w := newWallet(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		nonce, err := uc.GetNonce(ctx, w.address)
		require.NoError(t, err)
		sig := ed25519.Sign(w.priv, []byte(nonce))
		result, err := uc.Login(ctx, w.address, hex.EncodeToString(w.pub), hex.EncodeToString(sig))
		require.NoError(t, err)
		assert.Equal(t, i == 0, result.Onboarding)
	}
}

func TestLoginNonceIsSingleUse(t *testing.T) {
	uc, _, _ := newAuthFixture()
	w := newWallet(t)
	ctx := context.Background()

	nonce, err := uc.GetNonce(ctx, w.address)
	require.NoError(t, err)
	sig := ed25519.Sign(w.priv, []byte(nonce))

	_, err = uc.Login(ctx, w.address, hex.EncodeToString(w.pub), hex.EncodeToString(sig))
	require.NoError(t, err)

	// Replaying the same signed nonce must fail.
	_, err = uc.Login(ctx, w.address, hex.EncodeToString(w.pub), hex.EncodeToString(sig))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrAuthNonceNotFound, apperrors.ExtractCode(err))
}

func TestLoginBadSignatureConsumesNonce(t *testing.T) {
	uc, _, _ := newAuthFixture()
	w := newWallet(t)
	ctx := context.Background()

	nonce, err := uc.GetNonce(ctx, w.address)
	require.NoError(t, err)

	badSig := ed25519.Sign(w.priv, []byte("wrong message"))
	_, err = uc.Login(ctx, w.address, hex.EncodeToString(w.pub), hex.EncodeToString(badSig))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrAuthInvalidSignature, apperrors.ExtractCode(err))

	// A failed attempt burns the nonce too.
	goodSig := ed25519.Sign(w.priv, []byte(nonce))
	_, err = uc.Login(ctx, w.address, hex.EncodeToString(w.pub), hex.EncodeToString(goodSig))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrAuthNonceNotFound, apperrors.ExtractCode(err))
}

func TestLoginRejectsForeignPublicKey(t *testing.T) {
	uc, _, _ := newAuthFixture()
	victim := newWallet(t)
	attacker := newWallet(t)
	ctx := context.Background()

	// Attacker signs the victim's nonce with their own key.
	nonce, err := uc.GetNonce(ctx, victim.address)
	require.NoError(t, err)
	sig := ed25519.Sign(attacker.priv, []byte(nonce))

	_, err = uc.Login(ctx, victim.address, hex.EncodeToString(attacker.pub), hex.EncodeToString(sig))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrAuthAddressMismatch, apperrors.ExtractCode(err))
}

func TestLoginRejectsMalformedInput(t *testing.T) {
	uc, _, _ := newAuthFixture()
	w := newWallet(t)
	ctx := context.Background()

	_, err := uc.GetNonce(ctx, w.address)
	require.NoError(t, err)

	_, err = uc.Login(ctx, w.address, "not-hex", "also-not-hex")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrAuthInvalidSignature, apperrors.ExtractCode(err))
}

func TestGetNonceRejectsInvalidAddress(t *testing.T) {
	uc, _, _ := newAuthFixture()

	_, err := uc.GetNonce(context.Background(), "not-an-address")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrAuthMissingAddress, apperrors.ExtractCode(err))
}

func TestLoginWithoutNonce(t *testing.T) {
	uc, _, _ := newAuthFixture()
	w := newWallet(t)

	sig := ed25519.Sign(w.priv, []byte("anything"))
	_, err := uc.Login(context.Background(), w.address, hex.EncodeToString(w.pub), hex.EncodeToString(sig))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrAuthNonceNotFound, apperrors.ExtractCode(err))
}
