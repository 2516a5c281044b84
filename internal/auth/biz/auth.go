package biz

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"time"

	"github.com/safesocial/safesocial-backend/internal/auth"
	"github.com/safesocial/safesocial-backend/internal/chain"
	apperrors "github.com/safesocial/safesocial-backend/internal/pkg/errors"
)

// User is the identity view the auth flow needs.
type User struct {
	ID            string
	WalletAddress string
	Name          string
}

// UserRepo resolves wallet addresses to user records, creating them
// on first login.
type UserRepo interface {
	GetOrCreateByWallet(ctx context.Context, walletAddress string) (*User, bool, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// AuthUseCase implements nonce-based wallet login. The client asks for
// a nonce, signs it with the wallet's ed25519 key, and exchanges the
// signature for a JWT. Nonces are single-use: consumed on the first
// login attempt against them.
type AuthUseCase struct {
	users    UserRepo
	nonces   NonceRepo
	jwt      *auth.JWTManager
	nonceTTL time.Duration
}

// NewAuthUseCase creates the use case.
func NewAuthUseCase(users UserRepo, nonces NonceRepo, jwt *auth.JWTManager, nonceTTL time.Duration) *AuthUseCase {
	return &AuthUseCase{
		users:    users,
		nonces:   nonces,
		jwt:      jwt,
		nonceTTL: nonceTTL,
	}
}

// LoginResult is returned on a successful signature exchange.
type LoginResult struct {
	Token      string
	User       *User
	Onboarding bool
}

// GetNonce issues a fresh login nonce for the address.
func (uc *AuthUseCase) GetNonce(ctx context.Context, address string) (string, error) {
	if _, err := chain.ParseAddress(address); err != nil {
		return "", apperrors.New(apperrors.ErrAuthMissingAddress, err.Error())
	}
	nonce, err := uc.nonces.Create(ctx, address, uc.nonceTTL)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return nonce, nil
}

// Login verifies the signed nonce and returns a token. The public key
// must both verify the signature and derive to the claimed wallet
// address; on a new wallet the user record is created and the token
// carries the onboarding flag.
func (uc *AuthUseCase) Login(ctx context.Context, address, publicKeyHex, signatureHex string) (*LoginResult, error) {
	addr, err := chain.ParseAddress(address)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrAuthMissingAddress, err.Error())
	}

	nonce, err := uc.nonces.Get(ctx, string(addr))
	if err != nil {
		if errors.Is(err, ErrNonceNotFound) {
			return nil, apperrors.New(apperrors.ErrAuthNonceNotFound)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	// One attempt per nonce, pass or fail.
	if err := uc.nonces.Delete(ctx, string(addr)); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return nil, apperrors.New(apperrors.ErrAuthInvalidSignature, "malformed public key")
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return nil, apperrors.New(apperrors.ErrAuthInvalidSignature, "malformed signature")
	}

	if !ed25519.Verify(ed25519.PublicKey(pub), []byte(nonce), sig) {
		return nil, apperrors.New(apperrors.ErrAuthInvalidSignature)
	}
	if chain.AddressFromPubKey(pub) != addr {
		return nil, apperrors.New(apperrors.ErrAuthAddressMismatch)
	}

	user, created, err := uc.users.GetOrCreateByWallet(ctx, string(addr))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	token, err := uc.jwt.GenerateToken(user.ID, user.WalletAddress, created)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	return &LoginResult{Token: token, User: user, Onboarding: created}, nil
}

// Me resolves the authenticated user id back to the user record.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUserNotFound)
	}
	return user, nil
}
