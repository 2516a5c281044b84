package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEveryCodeHasAMapping(t *testing.T) {
	codes := []int{
		ErrInternalServer, ErrInvalidParams, ErrNotFound, ErrUnauthorized,
		ErrForbidden, ErrConflict, ErrTooManyRequests, ErrBadRequest,
		ErrServiceUnavail, ErrValidationFailed,
		ErrAuthMissingAddress, ErrAuthNonceNotFound, ErrAuthInvalidSignature,
		ErrAuthInvalidToken, ErrAuthTokenExpired, ErrAuthAddressMismatch,
		ErrUserNotFound, ErrUserExists, ErrUserInvalidInput, ErrUserNameTaken,
		ErrPostNotFound, ErrPostAccessDenied, ErrPostInvalidInput,
		ErrMessageNotFound, ErrMessageDecryption, ErrMessageInvalidBody,
		ErrMediaUploadFailed, ErrMediaTooLarge, ErrMediaInvalidType,
		ErrChainReverted, ErrChainInvalidInput,
	}
	for _, code := range codes {
		c := GetCode(code)
		assert.Equal(t, code, c.Code)
		assert.NotEmpty(t, c.Message)
		assert.NotZero(t, c.Status)
	}
}

func TestValidationFailedIsClientError(t *testing.T) {
	err := New(ErrValidationFailed, "name is required")
	assert.Equal(t, ErrValidationFailed, ExtractCode(err))
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
	assert.True(t, IsClientError(ErrValidationFailed))
	assert.Equal(t, "name is required", GetDetails(err))
}

func TestWrapPreservesExistingCode(t *testing.T) {
	inner := New(ErrValidationFailed)
	wrapped := Wrap(inner, ErrInternalServer)
	assert.Equal(t, ErrValidationFailed, wrapped.Code)
}

func TestUnknownCodeFallsBack(t *testing.T) {
	c := GetCode(999999)
	assert.Equal(t, ErrInternalServer, c.Code)
	assert.Equal(t, ErrInternalServer, ExtractCode(errors.New("plain")))
}
