package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer   = 1000
	ErrInvalidParams    = 1001
	ErrNotFound         = 1002
	ErrUnauthorized     = 1003
	ErrForbidden        = 1004
	ErrConflict         = 1005
	ErrTooManyRequests  = 1006
	ErrBadRequest       = 1007
	ErrServiceUnavail   = 1008
	ErrValidationFailed = 1009

	// Auth errors (2000-2999)
	ErrAuthMissingAddress   = 2000
	ErrAuthNonceNotFound    = 2001
	ErrAuthInvalidSignature = 2002
	ErrAuthInvalidToken     = 2003
	ErrAuthTokenExpired     = 2004
	ErrAuthAddressMismatch  = 2005

	// User errors (3000-3999)
	ErrUserNotFound     = 3000
	ErrUserExists       = 3001
	ErrUserInvalidInput = 3002
	ErrUserNameTaken    = 3003

	// Post errors (4000-4999)
	ErrPostNotFound     = 4000
	ErrPostAccessDenied = 4001
	ErrPostInvalidInput = 4002

	// Message errors (5000-5999)
	ErrMessageNotFound    = 5000
	ErrMessageDecryption  = 5001
	ErrMessageInvalidBody = 5002

	// Media errors (6000-6999)
	ErrMediaUploadFailed = 6000
	ErrMediaTooLarge     = 6001
	ErrMediaInvalidType  = 6002

	// Chain errors (7000-7999)
	ErrChainReverted     = 7000
	ErrChainInvalidInput = 7001
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	// Common errors
	ErrInternalServer:   {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:    {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:         {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrUnauthorized:     {ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	ErrForbidden:        {ErrForbidden, http.StatusForbidden, "Forbidden"},
	ErrConflict:         {ErrConflict, http.StatusConflict, "Resource conflict"},
	ErrTooManyRequests:  {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:       {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail:   {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},
	ErrValidationFailed: {ErrValidationFailed, http.StatusBadRequest, "Validation failed"},

	// Auth errors
	ErrAuthMissingAddress:   {ErrAuthMissingAddress, http.StatusBadRequest, "Missing wallet address"},
	ErrAuthNonceNotFound:    {ErrAuthNonceNotFound, http.StatusBadRequest, "Nonce not found. Request a new nonce"},
	ErrAuthInvalidSignature: {ErrAuthInvalidSignature, http.StatusUnauthorized, "Invalid signature"},
	ErrAuthInvalidToken:     {ErrAuthInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
	ErrAuthTokenExpired:     {ErrAuthTokenExpired, http.StatusUnauthorized, "Token expired"},
	ErrAuthAddressMismatch:  {ErrAuthAddressMismatch, http.StatusUnauthorized, "Signature does not match wallet address"},

	// User errors
	ErrUserNotFound:     {ErrUserNotFound, http.StatusNotFound, "User not found"},
	ErrUserExists:       {ErrUserExists, http.StatusConflict, "User already exists"},
	ErrUserInvalidInput: {ErrUserInvalidInput, http.StatusBadRequest, "Invalid user input"},
	ErrUserNameTaken:    {ErrUserNameTaken, http.StatusConflict, "Name already taken"},

	// Post errors
	ErrPostNotFound:     {ErrPostNotFound, http.StatusNotFound, "Post not found"},
	ErrPostAccessDenied: {ErrPostAccessDenied, http.StatusForbidden, "No access to this post"},
	ErrPostInvalidInput: {ErrPostInvalidInput, http.StatusBadRequest, "Invalid post input"},

	// Message errors
	ErrMessageNotFound:    {ErrMessageNotFound, http.StatusNotFound, "Message not found"},
	ErrMessageDecryption:  {ErrMessageDecryption, http.StatusInternalServerError, "Message decryption failed"},
	ErrMessageInvalidBody: {ErrMessageInvalidBody, http.StatusBadRequest, "Invalid message body"},

	// Media errors
	ErrMediaUploadFailed: {ErrMediaUploadFailed, http.StatusInternalServerError, "Media upload failed"},
	ErrMediaTooLarge:     {ErrMediaTooLarge, http.StatusBadRequest, "Media file exceeds size limit"},
	ErrMediaInvalidType:  {ErrMediaInvalidType, http.StatusBadRequest, "Unsupported media type"},

	// Chain errors
	ErrChainReverted:     {ErrChainReverted, http.StatusBadRequest, "Transaction reverted"},
	ErrChainInvalidInput: {ErrChainInvalidInput, http.StatusBadRequest, "Invalid chain parameters"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsSuccess checks if the code represents success
func IsSuccess(code int) bool {
	return code == Success
}

// IsClientError checks if the code represents a client error (4xx)
func IsClientError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}

// IsServerError checks if the code represents a server error (5xx)
func IsServerError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 500
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
