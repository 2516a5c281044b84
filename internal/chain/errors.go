package chain

// RevertError aborts a transaction. The reason strings mirror the
// deployed contracts exactly so off-chain clients can match on them.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	return "execution reverted: " + e.Reason
}

// Revert reasons. Authorization, state and payment failures all abort
// the whole transaction; there is no partial application.
var (
	ErrFileAlreadyExists = &RevertError{Reason: "File already exists"}
	ErrFileNotFound      = &RevertError{Reason: "File does not exist"}
	ErrNotOwner          = &RevertError{Reason: "Not owner"}
	ErrAccessDenied      = &RevertError{Reason: "Access denied"}
	ErrNotDeployer       = &RevertError{Reason: "Not deployer"}

	ErrPostNotFound     = &RevertError{Reason: "Post does not exist"}
	ErrNotPostOwner     = &RevertError{Reason: "Caller is not the owner"}
	ErrNotFileOwner     = &RevertError{Reason: "Caller does not own the file"}
	ErrIncorrectFee     = &RevertError{Reason: "Incorrect subscription fee paid"}
	ErrIncorrectPayment = &RevertError{Reason: "Incorrect payment amount"}
	ErrNegativePrice    = &RevertError{Reason: "Price cannot be negative"}

	ErrInsufficientFunds = &RevertError{Reason: "Insufficient balance"}
)

// IsRevert reports whether err is a transaction revert and returns
// its reason string.
func IsRevert(err error) (string, bool) {
	if re, ok := err.(*RevertError); ok {
		return re.Reason, true
	}
	return "", false
}
