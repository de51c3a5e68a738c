package ledger

import "errors"

// Domain errors surfaced by ledger operations. HTTP handlers map these to
// status codes; anything else is an infrastructure failure.
var (
	// ErrInvalidAmount indicates a non-positive debit or credit amount.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
	// ErrAccountNotFound indicates the target account does not exist.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrInsufficientBalance indicates a debit would drive the balance negative.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")

	// ErrCodeNotFound indicates an unknown redemption code.
	ErrCodeNotFound = errors.New("ledger: redemption code not found")
	// ErrCodeInactive indicates a deactivated redemption code.
	ErrCodeInactive = errors.New("ledger: redemption code is inactive")
	// ErrCodeExpired indicates an expired redemption code.
	ErrCodeExpired = errors.New("ledger: redemption code has expired")
	// ErrCodeExhausted indicates the code reached its redemption cap.
	ErrCodeExhausted = errors.New("ledger: redemption code is exhausted")
	// ErrAlreadyRedeemed indicates the account already redeemed this code.
	ErrAlreadyRedeemed = errors.New("ledger: code already redeemed by this account")
	// ErrPackageUnavailable indicates the code's package is missing or inactive.
	ErrPackageUnavailable = errors.New("ledger: credit package unavailable")

	// ErrTransactionNotFound indicates an unknown transaction ID.
	ErrTransactionNotFound = errors.New("ledger: transaction not found")
	// ErrNotARedemption indicates a refund target that is not a redemption.
	ErrNotARedemption = errors.New("ledger: only redemption transactions are refundable")
	// ErrAccountGone indicates the transaction's account was removed.
	ErrAccountGone = errors.New("ledger: account for transaction no longer exists")
	// ErrAlreadyRefunded indicates the transaction was already refunded.
	ErrAlreadyRefunded = errors.New("ledger: transaction already refunded")
)
