package solana

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressRoleConflictError indicates an account was required to hold two
// privileges that cannot coexist: a program address (inherently readonly)
// was also required writable, either directly or by being designated the
// fee payer.
type AddressRoleConflictError struct {
	Address   []byte
	Existing  AccountRole
	Requested AccountRole
}

func (e *AddressRoleConflictError) Error() string {
	return fmt.Sprintf(
		"conflicting roles for account %s: have %s, requested %s",
		base58.Encode(e.Address),
		e.Existing,
		e.Requested,
	)
}

// UnsupportedVersionError indicates a version byte outside the supported
// set was encountered while decoding, or a compile was requested for a
// version with no compiler. Version carries the offending value as it
// appeared (the versioned flag bit included, when decoding).
type UnsupportedVersionError struct {
	Version byte
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported message version: %#x", e.Version)
}

// MalformedEncodingError indicates a decoded length prefix is inconsistent
// with the remaining bytes, or a fixed-size field is truncated. Offset is
// the byte position at which decoding failed.
type MalformedEncodingError struct {
	Field  string
	Offset int
	Err    error
}

func (e *MalformedEncodingError) Error() string {
	return fmt.Sprintf("malformed encoding: %s at offset %d: %v", e.Field, e.Offset, e.Err)
}

func (e *MalformedEncodingError) Unwrap() error {
	return e.Err
}

// InvalidConfigMaskError indicates the two priority-fee bits of a
// transaction config mask disagree, or the mask selects fields this
// implementation does not know the layout of.
type InvalidConfigMaskError struct {
	Mask uint32
}

func (e *InvalidConfigMaskError) Error() string {
	return fmt.Sprintf("invalid transaction config mask: %#032b", e.Mask)
}

// HeaderOverflowError indicates a derived header count does not fit the
// one-byte wire field that carries it.
type HeaderOverflowError struct {
	Count int
}

func (e *HeaderOverflowError) Error() string {
	return fmt.Sprintf("header count overflow: %d accounts exceed the one-byte field", e.Count)
}

// AccountOverflowError indicates a message references more unique accounts
// than the one-byte instruction index space can address.
type AccountOverflowError struct {
	Accounts int
}

func (e *AccountOverflowError) Error() string {
	return fmt.Sprintf("too many accounts: %d exceeds the %d addressable by one-byte indices", e.Accounts, maxMessageAccounts)
}
