package solana

// AccountRole is the 2-bit privilege code assigned to an account within a
// single transaction. The low bit marks the account writable, the high bit
// marks it as a required signer.
type AccountRole uint8

const (
	AccountRoleReadonly       AccountRole = 0
	AccountRoleWritable       AccountRole = 1
	AccountRoleReadonlySigner AccountRole = 2
	AccountRoleWritableSigner AccountRole = 3
)

const (
	roleWritableBit AccountRole = 1 << 0
	roleSignerBit   AccountRole = 1 << 1
)

func (r AccountRole) IsWritable() bool {
	return r&roleWritableBit != 0
}

func (r AccountRole) IsSigner() bool {
	return r&roleSignerBit != 0
}

// Merge combines two roles requested for the same account. The highest
// privilege wins on each bit, so merging is commutative and associative.
func (r AccountRole) Merge(other AccountRole) AccountRole {
	return r | other
}

func (r AccountRole) AsSigner() AccountRole {
	return r | roleSignerBit
}

func (r AccountRole) AsWritable() AccountRole {
	return r | roleWritableBit
}

func (r AccountRole) AsNonSigner() AccountRole {
	return r &^ roleSignerBit
}

func (r AccountRole) AsReadonly() AccountRole {
	return r &^ roleWritableBit
}

// NewAccountRole builds a role from its two flags.
func NewAccountRole(isSigner, isWritable bool) AccountRole {
	var r AccountRole
	if isSigner {
		r |= roleSignerBit
	}
	if isWritable {
		r |= roleWritableBit
	}
	return r
}

func (r AccountRole) String() string {
	switch r {
	case AccountRoleWritableSigner:
		return "WRITABLE_SIGNER"
	case AccountRoleReadonlySigner:
		return "READONLY_SIGNER"
	case AccountRoleWritable:
		return "WRITABLE"
	default:
		return "READONLY"
	}
}
