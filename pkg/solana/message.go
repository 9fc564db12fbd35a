package solana

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232

	// One-byte instruction indices bound the combined static and
	// table-sourced account count of a single message.
	maxMessageAccounts = 256

	// High bit of the first message byte flags a versioned message; the low
	// seven bits carry the version number.
	messageVersionFlag = 0x80
)

type MessageVersion uint8

const (
	MessageVersionLegacy MessageVersion = iota
	MessageVersion0
)

func (v MessageVersion) String() string {
	switch v {
	case MessageVersionLegacy:
		return "legacy"
	case MessageVersion0:
		return "v0"
	}
	return "unknown"
}

// Header carries the signer and readonly counts derived from the static
// prefix of the message account list. The three counts are never set
// independently of the account ordering.
type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

// MessageAddressTableLookup references accounts of one on-chain lookup
// table by table-local index (version 0 messages only).
type MessageAddressTableLookup struct {
	PublicKey       ed25519.PublicKey
	WritableIndexes []byte
	ReadonlyIndexes []byte
}

// Message is a compiled transaction message: the canonical account list
// reduced to its static prefix, the derived header, the lifetime token,
// and instructions rewritten over account indices.
//
// LifetimeToken is opaque on the wire; whether it was a recent blockhash
// or a durable nonce value is not recoverable after decoding, and neither
// are the addresses behind AddressTableLookups indices.
type Message struct {
	version             MessageVersion
	Header              Header
	Accounts            []ed25519.PublicKey
	LifetimeToken       Blockhash
	Instructions        []CompiledInstruction
	AddressTableLookups []MessageAddressTableLookup
}

func (m Message) Version() MessageVersion {
	return m.version
}

// CompileMessage compiles a logical transaction description into the wire
// representation for the requested version. Lookup tables are only
// meaningful for version 0 and are ignored by the legacy compiler.
func CompileMessage(version MessageVersion, payer ed25519.PublicKey, instructions []Instruction, lifetime LifetimeConstraint, tables ...AddressLookupTable) (Message, error) {
	switch version {
	case MessageVersionLegacy:
		return CompileLegacyMessage(payer, instructions, lifetime)
	case MessageVersion0:
		return CompileV0Message(payer, instructions, lifetime, tables)
	default:
		return Message{}, &UnsupportedVersionError{Version: byte(version)}
	}
}

// CompileLegacyMessage compiles a legacy message. Every account is static.
func CompileLegacyMessage(payer ed25519.PublicKey, instructions []Instruction, lifetime LifetimeConstraint) (Message, error) {
	return compileMessage(MessageVersionLegacy, payer, instructions, lifetime, nil)
}

// CompileV0Message compiles a version 0 message, compressing accounts found
// in the supplied lookup tables into table-local index references.
func CompileV0Message(payer ed25519.PublicKey, instructions []Instruction, lifetime LifetimeConstraint, tables []AddressLookupTable) (Message, error) {
	return compileMessage(MessageVersion0, payer, instructions, lifetime, tables)
}

func compileMessage(version MessageVersion, payer ed25519.PublicKey, instructions []Instruction, lifetime LifetimeConstraint, tables []AddressLookupTable) (Message, error) {
	ordered, err := compileAccounts(payer, instructions, tables)
	if err != nil {
		return Message{}, err
	}

	header, err := deriveHeader(ordered)
	if err != nil {
		return Message{}, err
	}

	m := Message{
		version: version,
		Header:  header,
	}

	for _, e := range ordered {
		if e.class == classLookup {
			break
		}
		m.Accounts = append(m.Accounts, e.address)
	}

	if lifetime != nil {
		m.LifetimeToken = lifetime.lifetimeToken()
	}

	m.Instructions, err = compileInstructions(instructions, ordered)
	if err != nil {
		return Message{}, err
	}

	if version == MessageVersion0 {
		m.AddressTableLookups = compileAddressTableLookups(ordered)
	}

	return m, nil
}

// compileInstructions rewrites every program and account reference as its
// position in the canonical ordering, spanning both the static and the
// table-sourced ranges. A reference with no position is an internal
// invariant violation: aggregation guarantees an entry for every address
// the instructions mention.
func compileInstructions(instructions []Instruction, ordered []*accountEntry) ([]CompiledInstruction, error) {
	indexes := make(map[string]byte, len(ordered))
	for i, e := range ordered {
		indexes[string(e.address)] = byte(i)
	}

	var compiled []CompiledInstruction
	for n, ixn := range instructions {
		programIndex, ok := indexes[string(ixn.Program)]
		if !ok {
			return nil, errors.Errorf("account ordering is missing program address %s of instruction %d", base58.Encode(ixn.Program), n)
		}

		c := CompiledInstruction{
			ProgramIndex: programIndex,
			Data:         append([]byte(nil), ixn.Data...),
		}
		for _, meta := range ixn.Accounts {
			index, ok := indexes[string(meta.PublicKey)]
			if !ok {
				return nil, errors.Errorf("account ordering is missing account %s of instruction %d", base58.Encode(meta.PublicKey), n)
			}
			c.Accounts = append(c.Accounts, index)
		}

		compiled = append(compiled, c)
	}

	return compiled, nil
}

// compileAddressTableLookups emits one lookup per table with table-sourced
// entries, carrying table-local indices. The canonical ordering has already
// grouped the entries by table with writable entries first, so a single
// walk suffices.
func compileAddressTableLookups(ordered []*accountEntry) []MessageAddressTableLookup {
	var lookups []MessageAddressTableLookup
	for _, e := range ordered {
		if e.class != classLookup {
			continue
		}

		if len(lookups) == 0 || string(lookups[len(lookups)-1].PublicKey) != string(e.table) {
			lookups = append(lookups, MessageAddressTableLookup{PublicKey: e.table})
		}

		lookup := &lookups[len(lookups)-1]
		if e.role.IsWritable() {
			lookup.WritableIndexes = append(lookup.WritableIndexes, e.tableIndex)
		} else {
			lookup.ReadonlyIndexes = append(lookup.ReadonlyIndexes, e.tableIndex)
		}
	}
	return lookups
}
