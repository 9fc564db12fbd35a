package solana

import (
	"bytes"
	"crypto/ed25519"
	"math"
	"sort"
)

// Every unique address in a message resolves to exactly one class. The fee
// payer and static accounts are embedded in the message account list;
// table-sourced accounts are referenced by table-local index and never
// count toward the signer/readonly header totals.
type accountClass uint8

const (
	classFeePayer accountClass = iota
	classStatic
	classLookup
)

type accountEntry struct {
	class   accountClass
	address ed25519.PublicKey
	role    AccountRole

	// Static entries established by a program reference must stay readonly.
	isProgram bool

	// Table-sourced entries only.
	table      ed25519.PublicKey
	tableIndex byte

	// Instruction-encounter order, which breaks ties between table-sourced
	// entries of the same table and privilege.
	seq int
}

// aggregateAccounts builds one entry per unique address referenced by the
// fee payer and instruction list. Roles for an address seen more than once
// merge by bitwise OR. Addresses found in a supplied lookup table are
// reclassified as table-sourced unless they are the fee payer or a program
// address.
func aggregateAccounts(payer ed25519.PublicKey, instructions []Instruction, tables []AddressLookupTable) ([]*accountEntry, error) {
	var entries []*accountEntry
	byAddress := make(map[string]*accountEntry)

	upsert := func(pub ed25519.PublicKey, role AccountRole) *accountEntry {
		e, ok := byAddress[string(pub)]
		if !ok {
			e = &accountEntry{
				class:   classStatic,
				address: pub,
				role:    role,
				seq:     len(entries),
			}
			byAddress[string(pub)] = e
			entries = append(entries, e)
			return e
		}
		e.role = e.role.Merge(role)
		return e
	}

	payerEntry := upsert(payer, AccountRoleWritableSigner)
	payerEntry.class = classFeePayer

	for _, ixn := range instructions {
		program := upsert(ixn.Program, AccountRoleReadonly)
		if program.class == classFeePayer {
			// A program address is immutable; it can never also pay fees.
			return nil, &AddressRoleConflictError{
				Address:   program.address,
				Existing:  AccountRoleWritableSigner,
				Requested: AccountRoleReadonly,
			}
		}
		if program.role.IsWritable() {
			return nil, &AddressRoleConflictError{
				Address:   program.address,
				Existing:  program.role,
				Requested: AccountRoleReadonly,
			}
		}
		program.isProgram = true

		for _, meta := range ixn.Accounts {
			e := upsert(meta.PublicKey, meta.Role)
			if e.isProgram && e.role.IsWritable() {
				// The signer bit alone may merge onto a program address;
				// the writable bit may not.
				return nil, &AddressRoleConflictError{
					Address:   e.address,
					Existing:  e.role.AsReadonly(),
					Requested: meta.Role,
				}
			}
		}
	}

	if len(tables) == 0 {
		return entries, nil
	}

	// Tables are matched in lexicographic order of their addresses so the
	// classification is independent of the order the caller supplied them.
	sortedTables := make([]AddressLookupTable, len(tables))
	copy(sortedTables, tables)
	sort.Sort(SortableAddressLookupTables(sortedTables))

	for _, e := range entries {
		if e.class != classStatic || e.isProgram {
			continue
		}
		if table, index, ok := findTableAddress(sortedTables, e.address); ok {
			e.class = classLookup
			e.table = table
			e.tableIndex = index
		}
	}

	return entries, nil
}

// findTableAddress returns the first table (in the given order) containing
// the address, along with the address' table-local index.
func findTableAddress(tables []AddressLookupTable, address ed25519.PublicKey) (ed25519.PublicKey, byte, bool) {
	for _, table := range tables {
		for i, candidate := range table.Addresses {
			if i > 0xff {
				break
			}
			if bytes.Equal(candidate, address) {
				return table.PublicKey, byte(i), true
			}
		}
	}
	return nil, 0, false
}

// sortableAccountEntries orders accounts canonically:
//  1. the fee payer;
//  2. static accounts by role code descending, ties broken by ascending
//     byte order of the address;
//  3. table-sourced accounts grouped by table address ascending, writable
//     entries before readonly entries within a table, each in
//     instruction-encounter order.
type sortableAccountEntries []*accountEntry

func (s sortableAccountEntries) Len() int {
	return len(s)
}

func (s sortableAccountEntries) Less(i int, j int) bool {
	a, b := s[i], s[j]

	if (a.class == classLookup) != (b.class == classLookup) {
		return b.class == classLookup
	}
	if a.class == classLookup {
		if c := bytes.Compare(a.table, b.table); c != 0 {
			return c < 0
		}
		if a.role.IsWritable() != b.role.IsWritable() {
			return a.role.IsWritable()
		}
		return a.seq < b.seq
	}

	if (a.class == classFeePayer) != (b.class == classFeePayer) {
		return a.class == classFeePayer
	}

	if a.role != b.role {
		return a.role > b.role
	}
	return bytes.Compare(a.address, b.address) < 0
}

func (s sortableAccountEntries) Swap(i int, j int) {
	s[i], s[j] = s[j], s[i]
}

// compileAccounts aggregates, validates, and canonically orders the unique
// accounts of a message. The result is deterministic: identical inputs
// (under role-merge equivalence) always produce the identical sequence.
func compileAccounts(payer ed25519.PublicKey, instructions []Instruction, tables []AddressLookupTable) ([]*accountEntry, error) {
	entries, err := aggregateAccounts(payer, instructions, tables)
	if err != nil {
		return nil, err
	}
	if len(entries) > maxMessageAccounts {
		return nil, &AccountOverflowError{Accounts: len(entries)}
	}

	ordered := make([]*accountEntry, len(entries))
	copy(ordered, entries)
	sort.Sort(sortableAccountEntries(ordered))
	return ordered, nil
}

// deriveHeader counts signer and readonly accounts over the static prefix
// of the canonical ordering. Table-sourced entries terminate the walk and
// never contribute to any header count. Each count must fit its one-byte
// wire field: 256 static accounts are addressable, but 256 signers are
// not representable.
func deriveHeader(ordered []*accountEntry) (Header, error) {
	var signers, readonlySigned, readonly int
	for _, e := range ordered {
		if e.class == classLookup {
			break
		}
		if e.role.IsSigner() {
			signers++
			if !e.role.IsWritable() {
				readonlySigned++
			}
		} else if !e.role.IsWritable() {
			readonly++
		}
	}

	for _, count := range []int{signers, readonlySigned, readonly} {
		if count > math.MaxUint8 {
			return Header{}, &HeaderOverflowError{Count: count}
		}
	}

	return Header{
		NumSignatures:     byte(signers),
		NumReadonlySigned: byte(readonlySigned),
		NumReadOnly:       byte(readonly),
	}, nil
}
