package solana

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testAddr produces a fixed 32-byte address, so ordering expectations can
// be stated as constants.
func testAddr(b byte) ed25519.PublicKey {
	a := make([]byte, ed25519.PublicKeySize)
	for i := range a {
		a[i] = b
	}
	return a
}

func TestCompileLegacyMessage_ProgramOnly(t *testing.T) {
	payer := testAddr(1)
	program := testAddr(2)

	m, err := CompileLegacyMessage(payer, []Instruction{NewInstruction(program, nil)}, nil)
	require.NoError(t, err)

	assert.Equal(t, MessageVersionLegacy, m.Version())

	require.Len(t, m.Accounts, 2)
	assert.Equal(t, payer, m.Accounts[0])
	assert.Equal(t, program, m.Accounts[1])

	assert.EqualValues(t, 1, m.Header.NumSignatures)
	assert.EqualValues(t, 0, m.Header.NumReadonlySigned)
	assert.EqualValues(t, 1, m.Header.NumReadOnly)

	require.Len(t, m.Instructions, 1)
	assert.Equal(t, byte(1), m.Instructions[0].ProgramIndex)
	assert.Nil(t, m.Instructions[0].Accounts)
	assert.Nil(t, m.Instructions[0].Data)

	assert.Equal(t, Blockhash{}, m.LifetimeToken)
	assert.Empty(t, m.AddressTableLookups)
}

func TestCompileLegacyMessage_Ordering(t *testing.T) {
	payer := testAddr(1)
	program := testAddr(9)

	writableSigner := testAddr(2)
	writable := testAddr(3)
	readonly := testAddr(4)
	readonlySigner := testAddr(5)

	m, err := CompileLegacyMessage(payer, []Instruction{
		NewInstruction(
			program,
			[]byte{1, 2, 3},
			NewReadonlyAccountMeta(readonlySigner, true),
			NewReadonlyAccountMeta(readonly, false),
			NewAccountMeta(writable, false),
			NewAccountMeta(writableSigner, true),
		),
	}, nil)
	require.NoError(t, err)

	// Fee payer, then statics by descending role; readonly ties (the plain
	// readonly account and the program) break by ascending address.
	require.Len(t, m.Accounts, 6)
	assert.Equal(t, payer, m.Accounts[0])
	assert.Equal(t, writableSigner, m.Accounts[1])
	assert.Equal(t, readonlySigner, m.Accounts[2])
	assert.Equal(t, writable, m.Accounts[3])
	assert.Equal(t, readonly, m.Accounts[4])
	assert.Equal(t, program, m.Accounts[5])

	assert.EqualValues(t, 3, m.Header.NumSignatures)
	assert.EqualValues(t, 1, m.Header.NumReadonlySigned)
	assert.EqualValues(t, 2, m.Header.NumReadOnly)

	require.Len(t, m.Instructions, 1)
	assert.Equal(t, byte(5), m.Instructions[0].ProgramIndex)
	assert.Equal(t, []byte{2, 4, 3, 1}, m.Instructions[0].Accounts)
	assert.Equal(t, []byte{1, 2, 3}, m.Instructions[0].Data)
}

func TestCompileLegacyMessage_RoleMerge(t *testing.T) {
	payer := testAddr(1)
	program := testAddr(9)

	keys := []ed25519.PublicKey{testAddr(2), testAddr(3), testAddr(4), testAddr(5)}

	// keys[0]: READONLY_SIGNER -> WRITABLE_SIGNER
	// keys[1]: READONLY        -> READONLY_SIGNER
	// keys[2]: WRITABLE        -> WRITABLE        (readonly merge is a noop)
	// keys[3]: WRITABLE_SIGNER -> WRITABLE_SIGNER (readonly merge is a noop)
	m, err := CompileLegacyMessage(payer, []Instruction{
		NewInstruction(
			program,
			[]byte{1, 2, 3},
			NewReadonlyAccountMeta(keys[0], true),
			NewReadonlyAccountMeta(keys[1], false),
			NewAccountMeta(keys[2], false),
			NewAccountMeta(keys[3], true),
			NewAccountMeta(keys[0], false),
			NewReadonlyAccountMeta(keys[1], true),
			NewReadonlyAccountMeta(keys[2], false),
			NewReadonlyAccountMeta(keys[3], false),
		),
	}, nil)
	require.NoError(t, err)

	require.Len(t, m.Accounts, 6)
	assert.Equal(t, payer, m.Accounts[0])
	assert.Equal(t, keys[0], m.Accounts[1])
	assert.Equal(t, keys[3], m.Accounts[2])
	assert.Equal(t, keys[1], m.Accounts[3])
	assert.Equal(t, keys[2], m.Accounts[4])
	assert.Equal(t, program, m.Accounts[5])

	assert.EqualValues(t, 4, m.Header.NumSignatures)
	assert.EqualValues(t, 1, m.Header.NumReadonlySigned)
	assert.EqualValues(t, 1, m.Header.NumReadOnly)

	assert.Equal(t, byte(5), m.Instructions[0].ProgramIndex)
	assert.Equal(t, []byte{1, 3, 4, 2, 1, 3, 4, 2}, m.Instructions[0].Accounts)
}

func TestCompileLegacyMessage_Deterministic(t *testing.T) {
	payer := testAddr(1)
	program := testAddr(9)

	a := testAddr(2)
	b := testAddr(3)

	// The same logical message with the mergeable references supplied in a
	// different order compiles to byte-identical output.
	first, err := CompileLegacyMessage(payer, []Instruction{
		NewInstruction(
			program,
			nil,
			NewReadonlyAccountMeta(a, true),
			NewAccountMeta(a, false),
			NewAccountMeta(b, false),
			NewReadonlyAccountMeta(b, true),
		),
	}, nil)
	require.NoError(t, err)

	second, err := CompileLegacyMessage(payer, []Instruction{
		NewInstruction(
			program,
			nil,
			NewAccountMeta(b, true),
			NewAccountMeta(a, true),
			NewReadonlyAccountMeta(a, false),
			NewReadonlyAccountMeta(b, false),
		),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Marshal(), second.Marshal())
}

func TestCompileLegacyMessage_HeaderConsistency(t *testing.T) {
	payer := testAddr(1)
	program := testAddr(9)

	m, err := CompileLegacyMessage(payer, []Instruction{
		NewInstruction(
			program,
			nil,
			NewReadonlyAccountMeta(testAddr(2), true),
			NewAccountMeta(testAddr(3), true),
			NewReadonlyAccountMeta(testAddr(4), false),
			NewAccountMeta(testAddr(5), false),
		),
	}, nil)
	require.NoError(t, err)

	signers := int(m.Header.NumSignatures)
	assert.LessOrEqual(t, int(m.Header.NumReadonlySigned), signers)
	assert.LessOrEqual(t, int(m.Header.NumReadOnly), len(m.Accounts)-signers)

	// The fee payer is always first, always a signer, never readonly.
	assert.Equal(t, payer, m.Accounts[0])
	assert.GreaterOrEqual(t, signers, 1)
	assert.Less(t, int(m.Header.NumReadonlySigned), signers)
}

func TestCompileLegacyMessage_ProgramWritableConflict(t *testing.T) {
	payer := testAddr(1)
	program := testAddr(9)

	// Writable reference after the address is established as a program.
	_, err := CompileLegacyMessage(payer, []Instruction{
		NewInstruction(program, nil),
		NewInstruction(testAddr(8), nil, NewAccountMeta(program, false)),
	}, nil)
	conflict := &AddressRoleConflictError{}
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []byte(program), conflict.Address)

	// Writable reference before the address is established as a program.
	_, err = CompileLegacyMessage(payer, []Instruction{
		NewInstruction(testAddr(8), nil, NewAccountMeta(program, false)),
		NewInstruction(program, nil),
	}, nil)
	assert.ErrorAs(t, err, &conflict)
}

func TestCompileLegacyMessage_PayerAsProgramConflict(t *testing.T) {
	payer := testAddr(1)

	_, err := CompileLegacyMessage(payer, []Instruction{
		NewInstruction(payer, nil),
	}, nil)
	conflict := &AddressRoleConflictError{}
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []byte(payer), conflict.Address)
}

func TestCompileLegacyMessage_ProgramSignerMerge(t *testing.T) {
	payer := testAddr(1)
	program := testAddr(9)

	// The signer bit alone may merge onto a program address.
	m, err := CompileLegacyMessage(payer, []Instruction{
		NewInstruction(program, nil, NewReadonlyAccountMeta(program, true)),
	}, nil)
	require.NoError(t, err)

	assert.EqualValues(t, 2, m.Header.NumSignatures)
	assert.EqualValues(t, 1, m.Header.NumReadonlySigned)
	assert.EqualValues(t, 0, m.Header.NumReadOnly)
}

func TestCompileLegacyMessage_AccountOverflow(t *testing.T) {
	payer := testAddr(1)
	program := testAddr(2)

	metas := make([]AccountMeta, 0, 255)
	for i := 0; i < 255; i++ {
		a := testAddr(3)
		a[0] = byte(i)
		a[1] = 0xee
		metas = append(metas, NewAccountMeta(a, false))
	}

	// payer + program + 255 unique accounts = 257.
	_, err := CompileLegacyMessage(payer, []Instruction{
		NewInstruction(program, nil, metas...),
	}, nil)
	overflow := &AccountOverflowError{}
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, 257, overflow.Accounts)
}

func TestCompileLegacyMessage_HeaderOverflow(t *testing.T) {
	payer := testAddr(1)
	program := testAddr(2)

	metas := make([]AccountMeta, 0, 255)
	for i := 0; i < 254; i++ {
		a := testAddr(3)
		a[0] = byte(i)
		a[1] = 0xdd
		metas = append(metas, NewAccountMeta(a, true))
	}
	metas = append(metas, NewReadonlyAccountMeta(program, true))

	// Payer, the signer-bit program, and 254 signers: 256 static accounts
	// fit the one-byte index space, but 256 signers do not fit the header
	// field.
	_, err := CompileLegacyMessage(payer, []Instruction{
		NewInstruction(program, nil, metas...),
	}, nil)
	overflow := &HeaderOverflowError{}
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, 256, overflow.Count)

	// The same account count compiles once the references stop signing.
	for i := range metas {
		metas[i].Role = metas[i].Role.AsNonSigner()
	}
	m, err := CompileLegacyMessage(payer, []Instruction{
		NewInstruction(program, nil, metas...),
	}, nil)
	require.NoError(t, err)
	require.Len(t, m.Accounts, 256)
	assert.EqualValues(t, 1, m.Header.NumSignatures)
	assert.EqualValues(t, 0, m.Header.NumReadonlySigned)
	assert.EqualValues(t, 1, m.Header.NumReadOnly)
}

func TestCompileMessage_UnsupportedVersion(t *testing.T) {
	_, err := CompileMessage(MessageVersion(7), testAddr(1), []Instruction{NewInstruction(testAddr(2), nil)}, nil)
	unsupported := &UnsupportedVersionError{}
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, byte(7), unsupported.Version)
}

func TestCompileV0Message_Lookups(t *testing.T) {
	payer := testAddr(1)
	program := testAddr(2)
	program2 := testAddr(3)

	readonlySigner := testAddr(5)
	staticWritable := testAddr(6)
	staticReadonly := testAddr(7)
	tableWritable := testAddr(8)
	tableReadonly := testAddr(9)
	table2Writable := testAddr(10)
	table2Readonly := testAddr(11)

	tables := []AddressLookupTable{
		{
			PublicKey: testAddr(20),
			Addresses: []ed25519.PublicKey{
				tableReadonly, // index 0
				payer,         // never compressed
				tableWritable, // index 2
				program,       // never compressed
			},
		},
		{
			PublicKey: testAddr(19),
			Addresses: []ed25519.PublicKey{
				testAddr(31),
				table2Writable, // index 1
				testAddr(32),
				table2Readonly, // index 3
			},
		},
	}

	m, err := CompileV0Message(payer, []Instruction{
		NewInstruction(
			program,
			[]byte{1, 2, 3, 4},
			NewReadonlyAccountMeta(readonlySigner, true),
			NewAccountMeta(staticWritable, false),
			NewAccountMeta(tableWritable, false),
			NewReadonlyAccountMeta(tableReadonly, false),
		),
		NewInstruction(
			program2,
			[]byte{5, 6, 7, 8},
			NewAccountMeta(table2Writable, false),
			NewReadonlyAccountMeta(table2Readonly, false),
			NewReadonlyAccountMeta(staticReadonly, false),
			NewReadonlyAccountMeta(tableWritable, false),
		),
	}, nil, tables)
	require.NoError(t, err)

	assert.Equal(t, MessageVersion0, m.Version())

	require.Len(t, m.Accounts, 6)
	assert.Equal(t, payer, m.Accounts[0])
	assert.Equal(t, readonlySigner, m.Accounts[1])
	assert.Equal(t, staticWritable, m.Accounts[2])
	assert.Equal(t, program, m.Accounts[3])
	assert.Equal(t, program2, m.Accounts[4])
	assert.Equal(t, staticReadonly, m.Accounts[5])

	assert.EqualValues(t, 2, m.Header.NumSignatures)
	assert.EqualValues(t, 1, m.Header.NumReadonlySigned)
	assert.EqualValues(t, 3, m.Header.NumReadOnly)

	// Table-sourced addresses never appear in the static list.
	for _, a := range []ed25519.PublicKey{tableWritable, tableReadonly, table2Writable, table2Readonly} {
		assert.NotContains(t, m.Accounts, a)
	}

	// Tables group in lexicographic address order, writable entries first,
	// carrying table-local indices.
	require.Len(t, m.AddressTableLookups, 2)
	assert.Equal(t, testAddr(19), m.AddressTableLookups[0].PublicKey)
	assert.Equal(t, []byte{1}, m.AddressTableLookups[0].WritableIndexes)
	assert.Equal(t, []byte{3}, m.AddressTableLookups[0].ReadonlyIndexes)
	assert.Equal(t, testAddr(20), m.AddressTableLookups[1].PublicKey)
	assert.Equal(t, []byte{2}, m.AddressTableLookups[1].WritableIndexes)
	assert.Equal(t, []byte{0}, m.AddressTableLookups[1].ReadonlyIndexes)

	// Instruction indices span the static range, then the table-sourced
	// range in lookup order.
	require.Len(t, m.Instructions, 2)
	assert.Equal(t, byte(3), m.Instructions[0].ProgramIndex)
	assert.Equal(t, []byte{1, 2, 8, 9}, m.Instructions[0].Accounts)
	assert.Equal(t, byte(4), m.Instructions[1].ProgramIndex)
	assert.Equal(t, []byte{6, 7, 5, 8}, m.Instructions[1].Accounts)
}

func TestCompileV0Message_TableOrderIndependent(t *testing.T) {
	payer := testAddr(1)
	program := testAddr(2)

	tables := []AddressLookupTable{
		{PublicKey: testAddr(20), Addresses: []ed25519.PublicKey{testAddr(8)}},
		{PublicKey: testAddr(19), Addresses: []ed25519.PublicKey{testAddr(9)}},
	}
	reversed := []AddressLookupTable{tables[1], tables[0]}

	instructions := []Instruction{
		NewInstruction(
			program,
			nil,
			NewAccountMeta(testAddr(8), false),
			NewReadonlyAccountMeta(testAddr(9), false),
		),
	}

	first, err := CompileV0Message(payer, instructions, nil, tables)
	require.NoError(t, err)
	second, err := CompileV0Message(payer, instructions, nil, reversed)
	require.NoError(t, err)

	assert.Equal(t, first.Marshal(), second.Marshal())
}

func TestCompileV0Message_NoTables(t *testing.T) {
	payer := testAddr(1)
	program := testAddr(2)

	m, err := CompileV0Message(payer, []Instruction{NewInstruction(program, nil)}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, MessageVersion0, m.Version())
	assert.Empty(t, m.AddressTableLookups)
	require.Len(t, m.Accounts, 2)
}

func TestCompileMessage_LifetimeToken(t *testing.T) {
	payer := testAddr(1)
	program := testAddr(2)

	var bh Blockhash
	for i := range bh {
		bh[i] = byte(i)
	}

	m, err := CompileLegacyMessage(payer, []Instruction{NewInstruction(program, nil)}, BlockhashLifetime{
		Blockhash:            bh,
		LastValidBlockHeight: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, bh, m.LifetimeToken)

	m, err = CompileLegacyMessage(payer, []Instruction{NewInstruction(program, nil)}, NonceLifetime{
		Nonce:     bh,
		Account:   testAddr(3),
		Authority: testAddr(4),
	})
	require.NoError(t, err)
	assert.Equal(t, bh, m.LifetimeToken)
}
