package solana

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"io"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/solana-sdk/pkg/solana/shortvec"
)

type Signature [ed25519.SignatureSize]byte

// Transaction pairs a compiled message with one signature slot per
// required signer.
type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction compiles a legacy transaction for the provided payer,
// lifetime, and instructions.
func NewTransaction(payer ed25519.PublicKey, lifetime LifetimeConstraint, instructions ...Instruction) (Transaction, error) {
	m, err := CompileLegacyMessage(payer, instructions, lifetime)
	if err != nil {
		return Transaction{}, err
	}
	return newTransaction(m), nil
}

// NewVersionedTransaction compiles a version 0 transaction, compressing
// accounts found in the supplied lookup tables.
func NewVersionedTransaction(payer ed25519.PublicKey, lifetime LifetimeConstraint, tables []AddressLookupTable, instructions []Instruction) (Transaction, error) {
	m, err := CompileV0Message(payer, instructions, lifetime, tables)
	if err != nil {
		return Transaction{}, err
	}
	return newTransaction(m), nil
}

func newTransaction(m Message) Transaction {
	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// Signature returns the transaction id, which is the fee payer's signature.
func (t *Transaction) Signature() []byte {
	return t.Signatures[0][:]
}

// Sign signs the compiled message bytes, placing each signature at the
// position of its account in the required-signer prefix.
func (t *Transaction) Sign(signers ...ed25519.PrivateKey) error {
	messageBytes := t.Message.Marshal()

	for _, s := range signers {
		pub := s.Public().(ed25519.PublicKey)

		index := -1
		for i, a := range t.Message.Accounts {
			if bytes.Equal(a, pub) {
				index = i
				break
			}
		}
		if index < 0 {
			return errors.Errorf("signing account %s is not in the account list", base58.Encode(pub))
		}
		if index >= len(t.Signatures) {
			return errors.Errorf("signing account %s is not in the list of signers", base58.Encode(pub))
		}

		copy(t.Signatures[index][:], ed25519.Sign(s, messageBytes))
	}

	return nil
}

func (t Transaction) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	_, _ = shortvec.EncodeLen(b, len(t.Signatures))
	for _, s := range t.Signatures {
		_, _ = b.Write(s[:])
	}

	_, _ = b.Write(t.Message.Marshal())

	return b.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	buf := bytes.NewBuffer(b)

	sigLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return malformed("signature count", b, buf, err)
	}
	if sigLen*ed25519.SignatureSize > buf.Len() {
		return malformed("signature count", b, buf, errors.Errorf("%d signatures exceed %d remaining bytes", sigLen, buf.Len()))
	}

	t.Signatures = make([]Signature, sigLen)
	for i := 0; i < sigLen; i++ {
		if _, err = io.ReadFull(buf, t.Signatures[i][:]); err != nil {
			return malformed("signature", b, buf, err)
		}
	}

	return t.Message.Unmarshal(buf.Bytes())
}

func (t *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString("Signatures:\n")
	for i, s := range t.Signatures {
		sb.WriteString(fmt.Sprintf("  %d: %s\n", i, base58.Encode(s[:])))
	}
	sb.WriteString("Message:\n")
	sb.WriteString(fmt.Sprintf("  Version: %s\n", t.Message.version.String()))
	sb.WriteString("  Header:\n")
	sb.WriteString(fmt.Sprintf("    NumSignatures: %d\n", t.Message.Header.NumSignatures))
	sb.WriteString(fmt.Sprintf("    NumReadonlySigned: %d\n", t.Message.Header.NumReadonlySigned))
	sb.WriteString(fmt.Sprintf("    NumReadOnly: %d\n", t.Message.Header.NumReadOnly))
	sb.WriteString(fmt.Sprintf("  LifetimeToken: %s\n", base58.Encode(t.Message.LifetimeToken[:])))
	sb.WriteString("  Static Accounts:\n")
	for i, a := range t.Message.Accounts {
		sb.WriteString(fmt.Sprintf("    %d: %s\n", i, base58.Encode(a)))
	}
	sb.WriteString("  Instructions:\n")
	for i := range t.Message.Instructions {
		sb.WriteString(fmt.Sprintf("    %d:\n", i))
		sb.WriteString(fmt.Sprintf("      ProgramIndex: %d\n", t.Message.Instructions[i].ProgramIndex))
		sb.WriteString(fmt.Sprintf("      Accounts: %v\n", t.Message.Instructions[i].Accounts))
		sb.WriteString(fmt.Sprintf("      Data: %v\n", t.Message.Instructions[i].Data))
	}
	if len(t.Message.AddressTableLookups) > 0 {
		sb.WriteString("  Address Table Lookups:\n")
		for i := range t.Message.AddressTableLookups {
			sb.WriteString(fmt.Sprintf("    %s:\n", base58.Encode(t.Message.AddressTableLookups[i].PublicKey)))
			sb.WriteString(fmt.Sprintf("      Writable Indexes: %v\n", t.Message.AddressTableLookups[i].WritableIndexes))
			sb.WriteString(fmt.Sprintf("      Readonly Indexes: %v\n", t.Message.AddressTableLookups[i].ReadonlyIndexes))
		}
	}
	return sb.String()
}
