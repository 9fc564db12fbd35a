package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	"github.com/code-payments/solana-sdk/pkg/solana/shortvec"
)

// Marshal serializes the message into the exact network wire layout for
// its version. Marshalling never fails: compilation has already validated
// every bound the encoding relies on.
func (m Message) Marshal() []byte {
	switch m.version {
	case MessageVersionLegacy:
		return m.marshalLegacy()
	case MessageVersion0:
		return m.marshalV0()
	default:
		panic("unsupported message version")
	}
}

func (m Message) marshalLegacy() []byte {
	b := bytes.NewBuffer(nil)
	m.marshalBody(b)
	return b.Bytes()
}

func (m Message) marshalV0() []byte {
	b := bytes.NewBuffer(nil)

	// Version number 0 with the versioned flag set.
	_ = b.WriteByte(messageVersionFlag)

	m.marshalBody(b)

	// A version 0 message without table references still carries an explicit
	// zero-length lookup list.
	_, _ = shortvec.EncodeLen(b, len(m.AddressTableLookups))
	for _, lookup := range m.AddressTableLookups {
		_, _ = b.Write(lookup.PublicKey)

		_, _ = shortvec.EncodeLen(b, len(lookup.WritableIndexes))
		_, _ = b.Write(lookup.WritableIndexes)

		_, _ = shortvec.EncodeLen(b, len(lookup.ReadonlyIndexes))
		_, _ = b.Write(lookup.ReadonlyIndexes)
	}

	return b.Bytes()
}

// marshalBody writes the layout shared by both versions: header, static
// accounts, lifetime token (zero bytes when unset), and instructions.
func (m Message) marshalBody(b *bytes.Buffer) {
	_ = b.WriteByte(m.Header.NumSignatures)
	_ = b.WriteByte(m.Header.NumReadonlySigned)
	_ = b.WriteByte(m.Header.NumReadOnly)

	_, _ = shortvec.EncodeLen(b, len(m.Accounts))
	for _, a := range m.Accounts {
		_, _ = b.Write(a)
	}

	_, _ = b.Write(m.LifetimeToken[:])

	_, _ = shortvec.EncodeLen(b, len(m.Instructions))
	for _, i := range m.Instructions {
		_ = b.WriteByte(i.ProgramIndex)

		_, _ = shortvec.EncodeLen(b, len(i.Accounts))
		_, _ = b.Write(i.Accounts)

		_, _ = shortvec.EncodeLen(b, len(i.Data))
		_, _ = b.Write(i.Data)
	}
}

// Unmarshal deserializes a message, dispatching on the presence of the
// version flag in the first byte. A flagged version other than 0 fails
// with UnsupportedVersionError carrying the offending byte.
func (m *Message) Unmarshal(b []byte) error {
	if len(b) == 0 {
		return &MalformedEncodingError{Field: "message version", Offset: 0, Err: io.ErrUnexpectedEOF}
	}

	// A reused receiver starts from scratch; the decode loops below append.
	*m = Message{}

	if b[0]&messageVersionFlag != 0 {
		if version := b[0] &^ messageVersionFlag; version != 0 {
			return &UnsupportedVersionError{Version: b[0]}
		}
		return m.unmarshalV0(b)
	}
	return m.unmarshalLegacy(b)
}

func (m *Message) unmarshalLegacy(b []byte) error {
	buf := bytes.NewBuffer(b)
	if err := m.unmarshalBody(b, buf); err != nil {
		return err
	}
	m.version = MessageVersionLegacy

	return m.validateIndexes(b, len(m.Accounts))
}

func (m *Message) unmarshalV0(b []byte) error {
	buf := bytes.NewBuffer(b)
	_, _ = buf.ReadByte() // version, already inspected

	if err := m.unmarshalBody(b, buf); err != nil {
		return err
	}
	m.version = MessageVersion0

	lookupLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return malformed("address table lookup count", b, buf, err)
	}
	if lookupLen > buf.Len() {
		return malformed("address table lookup count", b, buf, errors.Errorf("%d lookups exceed %d remaining bytes", lookupLen, buf.Len()))
	}

	indexed := len(m.Accounts)
	for i := 0; i < lookupLen; i++ {
		var lookup MessageAddressTableLookup

		lookup.PublicKey = make([]byte, ed25519.PublicKeySize)
		if _, err := io.ReadFull(buf, lookup.PublicKey); err != nil {
			return malformed("address table lookup address", b, buf, err)
		}

		if lookup.WritableIndexes, err = readIndexList(b, buf, "writable indexes"); err != nil {
			return err
		}
		if lookup.ReadonlyIndexes, err = readIndexList(b, buf, "readonly indexes"); err != nil {
			return err
		}

		indexed += len(lookup.WritableIndexes) + len(lookup.ReadonlyIndexes)
		m.AddressTableLookups = append(m.AddressTableLookups, lookup)
	}

	// Instruction indices may reach into the table-sourced range, which is
	// only known once the lookups are decoded.
	return m.validateIndexes(b, indexed)
}

func (m *Message) unmarshalBody(b []byte, buf *bytes.Buffer) (err error) {
	if m.Header.NumSignatures, err = buf.ReadByte(); err != nil {
		return malformed("num signatures", b, buf, err)
	}
	if m.Header.NumReadonlySigned, err = buf.ReadByte(); err != nil {
		return malformed("num readonly signed", b, buf, err)
	}
	if m.Header.NumReadOnly, err = buf.ReadByte(); err != nil {
		return malformed("num readonly", b, buf, err)
	}

	accountLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return malformed("account count", b, buf, err)
	}
	if accountLen*ed25519.PublicKeySize > buf.Len() {
		return malformed("account count", b, buf, errors.Errorf("%d accounts exceed %d remaining bytes", accountLen, buf.Len()))
	}
	for i := 0; i < accountLen; i++ {
		account := make([]byte, ed25519.PublicKeySize)
		if _, err := io.ReadFull(buf, account); err != nil {
			return malformed("account", b, buf, err)
		}
		m.Accounts = append(m.Accounts, account)
	}

	if _, err := io.ReadFull(buf, m.LifetimeToken[:]); err != nil {
		return malformed("lifetime token", b, buf, err)
	}

	instructionLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return malformed("instruction count", b, buf, err)
	}
	if instructionLen > buf.Len() {
		return malformed("instruction count", b, buf, errors.Errorf("%d instructions exceed %d remaining bytes", instructionLen, buf.Len()))
	}
	for i := 0; i < instructionLen; i++ {
		var c CompiledInstruction

		if c.ProgramIndex, err = buf.ReadByte(); err != nil {
			return malformed("instruction program index", b, buf, err)
		}

		if c.Accounts, err = readIndexList(b, buf, "instruction accounts"); err != nil {
			return err
		}

		dataLen, err := shortvec.DecodeLen(buf)
		if err != nil {
			return malformed("instruction data length", b, buf, err)
		}
		if dataLen > buf.Len() {
			return malformed("instruction data length", b, buf, errors.Errorf("%d data bytes exceed %d remaining", dataLen, buf.Len()))
		}
		if dataLen > 0 {
			c.Data = make([]byte, dataLen)
			if _, err := io.ReadFull(buf, c.Data); err != nil {
				return malformed("instruction data", b, buf, err)
			}
		}

		m.Instructions = append(m.Instructions, c)
	}

	return nil
}

// validateIndexes rejects instruction references beyond the decoded
// account index space. The check runs after the full decode, so the
// reported offset is the end of the input.
func (m *Message) validateIndexes(b []byte, limit int) error {
	for i, c := range m.Instructions {
		if int(c.ProgramIndex) >= limit {
			return &MalformedEncodingError{
				Field:  "instruction program index",
				Offset: len(b),
				Err:    errors.Errorf("instruction %d program index out of range: %d", i, c.ProgramIndex),
			}
		}
		for _, index := range c.Accounts {
			if int(index) >= limit {
				return &MalformedEncodingError{
					Field:  "instruction account index",
					Offset: len(b),
					Err:    errors.Errorf("instruction %d account index out of range: %d", i, index),
				}
			}
		}
	}
	return nil
}

// readIndexList decodes a shortvec length-prefixed byte list, leaving the
// result nil when the list is empty.
func readIndexList(b []byte, buf *bytes.Buffer, field string) ([]byte, error) {
	n, err := shortvec.DecodeLen(buf)
	if err != nil {
		return nil, malformed(field, b, buf, err)
	}
	if n > buf.Len() {
		return nil, malformed(field, b, buf, errors.Errorf("%d bytes exceed %d remaining", n, buf.Len()))
	}
	if n == 0 {
		return nil, nil
	}

	list := make([]byte, n)
	if _, err := io.ReadFull(buf, list); err != nil {
		return nil, malformed(field, b, buf, err)
	}
	return list, nil
}

func malformed(field string, b []byte, buf *bytes.Buffer, err error) *MalformedEncodingError {
	return &MalformedEncodingError{
		Field:  field,
		Offset: len(b) - buf.Len(),
		Err:    err,
	}
}
