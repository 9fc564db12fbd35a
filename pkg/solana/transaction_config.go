package solana

import (
	"io"

	"github.com/pkg/errors"

	"github.com/code-payments/solana-sdk/pkg/solana/binary"
)

// Bit layout of the transaction config mask. The two priority-fee bits
// always travel together; any other combination of the pair is invalid.
const (
	configMaskPriorityFeeLow  uint32 = 1 << 0
	configMaskPriorityFeeHigh uint32 = 1 << 1

	configMaskComputeUnitLimit            uint32 = 1 << 2
	configMaskLoadedAccountsDataSizeLimit uint32 = 1 << 3
	configMaskHeapSize                    uint32 = 1 << 4

	configMaskPriorityFee = configMaskPriorityFeeLow | configMaskPriorityFeeHigh
	configMaskKnownBits   = configMaskPriorityFee | configMaskComputeUnitLimit | configMaskLoadedAccountsDataSizeLimit | configMaskHeapSize

	configMaskSize = 4
)

// TransactionConfig is the optional extension block of a transaction:
// a priority fee and compute/heap/data-size limits. Nil fields are absent
// from the encoding.
type TransactionConfig struct {
	PriorityFeeLamports         *uint64
	ComputeUnitLimit            *uint32
	LoadedAccountsDataSizeLimit *uint32
	HeapSize                    *uint32
}

func (c TransactionConfig) mask() uint32 {
	var mask uint32
	if c.PriorityFeeLamports != nil {
		mask |= configMaskPriorityFee
	}
	if c.ComputeUnitLimit != nil {
		mask |= configMaskComputeUnitLimit
	}
	if c.LoadedAccountsDataSizeLimit != nil {
		mask |= configMaskLoadedAccountsDataSizeLimit
	}
	if c.HeapSize != nil {
		mask |= configMaskHeapSize
	}
	return mask
}

// Marshal encodes the config as a 4-byte little-endian mask followed by the
// present values in fixed order: priority fee (8 bytes), compute unit limit,
// loaded accounts data size limit, heap size (4 bytes each).
func (c TransactionConfig) Marshal() []byte {
	size := configMaskSize
	if c.PriorityFeeLamports != nil {
		size += 8
	}
	if c.ComputeUnitLimit != nil {
		size += 4
	}
	if c.LoadedAccountsDataSizeLimit != nil {
		size += 4
	}
	if c.HeapSize != nil {
		size += 4
	}

	res := make([]byte, size)

	var offset int
	binary.PutUint32(res[offset:], c.mask(), &offset)
	if c.PriorityFeeLamports != nil {
		binary.PutUint64(res[offset:], *c.PriorityFeeLamports, &offset)
	}
	if c.ComputeUnitLimit != nil {
		binary.PutUint32(res[offset:], *c.ComputeUnitLimit, &offset)
	}
	if c.LoadedAccountsDataSizeLimit != nil {
		binary.PutUint32(res[offset:], *c.LoadedAccountsDataSizeLimit, &offset)
	}
	if c.HeapSize != nil {
		binary.PutUint32(res[offset:], *c.HeapSize, &offset)
	}

	return res
}

// Unmarshal decodes a mask-prefixed config block.
func (c *TransactionConfig) Unmarshal(data []byte) error {
	if len(data) < configMaskSize {
		return &MalformedEncodingError{Field: "config mask", Offset: 0, Err: io.ErrUnexpectedEOF}
	}

	var offset int
	var mask uint32
	binary.GetUint32(data[offset:], &mask, &offset)

	decoded, err := DecodeTransactionConfigValues(mask, data[offset:])
	if err != nil {
		return err
	}

	*c = decoded
	return nil
}

// DecodeTransactionConfigValues decodes a values block whose layout is
// fully determined by the previously decoded mask; the block itself is not
// self-describing. The two priority-fee bits must agree, the mask must not
// select unknown fields, and the block must hold exactly the bytes the
// mask calls for.
func DecodeTransactionConfigValues(mask uint32, values []byte) (TransactionConfig, error) {
	if fee := mask & configMaskPriorityFee; fee != 0 && fee != configMaskPriorityFee {
		return TransactionConfig{}, &InvalidConfigMaskError{Mask: mask}
	}
	if mask&^configMaskKnownBits != 0 {
		return TransactionConfig{}, &InvalidConfigMaskError{Mask: mask}
	}

	var c TransactionConfig
	var offset int

	remaining := func(n int, field string) error {
		if len(values)-offset < n {
			return &MalformedEncodingError{Field: field, Offset: configMaskSize + offset, Err: io.ErrUnexpectedEOF}
		}
		return nil
	}

	if mask&configMaskPriorityFee == configMaskPriorityFee {
		if err := remaining(8, "priority fee lamports"); err != nil {
			return TransactionConfig{}, err
		}
		var v uint64
		binary.GetUint64(values[offset:], &v, &offset)
		c.PriorityFeeLamports = &v
	}
	if mask&configMaskComputeUnitLimit != 0 {
		if err := remaining(4, "compute unit limit"); err != nil {
			return TransactionConfig{}, err
		}
		var v uint32
		binary.GetUint32(values[offset:], &v, &offset)
		c.ComputeUnitLimit = &v
	}
	if mask&configMaskLoadedAccountsDataSizeLimit != 0 {
		if err := remaining(4, "loaded accounts data size limit"); err != nil {
			return TransactionConfig{}, err
		}
		var v uint32
		binary.GetUint32(values[offset:], &v, &offset)
		c.LoadedAccountsDataSizeLimit = &v
	}
	if mask&configMaskHeapSize != 0 {
		if err := remaining(4, "heap size"); err != nil {
			return TransactionConfig{}, err
		}
		var v uint32
		binary.GetUint32(values[offset:], &v, &offset)
		c.HeapSize = &v
	}

	if offset != len(values) {
		return TransactionConfig{}, &MalformedEncodingError{
			Field:  "config values",
			Offset: configMaskSize + offset,
			Err:    errors.Errorf("%d trailing bytes", len(values)-offset),
		}
	}

	return c, nil
}
