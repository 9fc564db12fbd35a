// Package compute_budget builds and parses instructions for the compute
// budget program, including the translation of a TransactionConfig into
// its on-chain instruction equivalents.
package compute_budget

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"

	"github.com/code-payments/solana-sdk/pkg/solana"
)

// ComputeBudget111111111111111111111111111111
var ProgramKey = ed25519.PublicKey{3, 6, 70, 111, 229, 33, 23, 50, 255, 236, 173, 186, 114, 195, 155, 231, 188, 140, 229, 187, 197, 247, 18, 107, 44, 67, 155, 58, 64, 0, 0, 0}

const (
	// nolint:varcheck,deadcode,unused
	commandRequestUnits uint8 = iota
	commandRequestHeapFrame
	commandSetComputeUnitLimit
	commandSetComputeUnitPrice
	commandSetLoadedAccountsDataSizeLimit
)

func RequestHeapFrame(heapSize uint32) solana.Instruction {
	data := make([]byte, 1+4)
	data[0] = commandRequestHeapFrame
	binary.LittleEndian.PutUint32(data[1:], heapSize)

	return solana.NewInstruction(
		ProgramKey,
		data,
	)
}

func SetComputeUnitLimit(computeUnitLimit uint32) solana.Instruction {
	data := make([]byte, 1+4)
	data[0] = commandSetComputeUnitLimit
	binary.LittleEndian.PutUint32(data[1:], computeUnitLimit)

	return solana.NewInstruction(
		ProgramKey,
		data,
	)
}

func SetComputeUnitPrice(computeUnitPrice uint64) solana.Instruction {
	data := make([]byte, 1+8)
	data[0] = commandSetComputeUnitPrice
	binary.LittleEndian.PutUint64(data[1:], computeUnitPrice)

	return solana.NewInstruction(
		ProgramKey,
		data,
	)
}

func SetLoadedAccountsDataSizeLimit(limit uint32) solana.Instruction {
	data := make([]byte, 1+4)
	data[0] = commandSetLoadedAccountsDataSizeLimit
	binary.LittleEndian.PutUint32(data[1:], limit)

	return solana.NewInstruction(
		ProgramKey,
		data,
	)
}

// FromTransactionConfig translates the present fields of a transaction
// config into compute budget instructions, in the fixed order priority
// fee, compute unit limit, loaded accounts data size limit, heap size.
func FromTransactionConfig(config solana.TransactionConfig) []solana.Instruction {
	var instructions []solana.Instruction
	if config.PriorityFeeLamports != nil {
		instructions = append(instructions, SetComputeUnitPrice(*config.PriorityFeeLamports))
	}
	if config.ComputeUnitLimit != nil {
		instructions = append(instructions, SetComputeUnitLimit(*config.ComputeUnitLimit))
	}
	if config.LoadedAccountsDataSizeLimit != nil {
		instructions = append(instructions, SetLoadedAccountsDataSizeLimit(*config.LoadedAccountsDataSizeLimit))
	}
	if config.HeapSize != nil {
		instructions = append(instructions, RequestHeapFrame(*config.HeapSize))
	}
	return instructions
}

func ParseRequestHeapFrameIxnData(data []byte) (uint32, error) {
	if len(data) != 5 {
		return 0, errors.New("invalid length")
	}

	if data[0] != commandRequestHeapFrame {
		return 0, errors.New("invalid instruction")
	}

	return binary.LittleEndian.Uint32(data[1:]), nil
}

func ParseSetComputeUnitLimitIxnData(data []byte) (uint32, error) {
	if len(data) != 5 {
		return 0, errors.New("invalid length")
	}

	if data[0] != commandSetComputeUnitLimit {
		return 0, errors.New("invalid instruction")
	}

	return binary.LittleEndian.Uint32(data[1:]), nil
}

func ParseSetComputeUnitPriceIxnData(data []byte) (uint64, error) {
	if len(data) != 9 {
		return 0, errors.New("invalid length")
	}

	if data[0] != commandSetComputeUnitPrice {
		return 0, errors.New("invalid instruction")
	}

	return binary.LittleEndian.Uint64(data[1:]), nil
}

func ParseSetLoadedAccountsDataSizeLimitIxnData(data []byte) (uint32, error) {
	if len(data) != 5 {
		return 0, errors.New("invalid length")
	}

	if data[0] != commandSetLoadedAccountsDataSizeLimit {
		return 0, errors.New("invalid instruction")
	}

	return binary.LittleEndian.Uint32(data[1:]), nil
}
