// Copyright 2025 The go-juno Authors
// This file is part of the go-juno library.
//
// The go-juno library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-juno library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-juno library. If not, see <http://www.gnu.org/licenses/>.

// Package types contains data types related to Juno consensus.
package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/wire"

	"github.com/junocash/go-juno/common"
)

// SolutionSize is the byte length of a valid proof-of-work solution. The
// solution field is variable-length on the wire, but consensus only accepts
// the 32-byte hash output of the memory-hard PoW function.
const SolutionSize = 32

// MaxSolutionSize bounds the wire-encoded solution length so a malformed
// header cannot ask the deserializer for an absurd allocation.
const MaxSolutionSize = 1 << 11

// BlockNonce is the 256-bit nonce miners iterate while searching for a valid
// proof of work.
type BlockNonce [32]byte

// EncodeNonce converts the given integer to a block nonce. The integer is
// stored in the leading bytes, little-endian, matching how miners increment
// the field.
func EncodeNonce(i uint64) BlockNonce {
	var n BlockNonce
	binary.LittleEndian.PutUint64(n[:8], i)
	return n
}

// Uint64 returns the integer value stored in the nonce's leading bytes.
func (n BlockNonce) Uint64() uint64 {
	return binary.LittleEndian.Uint64(n[:8])
}

// Hex returns the nonce as a 0x-prefixed hex string.
func (n BlockNonce) Hex() string { return "0x" + common.Bytes2Hex(n[:]) }

// Header represents a block header in the Juno blockchain. The wire layout
// is fixed and consensus-critical: version, previous block hash, merkle
// root, time, encoded target, nonce, then the length-prefixed solution.
type Header struct {
	Version    int32
	PrevBlock  common.Hash
	MerkleRoot common.Hash
	Time       uint32
	Bits       uint32
	Nonce      BlockNonce
	Solution   []byte
}

// Copy creates a deep copy of the header.
func (h *Header) Copy() *Header {
	cpy := *h
	if h.Solution != nil {
		cpy.Solution = make([]byte, len(h.Solution))
		copy(cpy.Solution, h.Solution)
	}
	return &cpy
}

// Serialize encodes the header into w using the fixed wire order.
func (h *Header) Serialize(w io.Writer) error {
	if err := h.serializeSansSolution(w); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, 0, uint64(len(h.Solution))); err != nil {
		return err
	}
	_, err := w.Write(h.Solution)
	return err
}

// serializeSansSolution writes every header field up to and including the
// nonce. This prefix doubles as the proof-of-work preimage.
func (h *Header) serializeSansSolution(w io.Writer) error {
	var scratch [4]byte

	binary.LittleEndian.PutUint32(scratch[:], uint32(h.Version))
	if _, err := w.Write(scratch[:]); err != nil {
		return err
	}
	if _, err := w.Write(h.PrevBlock[:]); err != nil {
		return err
	}
	if _, err := w.Write(h.MerkleRoot[:]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(scratch[:], h.Time)
	if _, err := w.Write(scratch[:]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(scratch[:], h.Bits)
	if _, err := w.Write(scratch[:]); err != nil {
		return err
	}
	_, err := w.Write(h.Nonce[:])
	return err
}

// Deserialize decodes a header from r, expecting the fixed wire order.
func (h *Header) Deserialize(r io.Reader) error {
	var scratch [4]byte

	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return err
	}
	h.Version = int32(binary.LittleEndian.Uint32(scratch[:]))
	if _, err := io.ReadFull(r, h.PrevBlock[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, h.MerkleRoot[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return err
	}
	h.Time = binary.LittleEndian.Uint32(scratch[:])
	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return err
	}
	h.Bits = binary.LittleEndian.Uint32(scratch[:])
	if _, err := io.ReadFull(r, h.Nonce[:]); err != nil {
		return err
	}

	solLen, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return err
	}
	if solLen > MaxSolutionSize {
		return fmt.Errorf("types: solution length %d exceeds maximum %d", solLen, MaxSolutionSize)
	}
	h.Solution = make([]byte, solLen)
	_, err = io.ReadFull(r, h.Solution)
	return err
}

// PowPreimage returns the canonical input to the proof-of-work hash: every
// header field except the solution, in wire order, ending with the nonce.
func (h *Header) PowPreimage() []byte {
	var buf bytes.Buffer
	buf.Grow(4 + 32 + 32 + 4 + 4 + 32)
	// Writes to a bytes.Buffer cannot fail.
	_ = h.serializeSansSolution(&buf)
	return buf.Bytes()
}

// BlockHash computes the block identifier: the double-SHA256 of the full
// wire serialization, solution included.
func (h *Header) BlockHash() common.Hash {
	var buf bytes.Buffer
	buf.Grow(4 + 32 + 32 + 4 + 4 + 32 + 3 + len(h.Solution))
	_ = h.Serialize(&buf)
	first := sha256.Sum256(buf.Bytes())
	second := sha256.Sum256(first[:])
	return common.Hash(second)
}
