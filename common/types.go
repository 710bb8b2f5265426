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

// Package common contains shared data types used across the go-juno codebase.
package common

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
)

// HashLength is the expected length of the hash, in bytes.
const HashLength = 32

// Hash represents the 32 byte hash of arbitrary data. Block hashes, merkle
// roots and PoW epoch seeds are all of this type.
type Hash [HashLength]byte

// BytesToHash sets b to hash. If b is larger than HashLength, b will be
// cropped from the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash sets byte representation of s to hash. If s is larger than
// HashLength, s will be cropped from the left.
func HexToHash(s string) Hash { return BytesToHash(FromHex(s)) }

// BigToHash sets byte representation of b to hash. If b is larger than
// HashLength, b will be cropped from the left.
func BigToHash(b *big.Int) Hash { return BytesToHash(b.Bytes()) }

// Bytes gets the byte representation of the underlying hash.
func (h Hash) Bytes() []byte { return h[:] }

// Big converts a hash to a big integer.
func (h Hash) Big() *big.Int { return new(big.Int).SetBytes(h[:]) }

// Hex converts a hash to a hex string.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// String implements the fmt.Stringer interface.
func (h Hash) String() string { return h.Hex() }

// TerminalString implements log.TerminalStringer, formatting a string for
// console output during logging.
func (h Hash) TerminalString() string {
	return fmt.Sprintf("%x..%x", h[:3], h[29:])
}

// IsZero reports whether the hash is the all-zero value.
func (h Hash) IsZero() bool { return h == Hash{} }

// SetBytes sets the hash to the value of b. If b is larger than HashLength,
// b will be cropped from the left.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// Reverse returns the hash with its byte order flipped. Wire formats in the
// Bitcoin lineage store hashes little-endian while they are displayed
// big-endian.
func (h Hash) Reverse() Hash {
	var out Hash
	for i, b := range h {
		out[HashLength-1-i] = b
	}
	return out
}

// Cmp compares two hashes as big-endian unsigned integers.
func (h Hash) Cmp(other Hash) int { return bytes.Compare(h[:], other[:]) }

// FromHex returns the bytes represented by the hexadecimal string s.
// s may be prefixed with "0x".
func FromHex(s string) []byte {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}

// Bytes2Hex returns the hexadecimal encoding of d.
func Bytes2Hex(d []byte) string { return hex.EncodeToString(d) }

// Hex2Bytes returns the bytes represented by the hexadecimal string str.
func Hex2Bytes(str string) []byte {
	b, _ := hex.DecodeString(str)
	return b
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
