// Package keys contains helpers for building and comparing
// kv keys and key ranges.
package keys

import (
	"bytes"
	"encoding/binary"
)

// Uint64ToKey encodes i so that lexicographic
// key order matches numeric order
func Uint64ToKey(i uint64) []byte {
	k := make([]byte, 8)

	binary.BigEndian.PutUint64(k, i)

	return k
}

// KeyToUint64 decodes a key built by Uint64ToKey
func KeyToUint64(k []byte) (uint64, bool) {
	if len(k) != 8 {
		return 0, false
	}

	return binary.BigEndian.Uint64(k), true
}

// Compare compares two keys. A nil key sorts
// before every other key.
// -1 means a < b
// 1 means a > b
// 0 means a = b
func Compare(a, b []byte) int {
	return bytes.Compare(a, b)
}

// Inc treats k as a big-endian unsigned integer and returns
// k + 1 without modifying k. It returns nil if every byte
// of k is 0xff.
func Inc(k []byte) []byte {
	after := make([]byte, len(k))

	copy(after, k)

	for i := len(after) - 1; i >= 0; i-- {
		if after[i] < 0xff {
			after[i]++

			return after[:i+1]
		}
	}

	return nil
}

// After returns the key directly after k such that
// no other key sorts between k and After(k)
func After(k []byte) []byte {
	afterK := make([]byte, len(k)+1)

	copy(afterK, k)

	return afterK
}

// Join concatenates p and k into a new key
func Join(p []byte, k []byte) []byte {
	joined := make([]byte, 0, len(p)+len(k))
	joined = append(joined, p...)

	return append(joined, k...)
}
