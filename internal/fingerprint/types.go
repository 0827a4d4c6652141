package fingerprint

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

const wordBits = 64

// ErrInvalidHex is returned when a textual fingerprint cannot be parsed.
var ErrInvalidHex = errors.New("invalid fingerprint hex")

// Fingerprint is an immutable fixed-length bit string.
//
// Bits are stored in scan order, most significant bit first, packed into
// 64-bit words. Unused bits of the last word are always zero.
type Fingerprint struct {
	words []uint64
	n     int
}

// FromBits builds a fingerprint from bits in scan order.
func FromBits(bitset []bool) Fingerprint {
	fp := Fingerprint{
		words: make([]uint64, (len(bitset)+wordBits-1)/wordBits),
		n:     len(bitset),
	}
	for i, set := range bitset {
		if set {
			fp.words[i/wordBits] |= 1 << (wordBits - 1 - i%wordBits)
		}
	}
	return fp
}

// FromUint64 builds a 64-bit fingerprint. The most significant bit of v is
// the first bit in scan order.
func FromUint64(v uint64) Fingerprint {
	return Fingerprint{words: []uint64{v}, n: wordBits}
}

// Len returns the number of bits.
func (f Fingerprint) Len() int {
	return f.n
}

// IsZero reports whether f is the zero value (no bits at all).
func (f Fingerprint) IsZero() bool {
	return f.n == 0
}

// Bit reports whether bit i (in scan order) is set.
func (f Fingerprint) Bit(i int) bool {
	if i < 0 || i >= f.n {
		panic(fmt.Sprintf("fingerprint: bit index %d out of range [0,%d)", i, f.n))
	}
	return f.words[i/wordBits]&(1<<(wordBits-1-i%wordBits)) != 0
}

// Uint64 returns the packed value of a 64-bit fingerprint.
// ok is false for any other length.
func (f Fingerprint) Uint64() (v uint64, ok bool) {
	if f.n != wordBits {
		return 0, false
	}
	return f.words[0], true
}

// OnesCount returns the number of set bits.
func (f Fingerprint) OnesCount() int {
	count := 0
	for _, w := range f.words {
		count += bits.OnesCount64(w)
	}
	return count
}

// Equal reports whether both fingerprints have the same length and bits.
func (f Fingerprint) Equal(other Fingerprint) bool {
	if f.n != other.n {
		return false
	}
	for i := range f.words {
		if f.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// String returns the lowercase hex encoding, one nibble per four bits.
// Fingerprints whose length is not a multiple of 4 are rendered with the
// last nibble zero-padded; such fingerprints cannot round-trip through
// ParseHex and are never produced by a Generator.
func (f Fingerprint) String() string {
	const digits = "0123456789abcdef"
	nibbles := (f.n + 3) / 4
	var sb strings.Builder
	sb.Grow(nibbles)
	for k := range nibbles {
		var nib byte
		for j := range 4 {
			i := 4*k + j
			nib <<= 1
			if i < f.n && f.Bit(i) {
				nib |= 1
			}
		}
		sb.WriteByte(digits[nib])
	}
	return sb.String()
}

// BitString returns the fingerprint as a string of '0' and '1' characters.
func (f Fingerprint) BitString() string {
	var sb strings.Builder
	sb.Grow(f.n)
	for i := range f.n {
		if f.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// ParseHex decodes a hex fingerprint produced by String. The result has
// 4*len(s) bits. Upper-case digits are accepted.
func ParseHex(s string) (Fingerprint, error) {
	if s == "" {
		return Fingerprint{}, fmt.Errorf("%w: empty string", ErrInvalidHex)
	}
	bitset := make([]bool, 0, 4*len(s))
	for pos, c := range []byte(s) {
		var nib byte
		switch {
		case c >= '0' && c <= '9':
			nib = c - '0'
		case c >= 'a' && c <= 'f':
			nib = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			nib = c - 'A' + 10
		default:
			return Fingerprint{}, fmt.Errorf("%w: unexpected character %q at position %d", ErrInvalidHex, c, pos)
		}
		for j := 3; j >= 0; j-- {
			bitset = append(bitset, nib&(1<<j) != 0)
		}
	}
	return FromBits(bitset), nil
}

// MarshalText implements encoding.TextMarshaler.
func (f Fingerprint) MarshalText() ([]byte, error) {
	if f.n%4 != 0 {
		return nil, fmt.Errorf("fingerprint of %d bits has no hex encoding", f.n)
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	fp, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*f = fp
	return nil
}

// LengthMismatchError is returned when two fingerprints of different bit
// lengths are compared.
type LengthMismatchError struct {
	Expected int
	Actual   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("fingerprint length mismatch: expected %d bits, got %d", e.Expected, e.Actual)
}

// Distance computes the Hamming distance between two fingerprints: the number
// of bit positions at which they differ.
func Distance(a, b Fingerprint) (int, error) {
	if a.n != b.n {
		return 0, &LengthMismatchError{Expected: a.n, Actual: b.n}
	}
	distance := 0
	for i := range a.words {
		distance += bits.OnesCount64(a.words[i] ^ b.words[i])
	}
	return distance, nil
}
