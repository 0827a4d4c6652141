package fingerprint

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		hash1    uint64
		hash2    uint64
		expected int
	}{
		{"identical", 0x0, 0x0, 0},
		{"completely different", 0xFFFFFFFFFFFFFFFF, 0x0, 64},
		{"one bit different", 0x1, 0x0, 1},
		{"four bits different", 0xF, 0x0, 4},
		{"half different", 0xFFFFFFFF00000000, 0x0, 32},
		{"alternating", 0xAAAAAAAAAAAAAAAA, 0x5555555555555555, 64},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Distance(FromUint64(tc.hash1), FromUint64(tc.hash2))
			if err != nil {
				t.Fatalf("Distance failed: %v", err)
			}
			if result != tc.expected {
				t.Errorf("Distance(%x, %x) = %d; want %d", tc.hash1, tc.hash2, result, tc.expected)
			}
		})
	}
}

func TestDistanceLengthMismatch(t *testing.T) {
	a := FromUint64(0xFF)
	b := FromBits(make([]bool, 32))

	_, err := Distance(a, b)
	var mismatch *LengthMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *LengthMismatchError, got %v", err)
	}
	if mismatch.Expected != 64 || mismatch.Actual != 32 {
		t.Errorf("mismatch = %d/%d; want 64/32", mismatch.Expected, mismatch.Actual)
	}
}

func TestDistanceProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, n := range []int{4, 64, 100, 256} {
		for range 50 {
			a := randomFingerprint(rng, n)
			b := randomFingerprint(rng, n)

			ab, err := Distance(a, b)
			if err != nil {
				t.Fatalf("Distance failed: %v", err)
			}
			ba, _ := Distance(b, a)
			if ab != ba {
				t.Errorf("distance should be symmetric: %d vs %d", ab, ba)
			}
			if ab < 0 || ab > n {
				t.Errorf("distance %d out of range [0,%d]", ab, n)
			}
			if self, _ := Distance(a, a); self != 0 {
				t.Errorf("self distance should be 0, got %d", self)
			}
		}
	}
}

func TestFingerprintBitOrder(t *testing.T) {
	fp := FromUint64(0x8000000000000001)

	if !fp.Bit(0) {
		t.Error("bit 0 should be the most significant bit")
	}
	if !fp.Bit(63) {
		t.Error("bit 63 should be the least significant bit")
	}
	for i := 1; i < 63; i++ {
		if fp.Bit(i) {
			t.Errorf("bit %d should be clear", i)
		}
	}
	if got := fp.String(); got != "8000000000000001" {
		t.Errorf("String() = %s; want 8000000000000001", got)
	}
	if got := fp.BitString(); got != "1"+strings.Repeat("0", 62)+"1" {
		t.Errorf("BitString() = %s", got)
	}

	v, ok := fp.Uint64()
	if !ok || v != 0x8000000000000001 {
		t.Errorf("Uint64() = %x, %v", v, ok)
	}
	if _, ok := FromBits(make([]bool, 32)).Uint64(); ok {
		t.Error("Uint64 should report false for 32-bit fingerprints")
	}
}

func TestFromBitsMatchesHexNibbles(t *testing.T) {
	// 1010 0000 1111
	bits := []bool{true, false, true, false, false, false, false, false, true, true, true, true}
	fp := FromBits(bits)

	if fp.Len() != 12 {
		t.Fatalf("Len() = %d; want 12", fp.Len())
	}
	if got := fp.String(); got != "a0f" {
		t.Errorf("String() = %s; want a0f", got)
	}
	if got := fp.BitString(); got != "101000001111" {
		t.Errorf("BitString() = %s; want 101000001111", got)
	}
	if fp.OnesCount() != 6 {
		t.Errorf("OnesCount() = %d; want 6", fp.OnesCount())
	}
}

func TestParseHexRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	tests := []string{
		"0000000000000000",
		"ffffffffffffffff",
		"8000000000000001",
		"0f0f0f0f0f0f0f0f",
		"a0f",
		"deadbeef",
		strings.Repeat("c3", 32),
	}
	for range 20 {
		tests = append(tests, randomFingerprint(rng, 64).String(), randomFingerprint(rng, 144).String())
	}

	for _, hex := range tests {
		fp, err := ParseHex(hex)
		if err != nil {
			t.Fatalf("ParseHex(%q) failed: %v", hex, err)
		}
		if fp.Len() != 4*len(hex) {
			t.Errorf("ParseHex(%q) length = %d; want %d", hex, fp.Len(), 4*len(hex))
		}
		if fp.String() != hex {
			t.Errorf("round trip mismatch: %q -> %q", hex, fp.String())
		}
		again, err := ParseHex(fp.String())
		if err != nil || !again.Equal(fp) {
			t.Errorf("decode(encode(fp)) != fp for %q", hex)
		}
	}
}

func TestParseHexUpperCase(t *testing.T) {
	upper, err := ParseHex("DEADBEEF")
	if err != nil {
		t.Fatalf("ParseHex failed: %v", err)
	}
	lower, _ := ParseHex("deadbeef")
	if !upper.Equal(lower) {
		t.Error("upper and lower case hex should decode to the same fingerprint")
	}
}

func TestParseHexErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"non hex", "zz00000000000000"},
		{"space", "0000 00000000000"},
		{"prefix", "0x00000000000000"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseHex(tc.input)
			if !errors.Is(err, ErrInvalidHex) {
				t.Errorf("ParseHex(%q) error = %v; want ErrInvalidHex", tc.input, err)
			}
		})
	}
}

func TestFingerprintJSON(t *testing.T) {
	type product struct {
		Name string      `json:"name"`
		Hash Fingerprint `json:"hash"`
	}

	in := product{Name: "lamp", Hash: FromUint64(0x0123456789abcdef)}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"hash":"0123456789abcdef"`) {
		t.Errorf("unexpected JSON: %s", data)
	}

	var out product
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !out.Hash.Equal(in.Hash) {
		t.Errorf("JSON round trip mismatch: %s vs %s", out.Hash, in.Hash)
	}
}

func TestMarshalTextRejectsPartialNibble(t *testing.T) {
	if _, err := FromBits(make([]bool, 6)).MarshalText(); err == nil {
		t.Error("MarshalText should fail for a 6-bit fingerprint")
	}
}

func TestEqual(t *testing.T) {
	a := FromUint64(42)
	if !a.Equal(FromUint64(42)) {
		t.Error("equal fingerprints should compare equal")
	}
	if a.Equal(FromUint64(43)) {
		t.Error("different fingerprints should not compare equal")
	}
	if FromBits(make([]bool, 32)).Equal(FromBits(make([]bool, 64))) {
		t.Error("different lengths should not compare equal")
	}
	var zero Fingerprint
	if !zero.IsZero() || a.IsZero() {
		t.Error("IsZero should only hold for the zero value")
	}
}

func randomFingerprint(rng *rand.Rand, n int) Fingerprint {
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = rng.IntN(2) == 1
	}
	return FromBits(bits)
}
