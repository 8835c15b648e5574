package eufyclean

import (
	"encoding/hex"
	"math/big"
	"testing"
)

func TestShuffledMD5(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "8f00b204d41d8cd9ecf8427ee9800998"},
		{"hello", "bc4b2a765d41402a1017c592b9719d91"},
		{`{"uid":"eh-u1","countryCode":"49"}`, "9ab64158261c4b0657703a2478e095b3"},
	}
	for _, tc := range cases {
		if got := shuffledMD5(tc.in); got != tc.want {
			t.Fatalf("shuffledMD5(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestDerivePassword(t *testing.T) {
	got, err := derivePassword("eh-u1")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if hex.EncodeToString(got) != "6a835dc4e9fba7be6a5fc2c4553eebfa" {
		t.Fatalf("unexpected cipher: %x", got)
	}

	// 30-char uid pads to two blocks.
	long, err := derivePassword("eh-0123456789abcdef0123456789ab")
	if err != nil {
		t.Fatalf("derive long: %v", err)
	}
	if hex.EncodeToString(long) != "e49cbdc8f4d6ffa09a4b4f00a8849cdecb44e302902ea7653af2477827fefa85" {
		t.Fatalf("unexpected long cipher: %x", long)
	}
}

func TestFinalizePasswordMD5(t *testing.T) {
	cipherBytes, err := derivePassword("eh-u1")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if got := finalizePassword(cipherBytes, nil, nil); got != "4e1fbbec7618e98ea91d4bc1d1479ddc" {
		t.Fatalf("unexpected md5 credential: %s", got)
	}

	long, err := derivePassword("eh-0123456789abcdef0123456789ab")
	if err != nil {
		t.Fatalf("derive long: %v", err)
	}
	if got := finalizePassword(long, nil, nil); got != "689c14a6225690d4a47ad4cc771949a7" {
		t.Fatalf("unexpected long md5 credential: %s", got)
	}
}

func TestFinalizePasswordRSA(t *testing.T) {
	cipherBytes, err := derivePassword("eh-u1")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	modulus, ok := new(big.Int).SetString("1988980464988590376687", 10)
	if !ok {
		t.Fatalf("parse modulus")
	}
	exponent := big.NewInt(65537)

	got := finalizePassword(cipherBytes, modulus, exponent)
	if got != "11728dfefb97b88e0f" {
		t.Fatalf("unexpected rsa credential: %s", got)
	}
	// Output is always sized to the modulus byte length.
	if len(got) != 18 {
		t.Fatalf("unexpected credential length: %d", len(got))
	}
}
