package security

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/rs/zerolog"
)

func randomKey(t *testing.T, length int) []byte {
	t.Helper()
	key := make([]byte, length)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generating key: %v", err)
	}
	return key
}

// The store runs date-of-birth and government-ID values through this
// service before they reach a row; whatever goes in must come back out.
func TestAESService_RoundTrip(t *testing.T) {
	nopLogger := zerolog.Nop()

	testCases := []struct {
		name  string
		key   []byte
		plain []byte
	}{
		{
			name:  "date of birth, AES-128",
			key:   nil, // filled below
			plain: []byte("2003-07-14"),
		},
		{
			name:  "government ID number, AES-256",
			key:   nil,
			plain: []byte("NLD-900514-221-X"),
		},
		{
			name:  "empty optional field",
			key:   nil,
			plain: []byte(""),
		},
	}
	testCases[0].key = randomKey(t, 16)
	testCases[1].key = randomKey(t, 32)
	testCases[2].key = randomKey(t, 32)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := NewAESService(tc.key, &nopLogger)
			if err != nil {
				t.Fatalf("NewAESService failed: %v", err)
			}

			ciphertext, err := svc.Encrypt(tc.plain)
			if err != nil {
				t.Fatalf("Encrypt failed: %v", err)
			}
			if bytes.Equal(ciphertext, tc.plain) {
				t.Fatal("ciphertext equals the plaintext")
			}

			plain, err := svc.Decrypt(ciphertext)
			if err != nil {
				t.Fatalf("Decrypt failed: %v", err)
			}
			if !bytes.Equal(plain, tc.plain) {
				t.Fatalf("round trip lost the value: got %q, want %q", plain, tc.plain)
			}
		})
	}
}

// Two students with the same birth date must not produce the same
// stored bytes; the random nonce sees to that.
func TestAESService_SamePlaintextDiffers(t *testing.T) {
	nopLogger := zerolog.Nop()
	svc, err := NewAESService(randomKey(t, 32), &nopLogger)
	if err != nil {
		t.Fatalf("NewAESService failed: %v", err)
	}

	dob := []byte("2001-01-01")
	first, err := svc.Encrypt(dob)
	if err != nil {
		t.Fatalf("first Encrypt failed: %v", err)
	}
	second, err := svc.Encrypt(dob)
	if err != nil {
		t.Fatalf("second Encrypt failed: %v", err)
	}
	if bytes.Equal(first, second) {
		t.Fatal("identical plaintexts produced identical ciphertexts")
	}
}

func TestAESService_TamperedCiphertextRejected(t *testing.T) {
	nopLogger := zerolog.Nop()
	svc, err := NewAESService(randomKey(t, 32), &nopLogger)
	if err != nil {
		t.Fatalf("NewAESService failed: %v", err)
	}

	ciphertext, err := svc.Encrypt([]byte("NLD-900514-221-X"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	ciphertext[len(ciphertext)-1] ^= 0xff

	if _, err := svc.Decrypt(ciphertext); err == nil {
		t.Fatal("Decrypt accepted a tampered government ID")
	}

	// Too short to even hold a nonce.
	if _, err := svc.Decrypt(ciphertext[:4]); err == nil {
		t.Fatal("Decrypt accepted a truncated ciphertext")
	}
}

func TestNewAESService_KeyLength(t *testing.T) {
	nopLogger := zerolog.Nop()

	for _, n := range []int{0, 8, 24, 64} {
		if _, err := NewAESService(randomKey(t, n), &nopLogger); err == nil {
			t.Errorf("NewAESService accepted a %d-byte key", n)
		}
	}
	for _, n := range []int{16, 32} {
		if _, err := NewAESService(randomKey(t, n), &nopLogger); err != nil {
			t.Errorf("NewAESService rejected a %d-byte key: %v", n, err)
		}
	}
}
