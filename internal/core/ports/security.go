package ports

// SecurityPort defines the interface for encrypting and decrypting
// sensitive fields (date of birth, government-ID number) before they
// reach storage. Implementations are swappable without touching the
// business logic that uses them.
type SecurityPort interface {
	// Encrypt takes a plaintext and returns a secure, encrypted ciphertext.
	Encrypt(plaintext []byte) (ciphertext []byte, err error)

	// Decrypt takes a ciphertext and returns the original plaintext.
	Decrypt(ciphertext []byte) (plaintext []byte, err error)
}
