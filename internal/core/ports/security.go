package ports

// SecurityPort encrypts the identity fields that are sensitive at rest
// (phone number, tax id). The field repository is its only caller; nothing
// above the adapter layer ever sees ciphertext.
type SecurityPort interface {
	// Encrypt takes a plaintext and returns an authenticated ciphertext.
	Encrypt(plaintext []byte) (ciphertext []byte, err error)

	// Decrypt reverses Encrypt, failing on any tampering.
	Decrypt(ciphertext []byte) (plaintext []byte, err error)
}
