package driven

// BlobCipher encrypts serialized backup archives before they leave the
// device and decrypts them on restore. Implementations must be
// deterministic about format versioning so old archives stay readable.
type BlobCipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}
