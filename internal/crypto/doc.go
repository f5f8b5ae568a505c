// Package crypto provides the password-based encryption used for note content.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key derived from the password via PBKDF2-HMAC-SHA256
//   - 32-byte random salt per blob
//   - 12-byte random nonce per encryption operation
//
// Text blobs are self-describing: the iteration count and salt travel with
// the ciphertext, so Decrypt needs only the blob and the password.
//
//	lkn1$<iterations>$<base64 salt>$<base64 nonce||ciphertext||tag>
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Encryptor.Destroy() when done with encryption operations
package crypto
