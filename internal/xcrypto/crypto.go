// Package xcrypto implements the EBICS cryptographic primitives: RSA
// sign/verify/encrypt (PKCS#1 v1.5 only; A006/PSS is out of scope), the
// AES-128-CBC transaction-key cipher mandated by EBICS (zero IV, PKCS#7
// padding), ZLIB compression, nonce/session-key generation, and the EBICS
// public-key digest rule.
package xcrypto

import (
	"bytes"
	"compress/zlib"
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	ebicserrors "github.com/ebicsgo/ebics/errors"
)

// TransactionKeySize is the length in bytes of the AES-128 session key EBICS
// generates per upload transaction and the bank generates per download.
const TransactionKeySize = 16

// NonceSize is the length in bytes of a request nonce.
const NonceSize = 16

// RSASign produces a PKCS#1 v1.5 signature of message's SHA-256 digest.
func RSASign(key *rsa.PrivateKey, message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindCrypto, "RSASign", err)
	}
	return sig, nil
}

// RSAVerify reports whether sig is a valid PKCS#1 v1.5 signature of
// message's SHA-256 digest under pub.
func RSAVerify(pub *rsa.PublicKey, message, sig []byte) bool {
	digest := sha256.Sum256(message)
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig) == nil
}

// RSAEncrypt wraps data (typically a 16-byte AES session key) with PKCS#1
// v1.5 padding under pub.
func RSAEncrypt(pub *rsa.PublicKey, data []byte) ([]byte, error) {
	out, err := rsa.EncryptPKCS1v15(rand.Reader, pub, data)
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindCrypto, "RSAEncrypt", err)
	}
	return out, nil
}

// RSADecrypt unwraps data with PKCS#1 v1.5 padding under priv.
func RSADecrypt(priv *rsa.PrivateKey, data []byte) ([]byte, error) {
	out, err := rsa.DecryptPKCS1v15(rand.Reader, priv, data)
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindCrypto, "RSADecrypt", ebicserrors.ErrKeyMismatch)
	}
	return out, nil
}

// AESCBCEncrypt encrypts data with AES-128-CBC, a zero IV, and PKCS#7
// padding. EBICS mandates the zero IV for transaction-key use; it is safe
// here only because the key itself is single-use per transaction.
func AESCBCEncrypt(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindCrypto, "AESCBCEncrypt", err)
	}
	padded := pkcs7Pad(data, block.BlockSize())
	iv := make([]byte, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

// AESCBCDecrypt decrypts data encrypted by AESCBCEncrypt.
func AESCBCDecrypt(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindCrypto, "AESCBCDecrypt", err)
	}
	if len(data) == 0 || len(data)%block.BlockSize() != 0 {
		return nil, ebicserrors.New(ebicserrors.KindCrypto, "AESCBCDecrypt", ebicserrors.ErrDecryptFailed)
	}
	iv := make([]byte, block.BlockSize())
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)
	unpadded, err := pkcs7Unpad(out, block.BlockSize())
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindCrypto, "AESCBCDecrypt", ebicserrors.ErrDecryptFailed)
	}
	return unpadded, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(append([]byte{}, data...), padding...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	n := len(data)
	if n == 0 || n%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", n)
	}
	padLen := int(data[n-1])
	if padLen == 0 || padLen > blockSize || padLen > n {
		return nil, fmt.Errorf("invalid PKCS#7 padding")
	}
	for _, b := range data[n-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("invalid PKCS#7 padding")
		}
	}
	return data[:n-padLen], nil
}

// ZlibDeflate compresses data.
func ZlibDeflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, ebicserrors.New(ebicserrors.KindCrypto, "ZlibDeflate", err)
	}
	if err := w.Close(); err != nil {
		return nil, ebicserrors.New(ebicserrors.KindCrypto, "ZlibDeflate", err)
	}
	return buf.Bytes(), nil
}

// ZlibInflate decompresses data produced by ZlibDeflate.
func ZlibInflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindCrypto, "ZlibInflate", ebicserrors.ErrInflateFailed)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindCrypto, "ZlibInflate", ebicserrors.ErrInflateFailed)
	}
	return out, nil
}

// RandomNonce returns 16 cryptographically random bytes.
func RandomNonce() ([]byte, error) {
	return randomBytes(NonceSize)
}

// RandomTransactionKey returns a fresh 16-byte AES-128 session key.
func RandomTransactionKey() ([]byte, error) {
	return randomBytes(TransactionKeySize)
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, ebicserrors.New(ebicserrors.KindCrypto, "randomBytes", err)
	}
	return b, nil
}

// UTCTimestamp formats t (or time.Now() if zero) per EBICS's
// yyyy-MM-ddTHH:mm:ss.fffZ convention.
func UTCTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// PubkeyDigest implements the EBICS public-key digest rule: SHA-256 of the
// ASCII string "<exponent> <modulus>", where exponent and modulus are each
// the lower-case hex encoding of their big-endian unsigned-integer form with
// leading zero bytes trimmed, separated by a single space.
func PubkeyDigest(modulus *big.Int, exponent int) []byte {
	expHex := strings.ToLower(fmt.Sprintf("%x", big.NewInt(int64(exponent))))
	modHex := strings.ToLower(fmt.Sprintf("%x", modulus))
	ascii := expHex + " " + modHex
	digest := sha256.Sum256([]byte(ascii))
	return digest[:]
}
