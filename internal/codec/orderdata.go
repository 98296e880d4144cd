// Package codec implements the EBICS order-data pipeline:
// deflate -> AES-128-CBC (zero IV) encrypt with a per-transaction session
// key -> segment into <=1MiB chunks -> Base64, and RSA-wrap the session key
// for the bank; and the exact inverse for downloads.
package codec

import (
	"crypto/rsa"
	"encoding/base64"

	ebicserrors "github.com/ebicsgo/ebics/errors"
	"github.com/ebicsgo/ebics/internal/xcrypto"
)

// MaxSegmentSize is a conservative reading of the EBICS segment boundary;
// 1 MiB keeps per-transaction buffers bounded.
const MaxSegmentSize = 1 << 20

// UploadResult is the output of Compose: the segments ready to place into
// the Initialisation and Transfer requests, plus the RSA-wrapped session
// key for DataEncryptionInfo.
type UploadResult struct {
	TransactionKey []byte
	WrappedKey     []byte
	SegmentsBase64 []string
	NumSegments    int
}

// Compose runs the upload pipeline over plaintext and wraps the freshly
// generated session key with the bank's encryption public key.
func Compose(plaintext []byte, bankCryptPub *rsa.PublicKey) (*UploadResult, error) {
	deflated, err := xcrypto.ZlibDeflate(plaintext)
	if err != nil {
		return nil, err
	}

	key, err := xcrypto.RandomTransactionKey()
	if err != nil {
		return nil, err
	}

	encrypted, err := xcrypto.AESCBCEncrypt(key, deflated)
	if err != nil {
		return nil, err
	}

	segments := segment(encrypted, MaxSegmentSize)
	b64Segments := make([]string, len(segments))
	for i, s := range segments {
		b64Segments[i] = base64.StdEncoding.EncodeToString(s)
	}

	wrappedKey, err := xcrypto.RSAEncrypt(bankCryptPub, key)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		TransactionKey: key,
		WrappedKey:     wrappedKey,
		SegmentsBase64: b64Segments,
		NumSegments:    len(b64Segments),
	}, nil
}

// segment splits data into chunks of at most size bytes. An empty input
// yields a single empty segment so NumSegments is always >= 1.
func segment(data []byte, size int) [][]byte {
	if len(data) == 0 {
		return [][]byte{{}}
	}
	var out [][]byte
	for start := 0; start < len(data); start += size {
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		out = append(out, data[start:end])
	}
	return out
}

// UnwrapTransactionKey RSA-decrypts a bank-supplied, Base64-encoded
// transaction key using the client's encryption private key.
func UnwrapTransactionKey(wrappedKeyB64 string, cryptPriv *rsa.PrivateKey) ([]byte, error) {
	wrapped, err := base64.StdEncoding.DecodeString(wrappedKeyB64)
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindCrypto, "codec.UnwrapTransactionKey", err)
	}
	return xcrypto.RSADecrypt(cryptPriv, wrapped)
}

// Decompose runs the download pipeline: concatenate the Base64 segments in
// ascending SegmentNumber order, Base64-decode, AES-decrypt with key
// (zero IV), then zlib-inflate.
func Decompose(segmentsBase64 []string, key []byte) ([]byte, error) {
	var encrypted []byte
	for _, s := range segmentsBase64 {
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, ebicserrors.New(ebicserrors.KindDeserialization, "codec.Decompose", err)
		}
		encrypted = append(encrypted, decoded...)
	}

	decrypted, err := xcrypto.AESCBCDecrypt(key, encrypted)
	if err != nil {
		return nil, err
	}

	plaintext, err := xcrypto.ZlibInflate(decrypted)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}
