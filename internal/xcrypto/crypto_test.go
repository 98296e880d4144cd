package xcrypto

import (
	"bytes"
	"crypto/aes"
	"crypto/sha256"
	"math/big"
	"testing"
)

func TestAESCBCRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("hello ebics")},
		{"block-aligned", bytes.Repeat([]byte{0x42}, 32)},
		{"large", bytes.Repeat([]byte("segment"), 4096)},
	}
	key, err := RandomTransactionKey()
	if err != nil {
		t.Fatalf("RandomTransactionKey: %v", err)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			enc, err := AESCBCEncrypt(key, tc.data)
			if err != nil {
				t.Fatalf("encrypt: %v", err)
			}
			dec, err := AESCBCDecrypt(key, enc)
			if err != nil {
				t.Fatalf("decrypt: %v", err)
			}
			if !bytes.Equal(dec, tc.data) {
				t.Fatalf("round trip mismatch: got %x want %x", dec, tc.data)
			}
		})
	}
}

func TestZlibRoundTrip(t *testing.T) {
	data := []byte("<ebicsRequest>some order data payload</ebicsRequest>")
	deflated, err := ZlibDeflate(data)
	if err != nil {
		t.Fatalf("deflate: %v", err)
	}
	inflated, err := ZlibInflate(deflated)
	if err != nil {
		t.Fatalf("inflate: %v", err)
	}
	if !bytes.Equal(inflated, data) {
		t.Fatalf("round trip mismatch: got %q want %q", inflated, data)
	}
}

func TestCodecRoundTripProperty(t *testing.T) {
	// decompress(decrypt(encrypt(compress(x)))) == x for a random key.
	inputs := [][]byte{
		{},
		[]byte("x"),
		bytes.Repeat([]byte{0xAB}, 1<<20+7),
	}
	for _, x := range inputs {
		key, err := RandomTransactionKey()
		if err != nil {
			t.Fatalf("key: %v", err)
		}
		compressed, err := ZlibDeflate(x)
		if err != nil {
			t.Fatalf("deflate: %v", err)
		}
		encrypted, err := AESCBCEncrypt(key, compressed)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		decrypted, err := AESCBCDecrypt(key, encrypted)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		decompressed, err := ZlibInflate(decrypted)
		if err != nil {
			t.Fatalf("inflate: %v", err)
		}
		if !bytes.Equal(decompressed, x) {
			t.Fatalf("round trip mismatch for len %d", len(x))
		}
	}
}

func TestAESCBCDecryptRejectsBadPadding(t *testing.T) {
	key, _ := RandomTransactionKey()
	// One ciphertext block that decrypts (zero IV) to 16 zero bytes: a full
	// block, but not valid PKCS#7 padding for an empty plaintext (padding
	// byte would need to be 0x10, not 0x00).
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}
	bad := make([]byte, 16)
	block.Encrypt(bad, make([]byte, 16))
	if _, err := AESCBCDecrypt(key, bad); err == nil {
		t.Fatal("expected error for invalid padding")
	}
}

func TestRSASignVerifyRoundTrip(t *testing.T) {
	key := testRSAKey(t)
	msg := []byte("<StaticHeader authenticate=\"true\">...</StaticHeader>")
	sig, err := RSASign(key, msg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !RSAVerify(&key.PublicKey, msg, sig) {
		t.Fatal("expected signature to verify")
	}
	tampered := append([]byte{}, msg...)
	tampered[0] ^= 0xFF
	if RSAVerify(&key.PublicKey, tampered, sig) {
		t.Fatal("expected signature verification to fail for tampered message")
	}
}

func TestRSAEncryptDecryptRoundTrip(t *testing.T) {
	key := testRSAKey(t)
	sessionKey, err := RandomTransactionKey()
	if err != nil {
		t.Fatalf("session key: %v", err)
	}
	wrapped, err := RSAEncrypt(&key.PublicKey, sessionKey)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	unwrapped, err := RSADecrypt(key, wrapped)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(unwrapped, sessionKey) {
		t.Fatalf("unwrapped key mismatch: got %x want %x", unwrapped, sessionKey)
	}
}

func TestPubkeyDigestRule(t *testing.T) {
	// EBICS digest rule: exponent 0x010001, modulus 0xB4...01.
	modulus := new(big.Int)
	modulus.SetString("B4000000000000000000000000000000000000000000000000000000000001", 16)
	digest := PubkeyDigest(modulus, 0x010001)

	expectedASCII := "10001 " + "b4000000000000000000000000000000000000000000000000000000000001"
	want := sha256.Sum256([]byte(expectedASCII))
	if !bytes.Equal(digest, want[:]) {
		t.Fatalf("digest mismatch: got %x want %x", digest, want)
	}
}

func TestRandomValuesAreSizedAndDistinct(t *testing.T) {
	a, err := RandomTransactionKey()
	if err != nil {
		t.Fatalf("key a: %v", err)
	}
	b, err := RandomTransactionKey()
	if err != nil {
		t.Fatalf("key b: %v", err)
	}
	if len(a) != TransactionKeySize || len(b) != TransactionKeySize {
		t.Fatalf("unexpected key size: %d / %d", len(a), len(b))
	}
	if bytes.Equal(a, b) {
		t.Fatal("two random transaction keys collided; RNG is broken")
	}

	nonce, err := RandomNonce()
	if err != nil {
		t.Fatalf("nonce: %v", err)
	}
	if len(nonce) != NonceSize {
		t.Fatalf("unexpected nonce size: %d", len(nonce))
	}
}
