package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"testing"
)

func testRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func pemEncodePKCS1(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}

func pemEncodePKCS8(t *testing.T, key *rsa.PrivateKey) []byte {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal pkcs8: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

func pemEncodePublic(t *testing.T, pub *rsa.PublicKey) []byte {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		t.Fatalf("marshal pkix: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

func TestParsePrivateKeyPEMAcceptsPKCS1(t *testing.T) {
	key := testRSAKey(t)
	parsed, err := ParsePrivateKeyPEM(pemEncodePKCS1(key))
	if err != nil {
		t.Fatalf("ParsePrivateKeyPEM: %v", err)
	}
	if parsed.N.Cmp(key.N) != 0 {
		t.Fatal("parsed modulus mismatch")
	}
}

func TestParsePrivateKeyPEMFallsBackToPKCS8(t *testing.T) {
	key := testRSAKey(t)
	parsed, err := ParsePrivateKeyPEM(pemEncodePKCS8(t, key))
	if err != nil {
		t.Fatalf("ParsePrivateKeyPEM: %v", err)
	}
	if parsed.N.Cmp(key.N) != 0 {
		t.Fatal("parsed modulus mismatch")
	}
}

func TestParsePrivateKeyPEMRejectsGarbage(t *testing.T) {
	if _, err := ParsePrivateKeyPEM([]byte("not pem")); err == nil {
		t.Fatal("expected error for non-PEM input")
	}
}

func TestParsePublicKeyPEMAcceptsPKIX(t *testing.T) {
	key := testRSAKey(t)
	parsed, err := ParsePublicKeyPEM(pemEncodePublic(t, &key.PublicKey))
	if err != nil {
		t.Fatalf("ParsePublicKeyPEM: %v", err)
	}
	if parsed.N.Cmp(key.N) != 0 {
		t.Fatal("parsed modulus mismatch")
	}
}

func TestKeyPairDigestMatchesPubkeyDigestRule(t *testing.T) {
	key := testRSAKey(t)
	kp := &KeyPair{Version: VersionA005, Private: key}
	d1 := kp.Digest()
	d2 := kp.Digest()
	if len(d1) != 32 {
		t.Fatalf("expected 32-byte SHA-256 digest, got %d", len(d1))
	}
	if string(d1) != string(d2) {
		t.Fatal("digest must be deterministic for the same key")
	}
	want := sha256.Sum256([]byte(fmt.Sprintf("%x %x", key.E, key.N)))
	if string(d1) != string(want[:]) {
		t.Fatal("digest is not SHA-256 of the lowercase-hex \"<exponent> <modulus>\" string")
	}
}

func TestNewKeyPairGeneratesDistinctKeys(t *testing.T) {
	a, err := NewKeyPair(VersionE002, 1024)
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	b, err := NewKeyPair(VersionE002, 1024)
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	if a.Private.N.Cmp(b.Private.N) == 0 {
		t.Fatal("expected two independently generated keys to differ")
	}
	if a.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}
}

func TestBankKeyStoreNotLoadedReturnsError(t *testing.T) {
	var store BankKeyStore
	if store.Loaded() {
		t.Fatal("expected fresh store to report not loaded")
	}
	if _, _, err := store.AuthKey(); err == nil {
		t.Fatal("expected error reading AuthKey before SetKeys")
	}
	if _, _, err := store.CryptKey(); err == nil {
		t.Fatal("expected error reading CryptKey before SetKeys")
	}
}

func TestBankKeyStoreSetAndReadKeys(t *testing.T) {
	var store BankKeyStore
	authKey := testRSAKey(t)
	cryptKey := testRSAKey(t)

	store.SetKeys(&authKey.PublicKey, &cryptKey.PublicKey)
	if !store.Loaded() {
		t.Fatal("expected store to report loaded after SetKeys")
	}

	pub, dig, err := store.AuthKey()
	if err != nil {
		t.Fatalf("AuthKey: %v", err)
	}
	if pub.N.Cmp(authKey.N) != 0 {
		t.Fatal("auth key mismatch")
	}
	if len(dig) != 32 {
		t.Fatalf("expected 32-byte digest, got %d", len(dig))
	}

	store.SetParams(&BankParams{
		AccessParams:   map[string]string{"MaxTransactions": "15"},
		ProtocolParams: ProtocolParams{Protocols: []string{"H004"}},
	})
	if store.Params() == nil {
		t.Fatal("expected params to be set")
	}
}
