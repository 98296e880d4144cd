package xcrypto

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
)

// testRSAKey generates a small-but-valid RSA key for fast unit tests. EBICS
// production keys are 2048-4096 bit; tests use 1024 bit purely for speed.
func testRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generate test key: %v", err)
	}
	return key
}
