// Package keys provides PEM/X.509 loading for the three EBICS key pairs
// (signature A005, authentication X002, encryption E002) and a read-mostly
// store for the bank's public keys learned through HPB.
//
// Private-key parsing tries the narrower, more common PKCS#1 encoding first
// and only falls back to the general PKCS#8 container; public-key parsing
// accepts an X.509 certificate or a PKIX public key.
package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"time"

	ebicserrors "github.com/ebicsgo/ebics/errors"
	"github.com/ebicsgo/ebics/internal/xcrypto"
)

// Version tags an RSA key pair with the EBICS key-usage it serves.
type Version string

const (
	VersionA005 Version = "A005" // identification/authentication signature
	VersionX002 Version = "X002" // authentication (transport)
	VersionE002 Version = "E002" // encryption
)

// KeyPair couples an RSA key with the EBICS version it was generated for
// and the moment it was created, for use in order-type params that report
// key age (e.g. HPB/HIA key-history scenarios).
type KeyPair struct {
	Version   Version
	Private   *rsa.PrivateKey
	CreatedAt time.Time
}

// Digest returns the EBICS public-key digest (SHA-256 of the lowercase-hex
// "<exponent> <modulus>" ASCII string) for this pair's public half.
func (k *KeyPair) Digest() []byte {
	pub := &k.Private.PublicKey
	return xcrypto.PubkeyDigest(pub.N, pub.E)
}

// ParsePrivateKeyPEM decodes a PEM block and parses an RSA private key,
// trying PKCS#1 first and falling back to PKCS#8.
func ParsePrivateKeyPEM(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "keys.ParsePrivateKeyPEM", ebicserrors.ErrMissingKeyPair)
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err == nil {
		return key, nil
	}

	parsed, err2 := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err2 != nil {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "keys.ParsePrivateKeyPEM", err)
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "keys.ParsePrivateKeyPEM", ebicserrors.ErrUnsupportedAlgo)
	}
	return rsaKey, nil
}

// ParsePublicKeyPEM decodes a PEM block holding either a PKIX public key or
// an X.509 certificate and returns the embedded RSA public key.
func ParsePublicKeyPEM(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "keys.ParsePublicKeyPEM", ebicserrors.ErrMissingKeyPair)
	}

	if cert, err := x509.ParseCertificate(block.Bytes); err == nil {
		if pub, ok := cert.PublicKey.(*rsa.PublicKey); ok {
			return pub, nil
		}
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "keys.ParsePublicKeyPEM", ebicserrors.ErrUnsupportedAlgo)
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "keys.ParsePublicKeyPEM", err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "keys.ParsePublicKeyPEM", ebicserrors.ErrUnsupportedAlgo)
	}
	return pub, nil
}

// NewKeyPair generates a fresh RSA key pair for the given version. The
// client façade does not call it: INI/HIA announce key pairs the caller
// supplies.
func NewKeyPair(version Version, bits int) (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindCrypto, "keys.NewKeyPair", err)
	}
	return &KeyPair{Version: version, Private: priv, CreatedAt: time.Now().UTC()}, nil
}

// BankParams is the response model for HPD: the bank's published access
// parameters and protocol parameters, learned once per host and cached
// alongside its public keys.
type BankParams struct {
	AccessParams   map[string]string
	ProtocolParams ProtocolParams
}

// ProtocolParams is HPD's typed protocol-capability payload: the protocol
// versions the bank speaks and its recovery/X.509 policy flags.
type ProtocolParams struct {
	Protocols          []string
	RecoverySupported  bool
	X509DataPersistent bool
}

// BankKeyStore holds the bank's authentication and encryption public keys
// (learned via HPB) plus its HPD parameters. It is written once per
// transaction that refreshes bank keys and read on every subsequent
// request build and response verification, so access is guarded by an
// RWMutex rather than treated as immutable.
type BankKeyStore struct {
	mu sync.RWMutex

	authPub  *rsa.PublicKey
	authDig  []byte
	cryptPub *rsa.PublicKey
	cryptDig []byte
	params   *BankParams
	loadedAt time.Time
}

// SetKeys installs the bank's authentication and encryption public keys,
// deriving and caching their digests.
func (s *BankKeyStore) SetKeys(authPub, cryptPub *rsa.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authPub = authPub
	s.cryptPub = cryptPub
	s.authDig = xcrypto.PubkeyDigest(authPub.N, authPub.E)
	s.cryptDig = xcrypto.PubkeyDigest(cryptPub.N, cryptPub.E)
	s.loadedAt = time.Now().UTC()
}

// SetParams installs the bank's HPD parameters.
func (s *BankKeyStore) SetParams(p *BankParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
}

// AuthKey returns the bank's authentication public key and its digest, or
// ebicserrors.ErrBankKeysNotLoaded if HPB has not yet been run.
func (s *BankKeyStore) AuthKey() (*rsa.PublicKey, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.authPub == nil {
		return nil, nil, ebicserrors.New(ebicserrors.KindProtocol, "keys.BankKeyStore.AuthKey", ebicserrors.ErrBankKeysNotLoaded)
	}
	return s.authPub, s.authDig, nil
}

// CryptKey returns the bank's encryption public key and its digest, or
// ebicserrors.ErrBankKeysNotLoaded if HPB has not yet been run.
func (s *BankKeyStore) CryptKey() (*rsa.PublicKey, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cryptPub == nil {
		return nil, nil, ebicserrors.New(ebicserrors.KindProtocol, "keys.BankKeyStore.CryptKey", ebicserrors.ErrBankKeysNotLoaded)
	}
	return s.cryptPub, s.cryptDig, nil
}

// Params returns the bank's cached HPD parameters, if any.
func (s *BankKeyStore) Params() *BankParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// Loaded reports whether HPB has populated this store.
func (s *BankKeyStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authPub != nil && s.cryptPub != nil
}
