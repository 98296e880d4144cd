// Package client is the thin façade over the transaction engine:
// EbicsConfig is built once by the caller and never mutated except for the
// bank key store HPB populates, and Client exposes one method per order
// type, each of which builds a transaction.Identity/Secured pair and hands
// the right commands.Command to the engine. Dependencies are wired at
// construction; configuration errors fail fast.
package client

import (
	"context"
	"crypto/rsa"
	"log/slog"
	"time"

	"github.com/ebicsgo/ebics/commands"
	ebicserrors "github.com/ebicsgo/ebics/errors"
	"github.com/ebicsgo/ebics/internal/codec"
	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
	"github.com/ebicsgo/ebics/internal/xcrypto"
	"github.com/ebicsgo/ebics/keys"
	"github.com/ebicsgo/ebics/transaction"
	"github.com/ebicsgo/ebics/transport"
)

// EbicsConfig is the immutable per-client configuration. The only field
// that changes after construction is Bank, which HPB populates once and
// which is itself internally synchronized (keys.BankKeyStore), so
// EbicsConfig as a whole stays safe to share across concurrent
// transactions.
type EbicsConfig struct {
	BankURL     string
	Version     ns.ProtocolVersion
	Revision    int
	TLSInsecure bool

	HostID    string
	PartnerID string
	UserID    string
	SystemID  string
	Product   string

	Auth  *keys.KeyPair // X002
	Crypt *keys.KeyPair // E002
	Sign  *keys.KeyPair // A005

	Bank *keys.BankKeyStore

	Logger *slog.Logger
}

// Client configures a transaction.Engine over cfg and exposes one method per
// order type.
type Client struct {
	cfg    *EbicsConfig
	engine *transaction.Engine
	logger *slog.Logger
}

// New builds a Client. cfg.Bank may be nil for a brand-new partner (no HPB
// run yet); New then allocates an empty store.
func New(cfg *EbicsConfig) (*Client, error) {
	if cfg.BankURL == "" {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "client.New", ebicserrors.ErrMissingBankURL)
	}
	if cfg.HostID == "" {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "client.New", ebicserrors.ErrMissingHostID)
	}
	if cfg.PartnerID == "" {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "client.New", ebicserrors.ErrMissingPartnerID)
	}
	if cfg.UserID == "" {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "client.New", ebicserrors.ErrMissingUserID)
	}
	if cfg.Bank == nil {
		cfg.Bank = &keys.BankKeyStore{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := transport.New(cfg.BankURL, transport.Options{InsecureSkipVerify: cfg.TLSInsecure, Logger: logger})
	return &Client{
		cfg:    cfg,
		engine: transaction.New(httpClient, logger),
		logger: logger,
	}, nil
}

func (c *Client) identity() transaction.Identity {
	return transaction.Identity{
		Version:   c.cfg.Version,
		HostID:    c.cfg.HostID,
		PartnerID: c.cfg.PartnerID,
		UserID:    c.cfg.UserID,
		SystemID:  c.cfg.SystemID,
		Product:   c.cfg.Product,
	}
}

// bankDigests returns the bank's current auth/encryption key digests, or
// nil,nil if HPB has not yet run (the caller is expected to only use this
// for order types that require it; INI/HIA never do).
func (c *Client) bankDigests() (authDigest, cryptDigest []byte) {
	if c.cfg.Bank == nil || !c.cfg.Bank.Loaded() {
		return nil, nil
	}
	_, authDigest, _ = c.cfg.Bank.AuthKey()
	_, cryptDigest, _ = c.cfg.Bank.CryptKey()
	return authDigest, cryptDigest
}

// securedAuthenticated builds the Secured keys every order type but INI/HIA
// uses: sign with the client's own Auth (X002) key, verify with the bank's
// Auth public key, and carry the client's Crypt (E002) private key for
// download session-key unwrapping.
func (c *Client) securedAuthenticated() (transaction.Secured, error) {
	if c.cfg.Auth == nil {
		return transaction.Secured{}, ebicserrors.New(ebicserrors.KindConfiguration, "client.securedAuthenticated", ebicserrors.ErrMissingKeyPair)
	}
	bankAuthPub, _, err := c.cfg.Bank.AuthKey()
	if err != nil {
		return transaction.Secured{}, err
	}
	var cryptPriv *rsa.PrivateKey
	if c.cfg.Crypt != nil {
		cryptPriv = c.cfg.Crypt.Private
	}
	return transaction.Secured{
		SignKey:   c.cfg.Auth.Private,
		VerifyKey: bankAuthPub,
		CryptPriv: cryptPriv,
	}, nil
}

// INI announces the client's signature (A005) public key.
func (c *Client) INI(ctx context.Context) (transaction.Outcome, error) {
	if c.cfg.Sign == nil {
		return transaction.Outcome{}, ebicserrors.New(ebicserrors.KindConfiguration, "client.INI", ebicserrors.ErrMissingKeyPair)
	}
	orderDataXML, err := commands.BuildSignaturePubKeyOrderData(commands.RequestContext{PartnerID: c.cfg.PartnerID, UserID: c.cfg.UserID, Timestamp: nowTimestamp()}, &c.cfg.Sign.Private.PublicKey)
	if err != nil {
		return transaction.Outcome{}, ebicserrors.New(ebicserrors.KindCreateRequest, "client.INI", err)
	}
	orderDataB64, err := commands.DeflateAndEncodeOrderData(orderDataXML)
	if err != nil {
		return transaction.Outcome{}, err
	}
	cmd, _ := commands.ByOrderType("INI")
	return c.engine.Run(ctx, cmd, c.identity(), transaction.Secured{}, nil, nil, &commands.UploadMaterial{Segments: []string{orderDataB64}})
}

// HIA announces the client's authentication (X002) and encryption (E002)
// public keys.
func (c *Client) HIA(ctx context.Context) (transaction.Outcome, error) {
	if c.cfg.Auth == nil || c.cfg.Crypt == nil {
		return transaction.Outcome{}, ebicserrors.New(ebicserrors.KindConfiguration, "client.HIA", ebicserrors.ErrMissingKeyPair)
	}
	orderDataXML, err := commands.BuildHIARequestOrderData(commands.RequestContext{PartnerID: c.cfg.PartnerID, UserID: c.cfg.UserID, Timestamp: nowTimestamp()}, &c.cfg.Auth.Private.PublicKey, &c.cfg.Crypt.Private.PublicKey)
	if err != nil {
		return transaction.Outcome{}, ebicserrors.New(ebicserrors.KindCreateRequest, "client.HIA", err)
	}
	orderDataB64, err := commands.DeflateAndEncodeOrderData(orderDataXML)
	if err != nil {
		return transaction.Outcome{}, err
	}
	cmd, _ := commands.ByOrderType("HIA")
	return c.engine.Run(ctx, cmd, c.identity(), transaction.Secured{}, nil, nil, &commands.UploadMaterial{Segments: []string{orderDataB64}})
}

// HPB downloads the bank's current authentication and encryption public
// keys and installs them into cfg.Bank.
func (c *Client) HPB(ctx context.Context) (transaction.Outcome, error) {
	if c.cfg.Auth == nil {
		return transaction.Outcome{}, ebicserrors.New(ebicserrors.KindConfiguration, "client.HPB", ebicserrors.ErrMissingKeyPair)
	}
	cmd, _ := commands.ByOrderType("HPB")

	var sec transaction.Secured
	sec.SignKey = c.cfg.Auth.Private
	if c.cfg.Bank != nil && c.cfg.Bank.Loaded() {
		sec.VerifyKey, _, _ = c.cfg.Bank.AuthKey()
	}
	authDigest, cryptDigest := c.bankDigests()

	out, err := c.engine.Run(ctx, cmd, c.identity(), sec, authDigest, cryptDigest, nil)
	if err != nil {
		return transaction.Outcome{}, err
	}
	if hpb, ok := out.Result.Payload.(commands.HpbResult); ok {
		c.cfg.Bank.SetKeys(hpb.AuthKey, hpb.CryptKey)
	}
	return out, nil
}

// HPD downloads the bank's published access and protocol parameters and
// caches them alongside the bank's keys.
func (c *Client) HPD(ctx context.Context) (transaction.Outcome, error) {
	sec, err := c.securedAuthenticated()
	if err != nil {
		return transaction.Outcome{}, err
	}
	authDigest, cryptDigest := c.bankDigests()
	cmd, _ := commands.ByOrderType("HPD")
	out, err := c.engine.Run(ctx, cmd, c.identity(), sec, authDigest, cryptDigest, nil)
	if err != nil {
		return transaction.Outcome{}, err
	}
	if params, ok := out.Result.Payload.(keys.BankParams); ok {
		c.cfg.Bank.SetParams(&params)
	}
	return out, nil
}

// PTK downloads the protocol log.
func (c *Client) PTK(ctx context.Context) (transaction.Outcome, error) {
	sec, err := c.securedAuthenticated()
	if err != nil {
		return transaction.Outcome{}, err
	}
	authDigest, cryptDigest := c.bankDigests()
	cmd, _ := commands.ByOrderType("PTK")
	return c.engine.Run(ctx, cmd, c.identity(), sec, authDigest, cryptDigest, nil)
}

// STA downloads an account statement (MT940).
func (c *Client) STA(ctx context.Context) (transaction.Outcome, error) {
	sec, err := c.securedAuthenticated()
	if err != nil {
		return transaction.Outcome{}, err
	}
	authDigest, cryptDigest := c.bankDigests()
	cmd, _ := commands.ByOrderType("STA")
	return c.engine.Run(ctx, cmd, c.identity(), sec, authDigest, cryptDigest, nil)
}

// CCT uploads a SEPA credit transfer.
func (c *Client) CCT(ctx context.Context, params commands.CctParams) (transaction.Outcome, error) {
	return c.upload(ctx, "CCT", func() ([]byte, error) { return commands.BuildPain001Document(params) })
}

// CDD uploads a SEPA direct debit.
func (c *Client) CDD(ctx context.Context, params commands.CddParams) (transaction.Outcome, error) {
	return c.upload(ctx, "CDD", func() ([]byte, error) { return commands.BuildPain008Document(params) })
}

// SPR suspends the partner's EBICS access.
func (c *Client) SPR(ctx context.Context) (transaction.Outcome, error) {
	return c.upload(ctx, "SPR", func() ([]byte, error) { return commands.SprOrderData(), nil })
}

// upload composes the order-data payload produced by buildPayload through
// the full codec pipeline (deflate -> AES -> segment -> RSA-wrap) and
// drives it through an authenticated upload command.
func (c *Client) upload(ctx context.Context, orderType string, buildPayload func() ([]byte, error)) (transaction.Outcome, error) {
	sec, err := c.securedAuthenticated()
	if err != nil {
		return transaction.Outcome{}, err
	}
	_, cryptPub, err := c.bankCryptPub()
	if err != nil {
		return transaction.Outcome{}, err
	}
	payload, err := buildPayload()
	if err != nil {
		return transaction.Outcome{}, ebicserrors.New(ebicserrors.KindCreateRequest, "client.upload", err)
	}
	composed, err := codec.Compose(payload, cryptPub)
	if err != nil {
		return transaction.Outcome{}, err
	}
	authDigest, cryptDigest := c.bankDigests()
	upload := &commands.UploadMaterial{
		CryptDigest: cryptDigest,
		WrappedKey:  composed.WrappedKey,
		Segments:    composed.SegmentsBase64,
	}
	cmd, _ := commands.ByOrderType(orderType)
	return c.engine.Run(ctx, cmd, c.identity(), sec, authDigest, cryptDigest, upload)
}

func (c *Client) bankCryptPub() (digest []byte, pub *rsa.PublicKey, err error) {
	pub, digest, err = c.cfg.Bank.CryptKey()
	return digest, pub, err
}

func nowTimestamp() string {
	return xcrypto.UTCTimestamp(time.Time{})
}
