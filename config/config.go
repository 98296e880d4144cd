// Package config loads the EBICS client configuration from the process
// environment, with a .env file picked up for local development when
// present.
package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	ebicserrors "github.com/ebicsgo/ebics/errors"
	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
	"github.com/ebicsgo/ebics/keys"
)

// Config holds everything needed to build a client.EbicsConfig: bank
// connection details, caller identity, and the three RSA key pairs' PEM
// file paths.
type Config struct {
	// BankURL is the bank's EBICS HTTPS endpoint.
	BankURL string

	// Version selects the EBICS schema generation (H004 or H005).
	Version ns.ProtocolVersion

	// Revision is read from EBICS_REVISION and copied into
	// client.EbicsConfig. Request envelopes always carry Revision="1"; this
	// value is not written into them.
	Revision int

	// TLSInsecure disables certificate validation against BankURL. Sandbox
	// endpoints only; never set in production.
	TLSInsecure bool

	HostID    string
	PartnerID string
	UserID    string
	SystemID  string
	Product   string

	// AuthKeyPath/CryptKeyPath/SignKeyPath point at PEM-encoded RSA private
	// keys for the X002 (authentication), E002 (encryption), and A005
	// (signature) roles. All three may point at the same file when the
	// deployment reuses one key pair across roles.
	AuthKeyPath  string
	CryptKeyPath string
	SignKeyPath  string

	// LogLevel gates the slog handler: "debug" logs wire bodies, anything
	// else logs at Info and above.
	LogLevel string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first if present (dev convenience).
func Load() (*Config, error) {
	_ = godotenv.Load() // no-op if .env absent

	cfg := &Config{
		BankURL:      getEnv("EBICS_BANK_URL", ""),
		Version:      ns.ProtocolVersion(getEnv("EBICS_VERSION", string(ns.H004))),
		Revision:     getEnvInt("EBICS_REVISION", 1),
		TLSInsecure:  getEnvBool("EBICS_TLS_INSECURE", false),
		HostID:       getEnv("EBICS_HOST_ID", ""),
		PartnerID:    getEnv("EBICS_PARTNER_ID", ""),
		UserID:       getEnv("EBICS_USER_ID", ""),
		SystemID:     getEnv("EBICS_SYSTEM_ID", ""),
		Product:      getEnv("EBICS_PRODUCT", "ebicsgo"),
		AuthKeyPath:  getEnv("EBICS_AUTH_KEY_PATH", ""),
		CryptKeyPath: getEnv("EBICS_CRYPT_KEY_PATH", ""),
		SignKeyPath:  getEnv("EBICS_SIGN_KEY_PATH", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	if cfg.BankURL == "" {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "config.Load", ebicserrors.ErrMissingBankURL)
	}
	if cfg.HostID == "" {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "config.Load", ebicserrors.ErrMissingHostID)
	}
	if cfg.PartnerID == "" {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "config.Load", ebicserrors.ErrMissingPartnerID)
	}
	if cfg.UserID == "" {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "config.Load", ebicserrors.ErrMissingUserID)
	}
	if cfg.Version != ns.H004 && cfg.Version != ns.H005 {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "config.Load", ebicserrors.ErrUnsupportedAlgo)
	}

	return cfg, nil
}

// LoadKeyPair reads and parses the PEM private key at path, tagging it with
// version. Returns ErrMissingKeyPair for an empty path so callers building a
// key-management-only client (no upload/download capability yet) can skip
// keys they don't have.
func LoadKeyPair(path string, version keys.Version) (*keys.KeyPair, error) {
	if path == "" {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "config.LoadKeyPair", ebicserrors.ErrMissingKeyPair)
	}
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindConfiguration, "config.LoadKeyPair", err)
	}
	priv, err := keys.ParsePrivateKeyPEM(pemBytes)
	if err != nil {
		return nil, err
	}
	return &keys.KeyPair{Version: version, Private: priv}, nil
}

// Logger builds the slog.Logger the rest of the client uses, gated by
// LogLevel.
func (c *Config) Logger() *slog.Logger {
	level := slog.LevelInfo
	if c.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
