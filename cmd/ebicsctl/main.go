// Command ebicsctl drives one EBICS order type per invocation against a
// configured bank host: load config, fail fast on configuration errors,
// construct the dependency graph once, then run.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/ebicsgo/ebics/client"
	"github.com/ebicsgo/ebics/commands"
	"github.com/ebicsgo/ebics/config"
	"github.com/ebicsgo/ebics/keys"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	orderType := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	ebicsCfg, err := buildEbicsConfig(cfg, orderType)
	if err != nil {
		logger.Error("key loading error", "err", err)
		os.Exit(1)
	}

	c, err := client.New(ebicsCfg)
	if err != nil {
		logger.Error("client configuration error", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	var runErr error

	switch orderType {
	case "INI":
		out, e := c.INI(ctx)
		printResult(out, e)
		runErr = e
	case "HIA":
		out, e := c.HIA(ctx)
		printResult(out, e)
		runErr = e
	case "HPB":
		out, e := c.HPB(ctx)
		printResult(out, e)
		runErr = e
	case "HPD":
		out, e := c.HPD(ctx)
		printResult(out, e)
		runErr = e
	case "PTK":
		out, e := c.PTK(ctx)
		printResult(out, e)
		runErr = e
	case "STA":
		out, e := c.STA(ctx)
		printResult(out, e)
		runErr = e
	case "CCT":
		var params commands.CctParams
		if e := json.NewDecoder(os.Stdin).Decode(&params); e != nil {
			logger.Error("invalid CCT params on stdin", "err", e)
			os.Exit(1)
		}
		out, e := c.CCT(ctx, params)
		printResult(out, e)
		runErr = e
	case "CDD":
		var params commands.CddParams
		if e := json.NewDecoder(os.Stdin).Decode(&params); e != nil {
			logger.Error("invalid CDD params on stdin", "err", e)
			os.Exit(1)
		}
		out, e := c.CDD(ctx, params)
		printResult(out, e)
		runErr = e
	case "SPR":
		out, e := c.SPR(ctx)
		printResult(out, e)
		runErr = e
	default:
		usage()
		os.Exit(1)
	}

	if runErr != nil {
		logger.Error("transaction failed", "order_type", orderType, "err", runErr)
		os.Exit(1)
	}
}

// buildEbicsConfig loads the key material an order type needs. INI/HIA need
// only the keys they are announcing; everything else needs the
// authentication and encryption keys plus the bank's cached keys (loaded
// from HPB out-of-band in a real deployment; here an empty store so a fresh
// HPB run populates it in-process).
func buildEbicsConfig(cfg *config.Config, orderType string) (*client.EbicsConfig, error) {
	ec := &client.EbicsConfig{
		BankURL:     cfg.BankURL,
		Version:     cfg.Version,
		Revision:    cfg.Revision,
		TLSInsecure: cfg.TLSInsecure,
		HostID:      cfg.HostID,
		PartnerID:   cfg.PartnerID,
		UserID:      cfg.UserID,
		SystemID:    cfg.SystemID,
		Product:     cfg.Product,
		Bank:        &keys.BankKeyStore{},
	}

	switch orderType {
	case "INI":
		sign, err := config.LoadKeyPair(cfg.SignKeyPath, keys.VersionA005)
		if err != nil {
			return nil, err
		}
		ec.Sign = sign
	case "HIA":
		auth, err := config.LoadKeyPair(cfg.AuthKeyPath, keys.VersionX002)
		if err != nil {
			return nil, err
		}
		crypt, err := config.LoadKeyPair(cfg.CryptKeyPath, keys.VersionE002)
		if err != nil {
			return nil, err
		}
		ec.Auth, ec.Crypt = auth, crypt
	default:
		auth, err := config.LoadKeyPair(cfg.AuthKeyPath, keys.VersionX002)
		if err != nil {
			return nil, err
		}
		crypt, err := config.LoadKeyPair(cfg.CryptKeyPath, keys.VersionE002)
		if err != nil {
			return nil, err
		}
		ec.Auth, ec.Crypt = auth, crypt
	}
	return ec, nil
}

func printResult(out interface{}, err error) {
	if err != nil {
		return
	}
	enc, mErr := json.MarshalIndent(out, "", "  ")
	if mErr != nil {
		fmt.Fprintln(os.Stderr, mErr)
		return
	}
	fmt.Println(string(enc))
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ebicsctl <INI|HIA|HPB|HPD|PTK|STA|CCT|CDD|SPR>")
	fmt.Fprintln(os.Stderr, "  CCT and CDD read their payment parameters as JSON from stdin")
}
