package client

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beevik/etree"

	"github.com/ebicsgo/ebics/commands"
	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
	"github.com/ebicsgo/ebics/keys"
)

func testKeyPair(t *testing.T, version keys.Version) *keys.KeyPair {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return &keys.KeyPair{Version: version, Private: priv}
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  *EbicsConfig
	}{
		{"missing bank URL", &EbicsConfig{HostID: "H", PartnerID: "P", UserID: "U"}},
		{"missing host ID", &EbicsConfig{BankURL: "https://bank.example", PartnerID: "P", UserID: "U"}},
		{"missing partner ID", &EbicsConfig{BankURL: "https://bank.example", HostID: "H", UserID: "U"}},
		{"missing user ID", &EbicsConfig{BankURL: "https://bank.example", HostID: "H", PartnerID: "P"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); err == nil {
				t.Fatal("expected a configuration error")
			}
		})
	}
}

func TestINIAnnouncesSignaturePublicKey(t *testing.T) {
	sign := testKeyPair(t, keys.VersionA005)

	var sawRootTag, sawOrderType, sawOrderDataB64 string
	var sawAuthSignature bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		doc := etree.NewDocument()
		_ = doc.ReadFromBytes(body)
		sawRootTag = doc.Root().Tag
		sawAuthSignature = doc.Root().FindElement("AuthSignature") != nil
		if el := doc.Root().FindElement("header/StaticHeader/OrderDetails/OrderType"); el != nil {
			sawOrderType = el.Text()
		}
		if el := doc.Root().FindElement("body/DataTransfer/OrderData"); el != nil {
			sawOrderDataB64 = el.Text()
		}

		resp := etree.NewDocument()
		root := resp.CreateElement("ebicsKeyManagementResponse")
		header := root.CreateElement("header")
		header.CreateElement("MutableHeader").CreateElement("ReturnCode").SetText(ns.ReturnCodeOK)
		body2 := root.CreateElement("body")
		body2.CreateElement("ReturnCode").SetText(ns.ReturnCodeOK)
		out, _ := resp.WriteToBytes()
		w.Write(out)
	}))
	defer srv.Close()

	c, err := New(&EbicsConfig{
		BankURL:   srv.URL,
		Version:   ns.H004,
		HostID:    "HOST",
		PartnerID: "PARTNER",
		UserID:    "USER",
		Sign:      sign,
		Bank:      &keys.BankKeyStore{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := c.INI(context.Background())
	if err != nil {
		t.Fatalf("INI: %v", err)
	}
	if out.TechnicalReturnCode != ns.ReturnCodeOK {
		t.Fatalf("TechnicalReturnCode = %q, want %q", out.TechnicalReturnCode, ns.ReturnCodeOK)
	}
	if sawOrderType != "INI" {
		t.Fatalf("bank saw OrderType %q, want INI", sawOrderType)
	}
	if sawRootTag != "ebicsUnsecuredRequest" {
		t.Fatalf("request envelope root = %q, want ebicsUnsecuredRequest", sawRootTag)
	}
	if sawAuthSignature {
		t.Fatal("unsecured INI request must not carry an AuthSignature")
	}

	// The compressed Base64 order data must inflate back to a
	// SignaturePubKeyOrderData document re-emitting the key exactly.
	orderData, err := commands.DecodeAndInflateOrderData(sawOrderDataB64)
	if err != nil {
		t.Fatalf("DecodeAndInflateOrderData: %v", err)
	}
	orderDoc := etree.NewDocument()
	if err := orderDoc.ReadFromBytes(orderData); err != nil {
		t.Fatalf("parse order data: %v", err)
	}
	if orderDoc.Root().Tag != "SignaturePubKeyOrderData" {
		t.Fatalf("order data root = %q, want SignaturePubKeyOrderData", orderDoc.Root().Tag)
	}
	modEl := orderDoc.FindElement("//RSAKeyValue/Modulus")
	if modEl == nil || modEl.Text() != fmt.Sprintf("%x", sign.Private.PublicKey.N) {
		t.Fatal("order data modulus does not re-emit the signature public key exactly")
	}
	expEl := orderDoc.FindElement("//RSAKeyValue/Exponent")
	if expEl == nil || expEl.Text() != fmt.Sprintf("%x", sign.Private.PublicKey.E) {
		t.Fatal("order data exponent does not re-emit the signature public key exactly")
	}
}
