package commands

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/beevik/etree"
)

func buildHpbFixture(t *testing.T, authPub, cryptPub *rsa.PublicKey) []byte {
	t.Helper()
	doc := etree.NewDocument()
	root := doc.CreateElement("HPBResponseOrderData")

	authInfo := root.CreateElement("AuthenticationPubKeyInfo")
	buildRSAKeyValue(authInfo.CreateElement("PubKeyValue"), authPub)
	authInfo.CreateElement("AuthenticationVersion").SetText("X002")

	cryptInfo := root.CreateElement("EncryptionPubKeyInfo")
	buildRSAKeyValue(cryptInfo.CreateElement("PubKeyValue"), cryptPub)
	cryptInfo.CreateElement("EncryptionVersion").SetText("E002")

	out, err := doc.WriteToBytes()
	if err != nil {
		t.Fatalf("serialize fixture: %v", err)
	}
	return out
}

func TestHpbDeserializeParsesBankKeys(t *testing.T) {
	authPriv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generate auth key: %v", err)
	}
	cryptPriv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generate crypt key: %v", err)
	}

	payload := buildHpbFixture(t, &authPriv.PublicKey, &cryptPriv.PublicKey)

	result, err := hpbCommand{}.Deserialize(payload)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	hpb, ok := result.Payload.(HpbResult)
	if !ok {
		t.Fatalf("Payload type = %T, want HpbResult", result.Payload)
	}
	if hpb.AuthKey.N.Cmp(authPriv.PublicKey.N) != 0 || hpb.AuthKey.E != authPriv.PublicKey.E {
		t.Fatal("recovered AuthKey does not match the original authentication public key")
	}
	if hpb.CryptKey.N.Cmp(cryptPriv.PublicKey.N) != 0 || hpb.CryptKey.E != cryptPriv.PublicKey.E {
		t.Fatal("recovered CryptKey does not match the original encryption public key")
	}
	if len(hpb.AuthDigest) == 0 || len(hpb.CryptDigest) == 0 {
		t.Fatal("expected non-empty key digests")
	}
}

func TestHpbDeserializeMissingKeyInfoFails(t *testing.T) {
	doc := etree.NewDocument()
	doc.CreateElement("HPBResponseOrderData")
	out, _ := doc.WriteToBytes()

	if _, err := (hpbCommand{}).Deserialize(out); err == nil {
		t.Fatal("expected an error when key info elements are absent")
	}
}

func TestHpbBuildRequestsUseDownloadShape(t *testing.T) {
	cmd := hpbCommand{}
	if cmd.OrderType() != "HPB" || cmd.Direction() != Download {
		t.Fatalf("unexpected command identity: %+v", cmd)
	}
	if _, err := cmd.BuildTransferRequest(testRC(), 0, nil); err == nil {
		t.Fatal("HPB has no transfer phase, expected error")
	}
}
