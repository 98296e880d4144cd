package commands

import (
	"testing"

	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
)

func testRC() RequestContext {
	return RequestContext{
		Version:         ns.H004,
		HostID:          "HOST",
		PartnerID:       "PARTNER",
		UserID:          "USER",
		TransactionID:   "TX1",
		BankAuthDigest:  []byte("authdigest"),
		BankCryptDigest: []byte("cryptdigest"),
	}
}

func testUploadMaterial(segments ...string) *UploadMaterial {
	return &UploadMaterial{CryptDigest: []byte("cryptdigest"), WrappedKey: []byte("wrappedkey"), Segments: segments}
}

func TestCctRoundTripEnvelopeShape(t *testing.T) {
	cmd := cctCommand{}
	if cmd.OrderType() != "CCT" || cmd.OrderAttribute() != ns.AttrOZHNN || cmd.Direction() != Upload {
		t.Fatalf("unexpected command identity: %+v", cmd)
	}

	doc, err := cmd.BuildInitRequest(testRC(), testUploadMaterial("c2VnMQ==", "c2VnMg=="))
	if err != nil {
		t.Fatalf("BuildInitRequest: %v", err)
	}
	orderType := doc.Root().FindElement("header/StaticHeader/OrderDetails/OrderType")
	if orderType == nil || orderType.Text() != "CCT" {
		t.Fatalf("expected OrderType CCT, got %v", orderType)
	}

	if _, err := cmd.BuildTransferRequest(testRC(), 2, testUploadMaterial("c2VnMQ==", "c2VnMg==")); err != nil {
		t.Fatalf("BuildTransferRequest: %v", err)
	}
	if _, err := cmd.BuildTransferRequest(testRC(), 3, testUploadMaterial("c2VnMQ==", "c2VnMg==")); err == nil {
		t.Fatal("expected out-of-range segment to fail")
	}
	if _, err := cmd.BuildReceiptRequest(testRC(), 0); err == nil {
		t.Fatal("CCT has no receipt phase, expected error")
	}
}

func TestCddRoundTripEnvelopeShape(t *testing.T) {
	cmd := cddCommand{}
	doc, err := cmd.BuildInitRequest(testRC(), testUploadMaterial("c2VnMQ=="))
	if err != nil {
		t.Fatalf("BuildInitRequest: %v", err)
	}
	orderType := doc.Root().FindElement("header/StaticHeader/OrderDetails/OrderType")
	if orderType == nil || orderType.Text() != "CDD" {
		t.Fatalf("expected OrderType CDD, got %v", orderType)
	}
	if _, err := cmd.BuildInitRequest(testRC(), &UploadMaterial{}); err == nil {
		t.Fatal("expected missing segments to fail")
	}
}

func TestSprUploadsFixedSpaceOrderData(t *testing.T) {
	if string(SprOrderData()) != " " {
		t.Fatalf("SprOrderData = %q, want single space", SprOrderData())
	}

	cmd := sprCommand{}
	doc, err := cmd.BuildInitRequest(testRC(), testUploadMaterial("IA=="))
	if err != nil {
		t.Fatalf("BuildInitRequest: %v", err)
	}
	if doc.Root().FindElement("header/StaticHeader/OrderDetails/OrderType").Text() != "SPR" {
		t.Fatal("expected OrderType SPR")
	}
	if _, err := cmd.BuildTransferRequest(testRC(), 1, testUploadMaterial("IA==")); err == nil {
		t.Fatal("SPR has no transfer phase, expected error")
	}
}
