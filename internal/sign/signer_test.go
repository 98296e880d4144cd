package sign

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/beevik/etree"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

// buildTestRequest mimics the shape of an ebicsRequest: a root element with
// a default EBICS namespace declaration and three authenticated children.
func buildTestRequest() *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement("ebicsRequest")
	root.CreateAttr("xmlns", "urn:org:ebics:H004")
	root.CreateAttr("Version", "H004")

	header := root.CreateElement("header")
	static := header.CreateElement("StaticHeader")
	static.CreateAttr("authenticate", "true")
	static.CreateElement("HostID").SetText("BANKHOST")
	mutable := header.CreateElement("MutableHeader")
	mutable.CreateAttr("authenticate", "true")
	mutable.CreateElement("TransactionPhase").SetText("Initialisation")

	body := root.CreateElement("body")
	body.CreateAttr("authenticate", "true")
	dataTransfer := body.CreateElement("DataTransfer")
	dataTransfer.CreateElement("OrderData").SetText("c29tZSBkYXRh")

	return doc
}

func TestSignVerifyRoundTrip(t *testing.T) {
	key := testKey(t)
	doc := buildTestRequest()
	root := doc.Root()

	if err := Produce(root, key); err != nil {
		t.Fatalf("Produce: %v", err)
	}

	if !Verify(root, &key.PublicKey) {
		t.Fatal("expected freshly produced signature to verify")
	}
}

func TestVerifyFailsOnTamperedAuthenticatedSubtree(t *testing.T) {
	key := testKey(t)
	doc := buildTestRequest()
	root := doc.Root()

	if err := Produce(root, key); err != nil {
		t.Fatalf("Produce: %v", err)
	}

	// Mutate a single byte inside an authenticated subtree (StaticHeader).
	hostID := root.FindElement("header/StaticHeader/HostID")
	hostID.SetText("XANKHOST")

	if Verify(root, &key.PublicKey) {
		t.Fatal("expected verification to fail after tampering with authenticated subtree")
	}
}

func TestVerifyIgnoresChangesOutsideAuthenticatedSubtrees(t *testing.T) {
	key := testKey(t)
	doc := buildTestRequest()
	root := doc.Root()

	if err := Produce(root, key); err != nil {
		t.Fatalf("Produce: %v", err)
	}

	// Add a sibling attribute on the root (outside any authenticate="true"
	// element) after signing; this must not affect verification.
	root.CreateAttr("Revision", "1")

	if !Verify(root, &key.PublicKey) {
		t.Fatal("expected verification to succeed: change was outside authenticated subtrees")
	}
}

func TestVerifyFailsOnWrongKey(t *testing.T) {
	key := testKey(t)
	other := testKey(t)
	doc := buildTestRequest()
	root := doc.Root()

	if err := Produce(root, key); err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if Verify(root, &other.PublicKey) {
		t.Fatal("expected verification to fail against the wrong public key")
	}
}

func TestVerifyMalformedInputReturnsFalse(t *testing.T) {
	doc := etree.NewDocument()
	root := doc.CreateElement("ebicsRequest")
	root.CreateElement("header").CreateAttr("authenticate", "true")

	key := testKey(t)
	if Verify(root, &key.PublicKey) {
		t.Fatal("expected false for a document with no AuthSignature")
	}
}

func TestCanonicalizationStableUnderAttributeReordering(t *testing.T) {
	a := etree.NewElement("Foo")
	a.CreateAttr("b", "2")
	a.CreateAttr("a", "1")

	b := etree.NewElement("Foo")
	b.CreateAttr("a", "1")
	b.CreateAttr("b", "2")

	if string(Canonicalize(a)) != string(Canonicalize(b)) {
		t.Fatalf("expected canonical forms to match regardless of attribute order: %q vs %q",
			Canonicalize(a), Canonicalize(b))
	}
}

func TestProduceFailsWithoutAuthenticatedNode(t *testing.T) {
	doc := etree.NewDocument()
	root := doc.CreateElement("ebicsUnsecuredRequest")
	root.CreateElement("header")

	key := testKey(t)
	if err := Produce(root, key); err == nil {
		t.Fatal("expected error when no authenticate=\"true\" element exists")
	}
}
