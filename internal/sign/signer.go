// Package sign implements the constrained subset of enveloped XML-DSIG that
// EBICS requires: SHA-256 digests over the elements marked
// authenticate="true", a single C14N-10 transform, RSA/PKCS#1v1.5 over the
// canonicalized SignedInfo, and a custom
// "#xpointer(//*[@authenticate='true'])" reference instead of a same-document
// fragment URI.
package sign

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"

	"github.com/beevik/etree"

	ebicserrors "github.com/ebicsgo/ebics/errors"
	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
)

// Produce signs root's authenticated subtrees with key and appends an
// AuthSignature element as root's last child.
func Produce(root *etree.Element, key *rsa.PrivateKey) error {
	nodes := root.FindElements(ns.AuthenticatedNodesXPath)
	if len(nodes) == 0 {
		return ebicserrors.New(ebicserrors.KindCreateRequest, "sign.Produce", ebicserrors.ErrNoAuthenticatedNode)
	}

	digest, err := digestAuthenticatedNodes(nodes)
	if err != nil {
		return ebicserrors.New(ebicserrors.KindCreateRequest, "sign.Produce", err)
	}

	signedInfo := buildSignedInfo(digest)
	siDigest := sha256.Sum256(Canonicalize(signedInfo))

	sigBytes, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, siDigest[:])
	if err != nil {
		return ebicserrors.New(ebicserrors.KindCrypto, "sign.Produce", err)
	}

	authSig := root.CreateElement(ns.ElAuthSignature)
	dsSig := authSig.CreateElement("Signature")
	dsSig.CreateAttr("xmlns:ds", ns.NSXMLDSig)
	dsSig.Space = "ds"
	dsSig.AddChild(signedInfo)
	sigValue := dsSig.CreateElement("SignatureValue")
	sigValue.Space = "ds"
	sigValue.SetText(base64.StdEncoding.EncodeToString(sigBytes))

	return nil
}

// Verify reports whether root's AuthSignature is a valid signature over
// root's authenticated subtrees under pub. Any malformed input (missing
// elements, bad Base64, digest mismatch, signature mismatch) returns false
// rather than an error.
func Verify(root *etree.Element, pub *rsa.PublicKey) bool {
	authSig := root.FindElement(ns.ElAuthSignature)
	if authSig == nil {
		return false
	}
	dsSig := authSig.FindElement("Signature")
	if dsSig == nil {
		return false
	}
	signedInfo := dsSig.FindElement("SignedInfo")
	sigValueEl := dsSig.FindElement("SignatureValue")
	if signedInfo == nil || sigValueEl == nil {
		return false
	}

	refEl := signedInfo.FindElement("Reference")
	if refEl == nil || refEl.SelectAttrValue("URI", "") != ns.ReferenceURI {
		return false
	}
	digestValueEl := refEl.FindElement("DigestValue")
	if digestValueEl == nil {
		return false
	}
	wantDigest, err := base64.StdEncoding.DecodeString(digestValueEl.Text())
	if err != nil {
		return false
	}

	// Re-select the authenticated nodes from the live document (excluding the
	// AuthSignature subtree, which never carries authenticate="true").
	nodes := root.FindElements(ns.AuthenticatedNodesXPath)
	if len(nodes) == 0 {
		return false
	}
	gotDigest, err := digestAuthenticatedNodes(nodes)
	if err != nil {
		return false
	}
	if string(gotDigest) != string(wantDigest) {
		return false
	}

	siCopy := signedInfo.Copy()
	siDigest := sha256.Sum256(Canonicalize(siCopy))

	sigBytes, err := base64.StdEncoding.DecodeString(sigValueEl.Text())
	if err != nil {
		return false
	}

	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, siDigest[:], sigBytes) == nil
}

// digestAuthenticatedNodes implements the shared core of Produce and
// Verify: clone each matched node into an isolated fragment with its
// ancestors' in-scope namespace declarations injected, canonicalize each
// fragment, concatenate in document order, and SHA-256 the result.
func digestAuthenticatedNodes(nodes []*etree.Element) ([]byte, error) {
	h := sha256.New()
	for _, n := range nodes {
		fragment := prepareFragment(n)
		h.Write(Canonicalize(fragment))
	}
	return h.Sum(nil), nil
}

// prepareFragment clones node and injects any ancestor xmlns/xmlns:prefix
// declaration not already present on the clone's root element. Without
// this, prefixes used inside the fragment but declared only on an ancestor
// (e.g. the document element's default EBICS namespace) become unbound once
// the fragment is canonicalized in isolation, and the digest silently
// diverges from what a conformant verifier computes.
func prepareFragment(node *etree.Element) *etree.Element {
	inherited := ancestorNamespaces(node)
	clone := node.Copy()

	declared := map[string]bool{}
	for _, a := range clone.Attr {
		if isNamespaceDecl(a) {
			declared[namespaceKey(a)] = true
		}
	}
	for prefix, uri := range inherited {
		if declared[prefix] {
			continue
		}
		if prefix == "" {
			clone.CreateAttr("xmlns", uri)
		} else {
			clone.CreateAttr("xmlns:"+prefix, uri)
		}
	}
	return clone
}

// ancestorNamespaces walks node's ancestor chain (root to node's own
// attributes excluded) and returns the effective prefix -> URI map,
// nearest declaration wins.
func ancestorNamespaces(node *etree.Element) map[string]string {
	chain := []*etree.Element{}
	for p := node.Parent(); p != nil; p = p.Parent() {
		chain = append(chain, p)
	}
	// Walk root-to-parent so nearer declarations (later in the loop) win.
	result := map[string]string{}
	for i := len(chain) - 1; i >= 0; i-- {
		for _, a := range chain[i].Attr {
			if isNamespaceDecl(a) {
				result[namespaceKey(a)] = a.Value
			}
		}
	}
	return result
}

// namespaceKey returns the prefix a namespace-declaration attribute binds
// ("" for a default xmlns="..." declaration, the prefix itself otherwise).
func namespaceKey(a etree.Attr) string {
	if a.Key == "xmlns" && a.Space == "" {
		return ""
	}
	return a.Key
}

func buildSignedInfo(digest []byte) *etree.Element {
	signedInfo := etree.NewElement("SignedInfo")
	signedInfo.Space = "ds"

	c14n := signedInfo.CreateElement("CanonicalizationMethod")
	c14n.Space = "ds"
	c14n.CreateAttr(ns.AtAlgorithm, ns.AlgoC14N10)

	sigMethod := signedInfo.CreateElement("SignatureMethod")
	sigMethod.Space = "ds"
	sigMethod.CreateAttr(ns.AtAlgorithm, ns.AlgoSignatureRSASHA256)

	ref := signedInfo.CreateElement("Reference")
	ref.Space = "ds"
	ref.CreateAttr("URI", ns.ReferenceURI)

	transforms := ref.CreateElement("Transforms")
	transforms.Space = "ds"
	transform := transforms.CreateElement("Transform")
	transform.Space = "ds"
	transform.CreateAttr(ns.AtAlgorithm, ns.AlgoC14N10)

	digestMethod := ref.CreateElement("DigestMethod")
	digestMethod.Space = "ds"
	digestMethod.CreateAttr(ns.AtAlgorithm, ns.AlgoDigestSHA256)

	digestValue := ref.CreateElement("DigestValue")
	digestValue.Space = "ds"
	digestValue.SetText(base64.StdEncoding.EncodeToString(digest))

	return signedInfo
}
