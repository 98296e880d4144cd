package commands

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"

	"github.com/beevik/etree"

	ebicserrors "github.com/ebicsgo/ebics/errors"
	"github.com/ebicsgo/ebics/internal/ebicsxml"
	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
	"github.com/ebicsgo/ebics/internal/xcrypto"
)

// DeflateAndEncodeOrderData runs the unsecured-order-data pipeline INI/HIA
// use: ZLIB deflate then Base64, with no AES/RSA layer since no bank key is
// known yet. Callers building an INI or HIA UploadMaterial call
// this directly instead of the full codec.Compose pipeline.
func DeflateAndEncodeOrderData(orderDataXML []byte) (string, error) {
	deflated, err := xcrypto.ZlibDeflate(orderDataXML)
	if err != nil {
		return "", ebicserrors.New(ebicserrors.KindCreateRequest, "commands.DeflateAndEncodeOrderData", err)
	}
	return base64.StdEncoding.EncodeToString(deflated), nil
}

// DecodeAndInflateOrderData is the inverse: Base64-decode then ZLIB-inflate.
func DecodeAndInflateOrderData(b64 string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindDeserialization, "commands.DecodeAndInflateOrderData", err)
	}
	return xcrypto.ZlibInflate(raw)
}

// buildRSAKeyValue appends the ds:RSAKeyValue fragment the EBICS key
// management order types embed, with modulus and exponent as lowercase hex
// (the same leading-zero-trimmed form xcrypto.PubkeyDigest hashes).
func buildRSAKeyValue(parent *etree.Element, pub *rsa.PublicKey) {
	rsaValue := parent.CreateElement("RSAKeyValue")
	rsaValue.CreateElement("Exponent").SetText(fmt.Sprintf("%x", pub.E))
	rsaValue.CreateElement("Modulus").SetText(fmt.Sprintf("%x", pub.N))
}

// signaturePubKeyOrderData builds the INI order-data document: the client's
// signature (A005) public key plus partner/user identity.
func signaturePubKeyOrderData(rc RequestContext, pub *rsa.PublicKey, version string) *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement("SignaturePubKeyOrderData")
	root.CreateAttr("xmlns", "http://www.ebics.org/S001")

	info := root.CreateElement("SignaturePubKeyInfo")
	pubKeyValue := info.CreateElement("PubKeyValue")
	buildRSAKeyValue(pubKeyValue, pub)
	pubKeyValue.CreateElement("TimeStamp").SetText(rc.Timestamp)
	info.CreateElement("SignatureVersion").SetText(version)

	root.CreateElement(ns.ElPartnerID).SetText(rc.PartnerID)
	root.CreateElement(ns.ElUserID).SetText(rc.UserID)
	return doc
}

// hiaRequestOrderData builds the HIA order-data document: the client's
// authentication (X002) and encryption (E002) public keys.
func hiaRequestOrderData(rc RequestContext, authPub, cryptPub *rsa.PublicKey) *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement("HIARequestOrderData")
	root.CreateAttr("xmlns", "http://www.ebics.org/S001")

	authInfo := root.CreateElement("AuthenticationPubKeyInfo")
	authValue := authInfo.CreateElement("PubKeyValue")
	buildRSAKeyValue(authValue, authPub)
	authValue.CreateElement("TimeStamp").SetText(rc.Timestamp)
	authInfo.CreateElement("AuthenticationVersion").SetText(ns.KeyVersionX002)

	cryptInfo := root.CreateElement("EncryptionPubKeyInfo")
	cryptValue := cryptInfo.CreateElement("PubKeyValue")
	buildRSAKeyValue(cryptValue, cryptPub)
	cryptValue.CreateElement("TimeStamp").SetText(rc.Timestamp)
	cryptInfo.CreateElement("EncryptionVersion").SetText(ns.KeyVersionE002)

	root.CreateElement(ns.ElPartnerID).SetText(rc.PartnerID)
	root.CreateElement(ns.ElUserID).SetText(rc.UserID)
	return doc
}

// buildUnsecuredEnvelope assembles the shared ebicsUnsecuredRequest shape
// INI and HIA use: unauthenticated header plus a single compressed,
// Base64-encoded OrderData element.
func buildUnsecuredEnvelope(rc RequestContext, orderType string, orderDataB64 string) *etree.Document {
	doc, root := ebicsxml.NewUnsecuredRequest(rc.Version)
	static, mutable := ebicsxml.UnsecuredHeader(root)

	ebicsxml.FillStaticIdentity(static, ebicsxml.StaticIdentity{
		HostID:    rc.HostID,
		PartnerID: rc.PartnerID,
		UserID:    rc.UserID,
		SystemID:  rc.SystemID,
		Product:   rc.Product,
		Nonce:     rc.Nonce,
		Timestamp: rc.Timestamp,
	})
	ebicsxml.SetOrderDetails(static, orderType, ns.AttrDZHNN, nil)
	ebicsxml.SetSecurityMedium(static, "")

	mutable.CreateElement(ns.ElTransactionPhase).SetText(ns.PhaseInitialisation)

	body := root.CreateElement(ns.ElBody)
	dataTransfer := body.CreateElement(ns.ElDataTransfer)
	dataTransfer.CreateElement(ns.ElOrderData).SetText(orderDataB64)

	return doc
}

// rsaPublicKeyFromHex rebuilds an *rsa.PublicKey from the lowercase-hex
// modulus/exponent pair the key-management order types carry on the wire.
func rsaPublicKeyFromHex(modHex, expHex string) (*rsa.PublicKey, error) {
	modulus, ok := new(big.Int).SetString(modHex, 16)
	if !ok {
		return nil, ebicserrors.New(ebicserrors.KindDeserialization, "commands.rsaPublicKeyFromHex", ebicserrors.ErrKeyMismatch)
	}
	exponent, err := strconv.ParseInt(expHex, 16, 64)
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindDeserialization, "commands.rsaPublicKeyFromHex", err)
	}
	return &rsa.PublicKey{N: modulus, E: int(exponent)}, nil
}

// pubkeyDigestFromHex applies the EBICS public-key digest rule directly to
// the wire-format hex strings, avoiding a re-encode round trip through
// big.Int.
func pubkeyDigestFromHex(modHex, expHex string) []byte {
	modulus, _ := new(big.Int).SetString(modHex, 16)
	exponent, _ := strconv.ParseInt(expHex, 16, 64)
	return xcrypto.PubkeyDigest(modulus, int(exponent))
}

// buildDownloadInitEnvelope assembles the shared authenticated ebicsRequest
// shape every download order type's Initialisation request uses: identity,
// order details, bank key digests (once known), and an empty authenticated
// body. The engine signs the result afterward; nothing here marks a
// signature.
func buildDownloadInitEnvelope(rc RequestContext, orderType, orderAttribute string, params *etree.Element) *etree.Document {
	doc, root := ebicsxml.NewRequest(rc.Version)
	static, mutable := ebicsxml.Header(root)

	ebicsxml.FillStaticIdentity(static, ebicsxml.StaticIdentity{
		HostID:    rc.HostID,
		PartnerID: rc.PartnerID,
		UserID:    rc.UserID,
		SystemID:  rc.SystemID,
		Product:   rc.Product,
		Nonce:     rc.Nonce,
		Timestamp: rc.Timestamp,
	})
	ebicsxml.SetOrderDetails(static, orderType, orderAttribute, params)
	if rc.BankAuthDigest != nil && rc.BankCryptDigest != nil {
		ebicsxml.SetBankPubKeyDigests(static, rc.BankAuthDigest, rc.BankCryptDigest)
	}
	ebicsxml.SetSecurityMedium(static, "")

	ebicsxml.SetMutableInit(mutable)
	ebicsxml.Body(root)

	return doc
}

// buildReceiptEnvelope assembles the shared Receipt-phase request every
// download order type sends after its last Transfer response.
func buildReceiptEnvelope(rc RequestContext, receiptCode int) *etree.Document {
	doc, root := ebicsxml.NewRequest(rc.Version)
	static, mutable := ebicsxml.Header(root)

	ebicsxml.FillStaticIdentity(static, ebicsxml.StaticIdentity{HostID: rc.HostID, PartnerID: rc.PartnerID, UserID: rc.UserID})
	ebicsxml.SetTransactionID(static, rc.TransactionID)
	ebicsxml.SetMutableReceipt(mutable)

	body := ebicsxml.Body(root)
	ebicsxml.SetReceiptBody(body, receiptCode)

	return doc
}
