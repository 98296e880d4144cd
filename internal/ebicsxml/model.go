// Package ebicsxml provides typed, hand-written builders and accessors for
// the EBICS request/response XML envelopes. EBICS's schema is small and
// stable, so elements are emitted and read directly against a fixed set of
// name constants (internal/ebicsxml/ns) rather than through a reflective
// marshaler.
//
// All builders operate on *etree.Element trees; callers own the
// etree.Document and are responsible for signing (internal/sign) and
// serialization.
package ebicsxml

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	ebicserrors "github.com/ebicsgo/ebics/errors"
	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
)

// NewUnsecuredRequest builds the root of an ebicsUnsecuredRequest envelope
// (used by INI and HIA, which announce keys before any bank key is known
// and therefore carry no AuthSignature).
func NewUnsecuredRequest(version ns.ProtocolVersion) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	root := doc.CreateElement(ns.ElUnsecuredRequest)
	root.CreateAttr("xmlns", version.URI())
	root.CreateAttr(ns.AtVersion, string(version))
	root.CreateAttr("Revision", "1")
	return doc, root
}

// NewRequest builds the root of an authenticated ebicsRequest envelope.
func NewRequest(version ns.ProtocolVersion) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	root := doc.CreateElement(ns.ElRequest)
	root.CreateAttr("xmlns", version.URI())
	root.CreateAttr("xmlns:ds", ns.NSXMLDSig)
	root.CreateAttr(ns.AtVersion, string(version))
	root.CreateAttr("Revision", "1")
	return doc, root
}

// Header creates the header wrapper and its StaticHeader/MutableHeader
// children, each marked authenticate="true".
func Header(root *etree.Element) (static, mutable *etree.Element) {
	header := root.CreateElement(ns.ElHeader)
	static = header.CreateElement(ns.ElStaticHeader)
	static.CreateAttr(ns.AtAuthenticate, "true")
	mutable = header.CreateElement(ns.ElMutableHeader)
	mutable.CreateAttr(ns.AtAuthenticate, "true")
	return static, mutable
}

// Body creates the body element, marked authenticate="true".
func Body(root *etree.Element) *etree.Element {
	body := root.CreateElement(ns.ElBody)
	body.CreateAttr(ns.AtAuthenticate, "true")
	return body
}

// UnsecuredHeader creates the plain (unauthenticated) header/static pair
// used by INI/HIA's ebicsUnsecuredRequest envelope.
func UnsecuredHeader(root *etree.Element) (static, mutable *etree.Element) {
	header := root.CreateElement(ns.ElHeader)
	static = header.CreateElement(ns.ElStaticHeader)
	mutable = header.CreateElement(ns.ElMutableHeader)
	return static, mutable
}

// StaticIdentity groups the identity fields every StaticHeader carries.
type StaticIdentity struct {
	HostID    string
	PartnerID string
	UserID    string
	SystemID  string
	Product   string
	Nonce     []byte
	Timestamp string
}

// FillStaticIdentity appends the common identity elements to a StaticHeader.
func FillStaticIdentity(static *etree.Element, id StaticIdentity) {
	static.CreateElement(ns.ElHostID).SetText(id.HostID)
	if len(id.Nonce) > 0 {
		static.CreateElement(ns.ElNonce).SetText(fmt.Sprintf("%X", id.Nonce))
	}
	static.CreateElement(ns.ElTimestamp).SetText(id.Timestamp)
	static.CreateElement(ns.ElPartnerID).SetText(id.PartnerID)
	static.CreateElement(ns.ElUserID).SetText(id.UserID)
	if id.SystemID != "" {
		static.CreateElement(ns.ElSystemID).SetText(id.SystemID)
	}
	if id.Product != "" {
		static.CreateElement(ns.ElProduct).SetText(id.Product)
	}
}

// SetOrderDetails appends OrderDetails/OrderType/OrderAttribute, optionally
// followed by an order-specific params subtree the caller has already built.
func SetOrderDetails(static *etree.Element, orderType, orderAttribute string, params *etree.Element) {
	details := static.CreateElement(ns.ElOrderDetails)
	details.CreateElement(ns.ElOrderType).SetText(orderType)
	details.CreateElement(ns.ElOrderAttribute).SetText(orderAttribute)
	if params != nil {
		details.AddChild(params)
	} else {
		details.CreateElement(ns.ElStandardOrderParams)
	}
}

// SetBankPubKeyDigests appends the BankPubKeyDigests element an
// authenticated StaticHeader must carry so the bank can confirm the client
// holds the bank's current public keys.
func SetBankPubKeyDigests(static *etree.Element, authDigest, cryptDigest []byte) {
	digests := static.CreateElement(ns.ElBankPubKeyDigests)

	auth := digests.CreateElement(ns.ElAuthentication)
	auth.CreateAttr(ns.AtAuthVersion, ns.KeyVersionX002)
	auth.CreateAttr(ns.AtAlgorithm, "http://www.w3.org/2001/04/xmlenc#sha256")
	auth.SetText(base64.StdEncoding.EncodeToString(authDigest))

	enc := digests.CreateElement(ns.ElEncryption)
	enc.CreateAttr(ns.AtAuthVersion, ns.KeyVersionE002)
	enc.CreateAttr(ns.AtAlgorithm, "http://www.w3.org/2001/04/xmlenc#sha256")
	enc.SetText(base64.StdEncoding.EncodeToString(cryptDigest))
}

// SetSecurityMedium sets the SecurityMedium element ("0000" by default).
func SetSecurityMedium(static *etree.Element, medium string) {
	if medium == "" {
		medium = "0000"
	}
	static.CreateElement(ns.ElSecurityMedium).SetText(medium)
}

// SetMutableInit fills the MutableHeader for an Initialisation request.
func SetMutableInit(mutable *etree.Element) {
	mutable.CreateElement(ns.ElTransactionPhase).SetText(ns.PhaseInitialisation)
}

// SetMutableInitUpload fills the MutableHeader for an upload Initialisation
// request: phase plus the first segment's number, since segment 1 rides in
// the Initialisation body.
func SetMutableInitUpload(mutable *etree.Element, lastSegment bool) {
	mutable.CreateElement(ns.ElTransactionPhase).SetText(ns.PhaseInitialisation)
	seg := mutable.CreateElement(ns.ElSegmentNumber)
	seg.CreateAttr(ns.ElLastSegment, strconv.FormatBool(lastSegment))
	seg.SetText("1")
}

// SetMutableTransfer fills the MutableHeader for a Transfer request.
func SetMutableTransfer(mutable *etree.Element, transactionID string, segmentNumber int, lastSegment bool) {
	mutable.CreateElement(ns.ElTransactionPhase).SetText(ns.PhaseTransfer)
	seg := mutable.CreateElement(ns.ElSegmentNumber)
	seg.CreateAttr(ns.ElLastSegment, strconv.FormatBool(lastSegment))
	seg.SetText(strconv.Itoa(segmentNumber))
}

// SetMutableReceipt fills the MutableHeader for a Receipt request.
func SetMutableReceipt(mutable *etree.Element) {
	mutable.CreateElement(ns.ElTransactionPhase).SetText(ns.PhaseReceipt)
}

// SetTransactionID appends TransactionID to a StaticHeader (Transfer and
// Receipt requests echo the TransactionID the Initialisation response
// assigned).
func SetTransactionID(static *etree.Element, transactionID string) {
	static.CreateElement(ns.ElTransactionID).SetText(transactionID)
}

// SetUploadInitBody fills body's DataTransfer for an upload Initialisation
// request: the RSA-wrapped session key plus the first encrypted segment.
func SetUploadInitBody(body *etree.Element, cryptDigest, wrappedKey []byte, firstSegmentB64 string) {
	dt := body.CreateElement(ns.ElDataTransfer)
	dei := dt.CreateElement(ns.ElDataEncryptionInfo)
	dei.CreateAttr(ns.AtAuthVersion, ns.KeyVersionE002)
	dei.CreateElement(ns.ElEncryptionPubKeyDigest).SetText(base64.StdEncoding.EncodeToString(cryptDigest))
	dei.CreateElement(ns.ElTransactionKey).SetText(base64.StdEncoding.EncodeToString(wrappedKey))
	dt.CreateElement(ns.ElOrderData).SetText(firstSegmentB64)
}

// SetUploadTransferBody fills body's DataTransfer for an upload Transfer
// request: just the next encrypted segment.
func SetUploadTransferBody(body *etree.Element, segmentB64 string) {
	dt := body.CreateElement(ns.ElDataTransfer)
	dt.CreateElement(ns.ElOrderData).SetText(segmentB64)
}

// SetReceiptBody fills body for a download Receipt request.
func SetReceiptBody(body *etree.Element, receiptCode int) {
	receipt := body.CreateElement("TransferReceipt")
	receipt.CreateElement(ns.ElReceiptCode).SetText(strconv.Itoa(receiptCode))
}

// BuildDownloadTransferRequest assembles the engine-driven continuation
// request every download order type's Transfer phase uses: no command
// builds this, since it carries nothing order-specific beyond
// identity and the segment being requested.
func BuildDownloadTransferRequest(version ns.ProtocolVersion, hostID, partnerID, userID, transactionID string, segmentNumber int, lastSegment bool) *etree.Document {
	doc, root := NewRequest(version)
	static, mutable := Header(root)
	FillStaticIdentity(static, StaticIdentity{HostID: hostID, PartnerID: partnerID, UserID: userID})
	SetTransactionID(static, transactionID)
	SetMutableTransfer(mutable, transactionID, segmentNumber, lastSegment)
	Body(root)
	return doc
}

// Parse parses an EBICS XML document from data.
func Parse(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, ebicserrors.New(ebicserrors.KindProtocol, "ebicsxml.Parse", err)
	}
	if doc.Root() == nil {
		return nil, ebicserrors.New(ebicserrors.KindProtocol, "ebicsxml.Parse", ebicserrors.ErrUnexpectedPhase)
	}
	return doc, nil
}

// TransactionID reads header/StaticHeader/TransactionID, "" if absent.
func TransactionID(root *etree.Element) string {
	return textOf(root, "header/StaticHeader/TransactionID")
}

// NumSegments reads header/StaticHeader/NumSegments, 0 if absent or invalid.
func NumSegments(root *etree.Element) int {
	n, _ := strconv.Atoi(textOf(root, "header/StaticHeader/NumSegments"))
	return n
}

// SegmentNumber reads header/MutableHeader/SegmentNumber and its
// lastSegment attribute.
func SegmentNumber(root *etree.Element) (number int, last bool) {
	el := root.FindElement("header/MutableHeader/SegmentNumber")
	if el == nil {
		return 0, false
	}
	n, _ := strconv.Atoi(el.Text())
	last, _ = strconv.ParseBool(el.SelectAttrValue(ns.ElLastSegment, "false"))
	return n, last
}

// TransactionPhase reads header/MutableHeader/TransactionPhase.
func TransactionPhase(root *etree.Element) string {
	return textOf(root, "header/MutableHeader/TransactionPhase")
}

// TechnicalReturnCode reads header/MutableHeader/ReturnCode.
func TechnicalReturnCode(root *etree.Element) string {
	return textOf(root, "header/MutableHeader/ReturnCode")
}

// BusinessReturnCode reads body/ReturnCode.
func BusinessReturnCode(root *etree.Element) string {
	return textOf(root, "body/ReturnCode")
}

// ReportText reads body/ReportText, falling back to the header's.
func ReportText(root *etree.Element) string {
	if t := textOf(root, "body/ReportText"); t != "" {
		return t
	}
	return textOf(root, "header/MutableHeader/ReportText")
}

// DataEncryptionInfo reads body/DataTransfer/DataEncryptionInfo's digest
// and wrapped session key as the raw Base64 element text; decoding is left
// to the caller's codec step.
func DataEncryptionInfo(root *etree.Element) (digestB64, transactionKeyB64 string) {
	dei := root.FindElement("body/DataTransfer/DataEncryptionInfo")
	if dei == nil {
		return "", ""
	}
	return textOfEl(dei, ns.ElEncryptionPubKeyDigest), textOfEl(dei, ns.ElTransactionKey)
}

// OrderDataSegment reads body/DataTransfer/OrderData's Base64 text.
func OrderDataSegment(root *etree.Element) string {
	return textOf(root, "body/DataTransfer/OrderData")
}

func textOf(root *etree.Element, path string) string {
	el := root.FindElement(path)
	if el == nil {
		return ""
	}
	return el.Text()
}

func textOfEl(el *etree.Element, tag string) string {
	c := el.FindElement(tag)
	if c == nil {
		return ""
	}
	return c.Text()
}
