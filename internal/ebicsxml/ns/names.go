// Package ns centralizes the EBICS and XML-DSIG namespace URIs, element and
// attribute name constants, and XPath templates used throughout the request
// and response XML model and the signer. EBICS's schema is small and stable
// enough that hand-maintained constants beat a reflective schema loader.
package ns

// ProtocolVersion selects between the two EBICS schema generations this
// client supports.
type ProtocolVersion string

const (
	H004 ProtocolVersion = "H004"
	H005 ProtocolVersion = "H005"
)

// URI returns the default-namespace URI for the given protocol version.
func (v ProtocolVersion) URI() string {
	switch v {
	case H005:
		return "urn:org:ebics:H005"
	default:
		return "urn:org:ebics:H004"
	}
}

// Namespace URIs.
const (
	NSXMLDSig = "http://www.w3.org/2000/09/xmldsig#"
	NSPain001 = "urn:iso:std:iso:20022:tech:xsd:pain.001.001.03"
	NSPain008 = "urn:iso:std:iso:20022:tech:xsd:pain.008.001.02"
	NSSigData = "http://www.ebics.org/S001"
	NSXMLEnc  = "http://www.w3.org/2001/04/xmlenc#"
	NSXSI     = "http://www.w3.org/2001/XMLSchema-instance"
)

// Algorithm URIs used by the signer.
const (
	AlgoDigestSHA256       = "http://www.w3.org/2001/04/xmlenc#sha256"
	AlgoSignatureRSASHA256 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgoC14N10             = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
)

// ReferenceURI is the literal, constrained XPath reference EBICS uses
// instead of a conventional same-document fragment identifier.
const ReferenceURI = "#xpointer(//*[@authenticate='true'])"

// AuthenticatedNodesXPath selects every element EBICS requires to be
// covered by the AuthSignature.
const AuthenticatedNodesXPath = "//*[@authenticate='true']"

// Element and attribute names, spelled exactly as the EBICS schema requires.
const (
	ElRequest                = "ebicsRequest"
	ElUnsecuredRequest       = "ebicsUnsecuredRequest"
	ElUnsecuredResponse      = "ebicsUnsecuredResponse"
	ElKeyManagementResponse  = "ebicsKeyManagementResponse"
	ElResponse               = "ebicsResponse"
	ElHeader                 = "header"
	ElBody                   = "body"
	ElStaticHeader           = "StaticHeader"
	ElMutableHeader          = "MutableHeader"
	ElHostID                 = "HostID"
	ElPartnerID              = "PartnerID"
	ElUserID                 = "UserID"
	ElSystemID               = "SystemID"
	ElProduct                = "Product"
	ElOrderDetails           = "OrderDetails"
	ElOrderType              = "OrderType"
	ElOrderAttribute         = "OrderAttribute"
	ElStandardOrderParams    = "StandardOrderParams"
	ElSecurityMedium         = "SecurityMedium"
	ElNonce                  = "Nonce"
	ElTimestamp              = "Timestamp"
	ElPartnerOrderParams     = "PartnerOrderParams"
	ElTransactionPhase       = "TransactionPhase"
	ElTransactionID          = "TransactionID"
	ElNumSegments            = "NumSegments"
	ElSegmentNumber          = "SegmentNumber"
	ElLastSegment            = "lastSegment"
	ElOrderID                = "OrderID"
	ElMutable                = "Mutable"
	ElDataTransfer           = "DataTransfer"
	ElDataEncryptionInfo     = "DataEncryptionInfo"
	ElEncryptionPubKeyDigest = "EncryptionPubKeyDigest"
	ElTransactionKey         = "TransactionKey"
	ElOrderData              = "OrderData"
	ElSignatureData          = "SignatureData"
	ElAuthSignature          = "AuthSignature"
	ElReturnCode             = "ReturnCode"
	ElReportText             = "ReportText"
	ElReceiptCode            = "ReceiptCode"
	ElBankPubKeyDigests      = "BankPubKeyDigests"
	ElAuthentication         = "Authentication"
	ElEncryption             = "Encryption"

	AtVersion      = "Version"
	AtAuthenticate = "authenticate"
	AtAlgorithm    = "Algorithm"
	AtRelease      = "Release"
	AtSecurityMed  = "securityMedium"
	AtAuthVersion  = "Version"
)

// OrderAttribute values.
const (
	AttrDZHNN = "DZHNN"
	AttrOZHNN = "OZHNN"
	AttrUZHNN = "UZHNN"
	AttrDZNNN = "DZNNN"
)

// Phase values for TransactionPhase.
const (
	PhaseInitialisation = "Initialisation"
	PhaseTransfer       = "Transfer"
	PhaseReceipt        = "Receipt"
)

// Key-version tags.
const (
	KeyVersionA005 = "A005"
	KeyVersionX002 = "X002"
	KeyVersionE002 = "E002"
)

// EBICS success / informational return codes.
const (
	ReturnCodeOK                      = "000000"
	ReturnCodeDownloadPostprocessDone = "011000"
	ReturnCodeRecoverySyncPrefix      = "0110" // 11000+ advisories share this family
)
