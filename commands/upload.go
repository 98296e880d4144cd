package commands

import (
	"github.com/beevik/etree"

	"github.com/ebicsgo/ebics/internal/ebicsxml"
)

// buildUploadInitEnvelope assembles the shared authenticated ebicsRequest
// shape every authenticated upload order type's Initialisation request uses
// (CCT, CDD, SPR; INI/HIA instead use buildUnsecuredEnvelope, since no bank
// key is known yet): identity, order details, bank key digests, and a
// DataTransfer body carrying the RSA-wrapped session key and first segment.
// The engine signs the result afterward.
func buildUploadInitEnvelope(rc RequestContext, orderType, orderAttribute string, upload *UploadMaterial) *etree.Document {
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
	ebicsxml.SetOrderDetails(static, orderType, orderAttribute, nil)
	ebicsxml.SetBankPubKeyDigests(static, rc.BankAuthDigest, rc.BankCryptDigest)
	ebicsxml.SetSecurityMedium(static, "")

	ebicsxml.SetMutableInitUpload(mutable, len(upload.Segments) == 1)

	body := ebicsxml.Body(root)
	ebicsxml.SetUploadInitBody(body, upload.CryptDigest, upload.WrappedKey, upload.Segments[0])

	return doc
}

// buildUploadTransferEnvelope assembles the shared authenticated ebicsRequest
// every upload order type's Transfer phase uses: identity, the bank-assigned
// TransactionID, the current SegmentNumber, and the next encrypted segment.
func buildUploadTransferEnvelope(rc RequestContext, segmentNumber, numSegments int, segmentB64 string) *etree.Document {
	doc, root := ebicsxml.NewRequest(rc.Version)
	static, mutable := ebicsxml.Header(root)

	ebicsxml.FillStaticIdentity(static, ebicsxml.StaticIdentity{HostID: rc.HostID, PartnerID: rc.PartnerID, UserID: rc.UserID})
	ebicsxml.SetTransactionID(static, rc.TransactionID)
	ebicsxml.SetMutableTransfer(mutable, rc.TransactionID, segmentNumber, segmentNumber == numSegments)

	body := ebicsxml.Body(root)
	ebicsxml.SetUploadTransferBody(body, segmentB64)

	return doc
}
