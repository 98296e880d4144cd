package commands

import (
	"crypto/rsa"

	"github.com/beevik/etree"

	ebicserrors "github.com/ebicsgo/ebics/errors"
	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
)

// hiaCommand announces the client's authentication (X002) and encryption
// (E002) public keys. Like INI, it is an unauthenticated
// ebicsUnsecuredRequest with a single init phase.
type hiaCommand struct{}

type HiaResult struct{}

// HiaParams is the input the façade collects to build an HIA request.
type HiaParams struct {
	AuthPub  *rsa.PublicKey
	CryptPub *rsa.PublicKey
}

func (hiaCommand) OrderType() string      { return "HIA" }
func (hiaCommand) OrderAttribute() string { return ns.AttrDZHNN }
func (hiaCommand) Direction() Direction   { return Upload }

func (hiaCommand) BuildInitRequest(rc RequestContext, upload *UploadMaterial) (*etree.Document, error) {
	if upload == nil || len(upload.Segments) == 0 {
		return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.HIA.BuildInitRequest", ebicserrors.ErrMissingKeyPair)
	}
	return buildUnsecuredEnvelope(rc, "HIA", upload.Segments[0]), nil
}

func (hiaCommand) BuildTransferRequest(rc RequestContext, segmentIndex int, upload *UploadMaterial) (*etree.Document, error) {
	return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.HIA.BuildTransferRequest", ebicserrors.ErrUnexpectedPhase)
}

func (hiaCommand) BuildReceiptRequest(rc RequestContext, receiptCode int) (*etree.Document, error) {
	return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.HIA.BuildReceiptRequest", ebicserrors.ErrUnexpectedPhase)
}

func (hiaCommand) Deserialize(payload []byte) (Result, error) {
	return Result{Payload: HiaResult{}}, nil
}

// BuildHIARequestOrderData composes the HIA order-data document.
func BuildHIARequestOrderData(rc RequestContext, authPub, cryptPub *rsa.PublicKey) ([]byte, error) {
	doc := hiaRequestOrderData(rc, authPub, cryptPub)
	return doc.WriteToBytes()
}
