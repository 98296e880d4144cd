package commands

import (
	"github.com/beevik/etree"

	ebicserrors "github.com/ebicsgo/ebics/errors"
	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
)

// cctCommand uploads a SEPA credit transfer (pain.001 order data). It is
// fully authenticated: the bank's encryption key must
// already be known (HPB has run) to wrap the session key.
type cctCommand struct{}

// CctResult carries nothing beyond the return codes; a successful upload
// has no order-specific response payload.
type CctResult struct{}

func (cctCommand) OrderType() string      { return "CCT" }
func (cctCommand) OrderAttribute() string { return ns.AttrOZHNN }
func (cctCommand) Direction() Direction   { return Upload }

func (cctCommand) BuildInitRequest(rc RequestContext, upload *UploadMaterial) (*etree.Document, error) {
	if upload == nil || len(upload.Segments) == 0 {
		return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.CCT.BuildInitRequest", ebicserrors.ErrMissingKeyPair)
	}
	return buildUploadInitEnvelope(rc, "CCT", ns.AttrOZHNN, upload), nil
}

func (cctCommand) BuildTransferRequest(rc RequestContext, segmentIndex int, upload *UploadMaterial) (*etree.Document, error) {
	if upload == nil || segmentIndex < 1 || segmentIndex > len(upload.Segments) {
		return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.CCT.BuildTransferRequest", ebicserrors.ErrSegmentOutOfRange)
	}
	return buildUploadTransferEnvelope(rc, segmentIndex, len(upload.Segments), upload.Segments[segmentIndex-1]), nil
}

func (cctCommand) BuildReceiptRequest(rc RequestContext, receiptCode int) (*etree.Document, error) {
	return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.CCT.BuildReceiptRequest", ebicserrors.ErrUnexpectedPhase)
}

func (cctCommand) Deserialize(payload []byte) (Result, error) {
	return Result{Payload: CctResult{}}, nil
}
