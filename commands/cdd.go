package commands

import (
	"github.com/beevik/etree"

	ebicserrors "github.com/ebicsgo/ebics/errors"
	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
)

// cddCommand uploads a SEPA direct debit (pain.008 order data). Same shape
// as CCT: fully authenticated, no receipt phase.
type cddCommand struct{}

// CddResult carries nothing beyond the return codes.
type CddResult struct{}

func (cddCommand) OrderType() string      { return "CDD" }
func (cddCommand) OrderAttribute() string { return ns.AttrOZHNN }
func (cddCommand) Direction() Direction   { return Upload }

func (cddCommand) BuildInitRequest(rc RequestContext, upload *UploadMaterial) (*etree.Document, error) {
	if upload == nil || len(upload.Segments) == 0 {
		return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.CDD.BuildInitRequest", ebicserrors.ErrMissingKeyPair)
	}
	return buildUploadInitEnvelope(rc, "CDD", ns.AttrOZHNN, upload), nil
}

func (cddCommand) BuildTransferRequest(rc RequestContext, segmentIndex int, upload *UploadMaterial) (*etree.Document, error) {
	if upload == nil || segmentIndex < 1 || segmentIndex > len(upload.Segments) {
		return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.CDD.BuildTransferRequest", ebicserrors.ErrSegmentOutOfRange)
	}
	return buildUploadTransferEnvelope(rc, segmentIndex, len(upload.Segments), upload.Segments[segmentIndex-1]), nil
}

func (cddCommand) BuildReceiptRequest(rc RequestContext, receiptCode int) (*etree.Document, error) {
	return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.CDD.BuildReceiptRequest", ebicserrors.ErrUnexpectedPhase)
}

func (cddCommand) Deserialize(payload []byte) (Result, error) {
	return Result{Payload: CddResult{}}, nil
}
