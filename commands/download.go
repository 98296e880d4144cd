package commands

import (
	"github.com/beevik/etree"

	ebicserrors "github.com/ebicsgo/ebics/errors"
	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
)

// ptkCommand downloads the protocol log (free-text report of processed
// orders). STA and PTK share the same shape: a single decrypted,
// decompressed text payload with no further structure the client needs to
// parse, so both implementations below differ only in OrderType.
type ptkCommand struct{}

// PtkResult carries the raw protocol log text.
type PtkResult struct {
	Text string
}

func (ptkCommand) OrderType() string      { return "PTK" }
func (ptkCommand) OrderAttribute() string { return ns.AttrDZHNN }
func (ptkCommand) Direction() Direction   { return Download }

func (ptkCommand) BuildInitRequest(rc RequestContext, upload *UploadMaterial) (*etree.Document, error) {
	return buildDownloadInitEnvelope(rc, "PTK", ns.AttrDZHNN, nil), nil
}

func (ptkCommand) BuildTransferRequest(rc RequestContext, segmentIndex int, upload *UploadMaterial) (*etree.Document, error) {
	return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.PTK.BuildTransferRequest", ebicserrors.ErrUnexpectedPhase)
}

func (ptkCommand) BuildReceiptRequest(rc RequestContext, receiptCode int) (*etree.Document, error) {
	return buildReceiptEnvelope(rc, receiptCode), nil
}

func (ptkCommand) Deserialize(payload []byte) (Result, error) {
	return Result{Payload: PtkResult{Text: string(payload)}}, nil
}

// staCommand downloads an account statement (MT940 text).
type staCommand struct{}

// StaResult carries the decompressed MT940 statement text verbatim.
type StaResult struct {
	MT940 string
}

func (staCommand) OrderType() string      { return "STA" }
func (staCommand) OrderAttribute() string { return ns.AttrDZHNN }
func (staCommand) Direction() Direction   { return Download }

func (staCommand) BuildInitRequest(rc RequestContext, upload *UploadMaterial) (*etree.Document, error) {
	return buildDownloadInitEnvelope(rc, "STA", ns.AttrDZHNN, nil), nil
}

func (staCommand) BuildTransferRequest(rc RequestContext, segmentIndex int, upload *UploadMaterial) (*etree.Document, error) {
	return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.STA.BuildTransferRequest", ebicserrors.ErrUnexpectedPhase)
}

func (staCommand) BuildReceiptRequest(rc RequestContext, receiptCode int) (*etree.Document, error) {
	return buildReceiptEnvelope(rc, receiptCode), nil
}

func (staCommand) Deserialize(payload []byte) (Result, error) {
	return Result{Payload: StaResult{MT940: string(payload)}}, nil
}
