package commands

import (
	"github.com/beevik/etree"

	ebicserrors "github.com/ebicsgo/ebics/errors"
	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
)

// sprOrderData is the fixed order-data payload SPR uploads: a single ASCII
// space byte. SPR has no caller-supplied content; only the signed envelope
// matters.
var sprOrderData = []byte{' '}

// SprOrderData returns the fixed single-space payload SPR composes through
// the codec pipeline, exported so the façade can build its UploadMaterial
// without this package reaching into codec itself.
func SprOrderData() []byte { return sprOrderData }

// sprCommand suspends the partner's EBICS access. Fully authenticated
// upload, single segment, no receipt phase.
type sprCommand struct{}

// SprResult carries nothing beyond the return codes.
type SprResult struct{}

func (sprCommand) OrderType() string      { return "SPR" }
func (sprCommand) OrderAttribute() string { return ns.AttrOZHNN }
func (sprCommand) Direction() Direction   { return Upload }

func (sprCommand) BuildInitRequest(rc RequestContext, upload *UploadMaterial) (*etree.Document, error) {
	if upload == nil || len(upload.Segments) == 0 {
		return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.SPR.BuildInitRequest", ebicserrors.ErrMissingKeyPair)
	}
	return buildUploadInitEnvelope(rc, "SPR", ns.AttrOZHNN, upload), nil
}

func (sprCommand) BuildTransferRequest(rc RequestContext, segmentIndex int, upload *UploadMaterial) (*etree.Document, error) {
	return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.SPR.BuildTransferRequest", ebicserrors.ErrUnexpectedPhase)
}

func (sprCommand) BuildReceiptRequest(rc RequestContext, receiptCode int) (*etree.Document, error) {
	return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.SPR.BuildReceiptRequest", ebicserrors.ErrUnexpectedPhase)
}

func (sprCommand) Deserialize(payload []byte) (Result, error) {
	return Result{Payload: SprResult{}}, nil
}
