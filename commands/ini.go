package commands

import (
	"crypto/rsa"

	"github.com/beevik/etree"

	ebicserrors "github.com/ebicsgo/ebics/errors"
	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
)

// iniCommand announces the client's signature (A005) public key. Its
// request is an unauthenticated ebicsUnsecuredRequest; it has no transfer
// or receipt phase and no response payload beyond the return codes.
type iniCommand struct{}

// IniResult carries the one thing a caller of INI needs back beyond
// success/failure: nothing order-specific, the return codes say it all.
type IniResult struct{}

// IniParams is the input the façade collects to build an INI request: the
// client's own signature public key, since INI is how that key is
// introduced to the bank in the first place.
type IniParams struct {
	SignaturePub *rsa.PublicKey
}

func (iniCommand) OrderType() string      { return "INI" }
func (iniCommand) OrderAttribute() string { return ns.AttrDZHNN }
func (iniCommand) Direction() Direction   { return Upload }

func (iniCommand) BuildInitRequest(rc RequestContext, upload *UploadMaterial) (*etree.Document, error) {
	if upload == nil || upload.Segments == nil {
		return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.INI.BuildInitRequest", ebicserrors.ErrMissingKeyPair)
	}
	return buildUnsecuredEnvelope(rc, "INI", upload.Segments[0]), nil
}

func (iniCommand) BuildTransferRequest(rc RequestContext, segmentIndex int, upload *UploadMaterial) (*etree.Document, error) {
	return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.INI.BuildTransferRequest", ebicserrors.ErrUnexpectedPhase)
}

func (iniCommand) BuildReceiptRequest(rc RequestContext, receiptCode int) (*etree.Document, error) {
	return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.INI.BuildReceiptRequest", ebicserrors.ErrUnexpectedPhase)
}

func (iniCommand) Deserialize(payload []byte) (Result, error) {
	return Result{Payload: IniResult{}}, nil
}

// BuildSignaturePubKeyOrderData is exported so the façade can compose the
// order-data document (and therefore the upload material) before calling
// BuildInitRequest, without the commands package reaching into codec
// itself.
func BuildSignaturePubKeyOrderData(rc RequestContext, pub *rsa.PublicKey) ([]byte, error) {
	doc := signaturePubKeyOrderData(rc, pub, "A005")
	return doc.WriteToBytes()
}
