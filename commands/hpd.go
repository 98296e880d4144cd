package commands

import (
	"strconv"

	"github.com/beevik/etree"

	ebicserrors "github.com/ebicsgo/ebics/errors"
	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
	"github.com/ebicsgo/ebics/keys"
)

// hpdCommand downloads the bank's published access and protocol
// parameters: supported protocol versions, recovery support, and X.509
// policy.
type hpdCommand struct{}

func (hpdCommand) OrderType() string      { return "HPD" }
func (hpdCommand) OrderAttribute() string { return ns.AttrDZHNN }
func (hpdCommand) Direction() Direction   { return Download }

func (hpdCommand) BuildInitRequest(rc RequestContext, upload *UploadMaterial) (*etree.Document, error) {
	return buildDownloadInitEnvelope(rc, "HPD", ns.AttrDZHNN, nil), nil
}

func (hpdCommand) BuildTransferRequest(rc RequestContext, segmentIndex int, upload *UploadMaterial) (*etree.Document, error) {
	return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.HPD.BuildTransferRequest", ebicserrors.ErrUnexpectedPhase)
}

func (hpdCommand) BuildReceiptRequest(rc RequestContext, receiptCode int) (*etree.Document, error) {
	return buildReceiptEnvelope(rc, receiptCode), nil
}

// Deserialize parses the HPD order-data document into a keys.BankParams.
// The expected shape (internally consistent, not a literal EBICS schema
// transcription): a HostParameters root with an AccessParams element of
// flat key/value children and a ProtocolParams element whose Version
// children list the supported protocol codes and whose attributes carry
// RecoverySupported/X509DataPersistent.
func (hpdCommand) Deserialize(payload []byte) (Result, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(payload); err != nil {
		return Result{}, ebicserrors.New(ebicserrors.KindDeserialization, "commands.HPD.Deserialize", err)
	}
	root := doc.Root()
	if root == nil {
		return Result{}, ebicserrors.New(ebicserrors.KindDeserialization, "commands.HPD.Deserialize", ebicserrors.ErrNoAuthenticatedNode)
	}

	access := map[string]string{}
	if el := root.FindElement("AccessParams"); el != nil {
		for _, child := range el.ChildElements() {
			access[child.Tag] = child.Text()
		}
	}

	var protocol keys.ProtocolParams
	if el := root.FindElement("ProtocolParams"); el != nil {
		for _, child := range el.SelectElements("Version") {
			protocol.Protocols = append(protocol.Protocols, child.Text())
		}
		protocol.RecoverySupported, _ = strconv.ParseBool(el.SelectAttrValue("RecoverySupported", "false"))
		protocol.X509DataPersistent, _ = strconv.ParseBool(el.SelectAttrValue("X509DataPersistent", "false"))
	}

	return Result{
		Payload: keys.BankParams{
			AccessParams:   access,
			ProtocolParams: protocol,
		},
	}, nil
}
