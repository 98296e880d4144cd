package commands

import (
	"crypto/rsa"

	"github.com/beevik/etree"

	ebicserrors "github.com/ebicsgo/ebics/errors"
	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
)

// hpbCommand downloads the bank's current authentication and encryption
// public keys. It has no transfer phase in this implementation: HPB order
// data is small enough to always fit in one segment, so the engine still
// issues the Receipt dance, but BuildTransferRequest is never reached.
type hpbCommand struct{}

// HpbResult is HPB's order-specific payload: the bank's public keys and
// their EBICS digests, ready to install into a keys.BankKeyStore.
type HpbResult struct {
	AuthKey     *rsa.PublicKey
	AuthDigest  []byte
	CryptKey    *rsa.PublicKey
	CryptDigest []byte
}

func (hpbCommand) OrderType() string      { return "HPB" }
func (hpbCommand) OrderAttribute() string { return ns.AttrDZHNN }
func (hpbCommand) Direction() Direction   { return Download }

func (hpbCommand) BuildInitRequest(rc RequestContext, upload *UploadMaterial) (*etree.Document, error) {
	return buildDownloadInitEnvelope(rc, "HPB", ns.AttrDZHNN, nil), nil
}

func (hpbCommand) BuildTransferRequest(rc RequestContext, segmentIndex int, upload *UploadMaterial) (*etree.Document, error) {
	return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "commands.HPB.BuildTransferRequest", ebicserrors.ErrUnexpectedPhase)
}

func (hpbCommand) BuildReceiptRequest(rc RequestContext, receiptCode int) (*etree.Document, error) {
	return buildReceiptEnvelope(rc, receiptCode), nil
}

// Deserialize parses the decrypted, decompressed HPB order-data document
// (a HIARequestOrderData-shaped container carrying both bank public keys)
// into the bank's authentication and encryption public keys.
func (hpbCommand) Deserialize(payload []byte) (Result, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(payload); err != nil {
		return Result{}, ebicserrors.New(ebicserrors.KindDeserialization, "commands.HPB.Deserialize", err)
	}
	root := doc.Root()
	if root == nil {
		return Result{}, ebicserrors.New(ebicserrors.KindDeserialization, "commands.HPB.Deserialize", ebicserrors.ErrNoAuthenticatedNode)
	}

	authPub, authDigest, err := parsePubKeyInfo(root, "AuthenticationPubKeyInfo")
	if err != nil {
		return Result{}, err
	}
	cryptPub, cryptDigest, err := parsePubKeyInfo(root, "EncryptionPubKeyInfo")
	if err != nil {
		return Result{}, err
	}

	return Result{
		Payload: HpbResult{
			AuthKey:     authPub,
			AuthDigest:  authDigest,
			CryptKey:    cryptPub,
			CryptDigest: cryptDigest,
		},
	}, nil
}

func parsePubKeyInfo(root *etree.Element, elName string) (*rsa.PublicKey, []byte, error) {
	info := root.FindElement(elName)
	if info == nil {
		return nil, nil, ebicserrors.New(ebicserrors.KindDeserialization, "commands.parsePubKeyInfo", ebicserrors.ErrKeyMismatch)
	}
	keyValue := info.FindElement("PubKeyValue/RSAKeyValue")
	if keyValue == nil {
		return nil, nil, ebicserrors.New(ebicserrors.KindDeserialization, "commands.parsePubKeyInfo", ebicserrors.ErrKeyMismatch)
	}
	modEl := keyValue.SelectElement("Modulus")
	expEl := keyValue.SelectElement("Exponent")
	if modEl == nil || expEl == nil {
		return nil, nil, ebicserrors.New(ebicserrors.KindDeserialization, "commands.parsePubKeyInfo", ebicserrors.ErrKeyMismatch)
	}
	modHex := modEl.Text()
	expHex := expEl.Text()

	pub, err := rsaPublicKeyFromHex(modHex, expHex)
	if err != nil {
		return nil, nil, err
	}
	return pub, pubkeyDigestFromHex(modHex, expHex), nil
}
