// Package commands implements the per-order-type EBICS command objects:
// INI, HIA, HPB, HPD, PTK, STA, CCT, CDD, SPR. Each binds an order type and
// attribute to the four operations the engine drives a transaction through:
// one small interface and one concrete type per order, no base-class
// hierarchy.
package commands

import (
	"github.com/beevik/etree"

	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
)

// Direction is the transaction direction an order type drives.
type Direction int

const (
	Download Direction = iota
	Upload
)

// RequestContext carries the identity and per-transaction fields every
// command needs to fill a StaticHeader/MutableHeader, independent of the
// transaction engine so this package has no dependency on it.
type RequestContext struct {
	Version   ns.ProtocolVersion
	HostID    string
	PartnerID string
	UserID    string
	SystemID  string
	Product   string
	Nonce     []byte
	Timestamp string

	// TransactionID is empty on the Initialisation request and must be set
	// on every Transfer/Receipt request.
	TransactionID string

	// BankAuthDigest/BankCryptDigest populate BankPubKeyDigests on
	// authenticated Initialisation requests (absent for INI/HIA, which are
	// unsecured; Transfer and Receipt requests do not carry them).
	BankAuthDigest  []byte
	BankCryptDigest []byte
}

// UploadMaterial is the output of the order-data codec for upload order
// types: the RSA-wrapped session key and the Base64 segments ready to place
// into Initialisation/Transfer bodies.
type UploadMaterial struct {
	CryptDigest []byte
	WrappedKey  []byte
	Segments    []string
}

// Result is the common shape every command's Deserialize returns. Payload
// carries the order-specific data (e.g. HpbResult, StaResult). The bank's
// return codes are not part of it: Deserialize only ever sees the decrypted
// order-data bytes, and the engine reads the codes off the response
// envelope itself.
type Result struct {
	Payload interface{}
}

// Command is the four operations every order type implements.
// BuildTransferRequest is only meaningful for Upload commands (for
// downloads the engine drives further segments itself by re-issuing the
// same envelope shape). BuildReceiptRequest is only meaningful for Download
// commands.
type Command interface {
	OrderType() string
	OrderAttribute() string
	Direction() Direction

	BuildInitRequest(rc RequestContext, upload *UploadMaterial) (*etree.Document, error)
	BuildTransferRequest(rc RequestContext, segmentIndex int, upload *UploadMaterial) (*etree.Document, error)
	BuildReceiptRequest(rc RequestContext, receiptCode int) (*etree.Document, error)
	Deserialize(payload []byte) (Result, error)
}

// ByOrderType looks up the Command implementation for a three-letter order
// code. Callers that need a fresh Command instance (e.g. per transaction)
// should treat the returned value as stateless and safe to reuse.
func ByOrderType(orderType string) (Command, bool) {
	c, ok := registry[orderType]
	return c, ok
}

var registry = map[string]Command{
	"INI": iniCommand{},
	"HIA": hiaCommand{},
	"HPB": hpbCommand{},
	"HPD": hpdCommand{},
	"PTK": ptkCommand{},
	"STA": staCommand{},
	"CCT": cctCommand{},
	"CDD": cddCommand{},
	"SPR": sprCommand{},
}
