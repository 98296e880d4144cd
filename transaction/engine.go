// Package transaction drives the EBICS Init -> Transfer -> Receipt dialog
// for a single order-type command: it signs and sends the Initialisation
// request, loops Transfer requests until the bank's NumSegments is
// exhausted, and, for downloads, issues the closing Receipt and
// decrypts/decompresses the assembled order data. It is the one package
// that knows the phase ordering; commands only know how to build and parse
// their own fragments.
package transaction

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"crypto/rsa"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/ebicsgo/ebics/commands"
	ebicserrors "github.com/ebicsgo/ebics/errors"
	"github.com/ebicsgo/ebics/internal/codec"
	"github.com/ebicsgo/ebics/internal/ebicsxml"
	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
	"github.com/ebicsgo/ebics/internal/sign"
	"github.com/ebicsgo/ebics/internal/xcrypto"
	"github.com/ebicsgo/ebics/transport"
)

// Identity groups the caller identity every request needs, threaded through
// without a dependency on the client package.
type Identity struct {
	Version   ns.ProtocolVersion
	HostID    string
	PartnerID string
	UserID    string
	SystemID  string
	Product   string
}

// Secured carries the keys a transaction signs and verifies with. SignKey
// is nil for INI/HIA (unsecured ebicsUnsecuredRequest envelopes); VerifyKey
// is nil whenever the counterpart response carries no AuthSignature to
// check. CryptPriv is the client's own encryption private key, used on
// downloads to unwrap the bank-supplied transaction key.
type Secured struct {
	SignKey   *rsa.PrivateKey
	VerifyKey *rsa.PublicKey
	CryptPriv *rsa.PrivateKey
}

// Outcome is what Run returns: the bank's return codes (data for the
// caller to inspect, never a Go error) and the command's deserialized
// payload.
type Outcome struct {
	TransactionID       string
	TechnicalReturnCode string
	BusinessReturnCode  string
	ReportText          string
	Result              commands.Result
}

// Engine drives one transaction at a time per invocation; concurrent
// callers each own their own Identity/Secured/UploadMaterial and may share
// one Engine and its Client safely.
type Engine struct {
	http   *transport.Client
	logger *slog.Logger
}

// New builds an Engine over a shared transport.Client.
func New(httpClient *transport.Client, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{http: httpClient, logger: logger}
}

// Run drives cmd through Initialisation, then Transfer/Receipt as its
// direction requires, and returns the bank's reported outcome. bankAuthDigest
// and bankCryptDigest are nil for INI/HIA (no bank key is known yet); upload
// is nil for pure-download commands (HPB, HPD, PTK, STA).
func (e *Engine) Run(ctx context.Context, cmd commands.Command, id Identity, sec Secured, bankAuthDigest, bankCryptDigest []byte, upload *commands.UploadMaterial) (Outcome, error) {
	correlationID := uuid.New().String()
	logger := e.logger.With("correlation_id", correlationID, "order_type", cmd.OrderType())

	nonce, err := xcrypto.RandomNonce()
	if err != nil {
		return Outcome{}, err
	}

	rc := commands.RequestContext{
		Version:         id.Version,
		HostID:          id.HostID,
		PartnerID:       id.PartnerID,
		UserID:          id.UserID,
		SystemID:        id.SystemID,
		Product:         id.Product,
		Nonce:           nonce,
		Timestamp:       xcrypto.UTCTimestamp(time.Time{}),
		BankAuthDigest:  bankAuthDigest,
		BankCryptDigest: bankCryptDigest,
	}

	logger.Info("transaction phase", "phase", ns.PhaseInitialisation)
	initDoc, err := cmd.BuildInitRequest(rc, upload)
	if err != nil {
		return Outcome{}, err
	}
	if err := signDoc(initDoc, sec.SignKey); err != nil {
		return Outcome{}, err
	}
	respDoc, err := e.send(ctx, initDoc)
	if err != nil {
		return Outcome{}, err
	}
	respRoot := respDoc.Root()
	if err := verifyIfNeeded(respRoot, sec.VerifyKey); err != nil {
		logger.Warn("auth signature verification failed", "phase", ns.PhaseInitialisation)
		return Outcome{}, err
	}

	out := Outcome{
		TransactionID:       ebicsxml.TransactionID(respRoot),
		TechnicalReturnCode: ebicsxml.TechnicalReturnCode(respRoot),
		BusinessReturnCode:  ebicsxml.BusinessReturnCode(respRoot),
		ReportText:          ebicsxml.ReportText(respRoot),
	}
	rc.TransactionID = out.TransactionID

	if !isSuccessCode(out.TechnicalReturnCode) {
		logger.Warn("bank rejected initialisation", "code", out.TechnicalReturnCode, "report", out.ReportText)
		if result, derr := cmd.Deserialize(nil); derr == nil {
			out.Result = result
		}
		return out, nil
	}

	numSegments := ebicsxml.NumSegments(respRoot)
	if numSegments < 1 {
		numSegments = 1
	}

	switch cmd.Direction() {
	case commands.Upload:
		finalRoot, err := e.runUploadTransfers(ctx, logger, cmd, rc, sec, upload, numSegments)
		if err != nil {
			return Outcome{}, err
		}
		if finalRoot != nil {
			// The dialog's last Transfer response is authoritative for the
			// bank's outcome codes; the Initialisation response only reports
			// that the session was accepted.
			out.TechnicalReturnCode = ebicsxml.TechnicalReturnCode(finalRoot)
			out.BusinessReturnCode = ebicsxml.BusinessReturnCode(finalRoot)
			out.ReportText = ebicsxml.ReportText(finalRoot)
		}
		result, err := cmd.Deserialize(nil)
		if err != nil {
			return Outcome{}, err
		}
		out.Result = result
		logger.Info("transaction complete", "transaction_id", out.TransactionID)
		return out, nil

	default: // commands.Download
		return e.runDownload(ctx, logger, cmd, rc, sec, respRoot, numSegments, out)
	}
}

// runUploadTransfers issues Transfer requests for segments 2..numSegments
// (segment 1 already rode in the Initialisation request). Upload commands
// have no Receipt phase: the bank's final ReturnCode on the last Transfer
// response is the end of the dialog. Returns
// the last Transfer response's root element (nil if numSegments == 1 and no
// Transfer request was ever sent), so Run can surface its outcome codes.
func (e *Engine) runUploadTransfers(ctx context.Context, logger *slog.Logger, cmd commands.Command, rc commands.RequestContext, sec Secured, upload *commands.UploadMaterial, numSegments int) (*etree.Element, error) {
	if numSegments > 1 && rc.TransactionID == "" {
		return nil, ebicserrors.New(ebicserrors.KindProtocol, "transaction.runUploadTransfers", ebicserrors.ErrMissingTransactionID)
	}
	var lastRoot *etree.Element
	for seg := 2; seg <= numSegments; seg++ {
		logger.Info("transaction phase", "phase", ns.PhaseTransfer, "segment", seg)
		doc, err := cmd.BuildTransferRequest(rc, seg, upload)
		if err != nil {
			return nil, err
		}
		if err := signDoc(doc, sec.SignKey); err != nil {
			return nil, err
		}
		respDoc, err := e.send(ctx, doc)
		if err != nil {
			return nil, err
		}
		if err := verifyIfNeeded(respDoc.Root(), sec.VerifyKey); err != nil {
			return nil, err
		}
		if tid := ebicsxml.TransactionID(respDoc.Root()); tid != "" && tid != rc.TransactionID {
			return nil, ebicserrors.New(ebicserrors.KindProtocol, "transaction.runUploadTransfers", ebicserrors.ErrTransactionIDMismatch)
		}
		lastRoot = respDoc.Root()
	}
	return lastRoot, nil
}

// runDownload collects OrderData segments across the Initialisation
// response and any Transfer responses, unwraps the session key, decrypts
// and decompresses the assembled payload, then issues the closing Receipt.
func (e *Engine) runDownload(ctx context.Context, logger *slog.Logger, cmd commands.Command, rc commands.RequestContext, sec Secured, initRoot *etree.Element, numSegments int, out Outcome) (Outcome, error) {
	segments := []string{ebicsxml.OrderDataSegment(initRoot)}
	_, keyB64 := ebicsxml.DataEncryptionInfo(initRoot)

	if numSegments > 1 && rc.TransactionID == "" {
		return Outcome{}, ebicserrors.New(ebicserrors.KindProtocol, "transaction.runDownload", ebicserrors.ErrMissingTransactionID)
	}
	for seg := 2; seg <= numSegments; seg++ {
		last := seg == numSegments
		logger.Info("transaction phase", "phase", ns.PhaseTransfer, "segment", seg)
		reqDoc := ebicsxml.BuildDownloadTransferRequest(rc.Version, rc.HostID, rc.PartnerID, rc.UserID, rc.TransactionID, seg, last)
		if err := signDoc(reqDoc, sec.SignKey); err != nil {
			return Outcome{}, err
		}
		respDoc, err := e.send(ctx, reqDoc)
		if err != nil {
			return Outcome{}, err
		}
		respRoot := respDoc.Root()
		if err := verifyIfNeeded(respRoot, sec.VerifyKey); err != nil {
			return Outcome{}, err
		}
		if tid := ebicsxml.TransactionID(respRoot); tid != "" && tid != rc.TransactionID {
			return Outcome{}, ebicserrors.New(ebicserrors.KindProtocol, "transaction.runDownload", ebicserrors.ErrTransactionIDMismatch)
		}
		segments = append(segments, ebicsxml.OrderDataSegment(respRoot))
	}

	receiptCode := 0
	var plaintext []byte
	if keyB64 != "" {
		sessionKey, err := codec.UnwrapTransactionKey(keyB64, sec.CryptPriv)
		if err != nil {
			receiptCode = 1
		} else if pt, derr := codec.Decompose(segments, sessionKey); derr != nil {
			receiptCode = 1
		} else {
			plaintext = pt
		}
	}

	logger.Info("transaction phase", "phase", ns.PhaseReceipt, "receipt_code", receiptCode)
	receiptDoc, err := cmd.BuildReceiptRequest(rc, receiptCode)
	if err != nil {
		return Outcome{}, err
	}
	if err := signDoc(receiptDoc, sec.SignKey); err != nil {
		return Outcome{}, err
	}
	receiptRespDoc, err := e.send(ctx, receiptDoc)
	if err != nil {
		return Outcome{}, err
	}
	if err := verifyIfNeeded(receiptRespDoc.Root(), sec.VerifyKey); err != nil {
		return Outcome{}, err
	}

	if receiptCode != 0 {
		return Outcome{}, ebicserrors.New(ebicserrors.KindCrypto, "transaction.runDownload", ebicserrors.ErrDecryptFailed)
	}

	result, err := cmd.Deserialize(plaintext)
	if err != nil {
		return Outcome{}, err
	}
	out.Result = result
	logger.Info("transaction complete", "transaction_id", out.TransactionID)
	return out, nil
}

// send serializes doc, posts it, and parses the bank's response.
func (e *Engine) send(ctx context.Context, doc *etree.Document) (*etree.Document, error) {
	body, err := doc.WriteToBytes()
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindCreateRequest, "transaction.send", err)
	}
	respBytes, err := e.http.Post(ctx, body)
	if err != nil {
		return nil, err
	}
	return ebicsxml.Parse(respBytes)
}

// signDoc produces an AuthSignature over doc's root when key is non-nil
// (every request except INI/HIA).
func signDoc(doc *etree.Document, key *rsa.PrivateKey) error {
	if key == nil {
		return nil
	}
	return sign.Produce(doc.Root(), key)
}

// verifyIfNeeded checks root's AuthSignature when pub is non-nil. A failed
// verification is fatal for the transaction.
func verifyIfNeeded(root *etree.Element, pub *rsa.PublicKey) error {
	if pub == nil {
		return nil
	}
	if !sign.Verify(root, pub) {
		return ebicserrors.New(ebicserrors.KindProtocol, "transaction.verifyIfNeeded", ebicserrors.ErrSignatureInvalid)
	}
	return nil
}

// isSuccessCode reports whether code is EBICS success (000000), the
// informational EBICS_DOWNLOAD_POSTPROCESS_DONE code, a recovery-sync
// advisory (the informational 0110xx family), or absent entirely (unsecured
// single-phase exchanges carry no ReturnCode to check).
func isSuccessCode(code string) bool {
	if code == "" || code == ns.ReturnCodeOK || code == ns.ReturnCodeDownloadPostprocessDone {
		return true
	}
	return strings.HasPrefix(code, ns.ReturnCodeRecoverySyncPrefix)
}
