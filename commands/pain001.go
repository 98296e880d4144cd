package commands

import (
	"strconv"

	"github.com/beevik/etree"

	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
)

// CctParams is the caller-supplied input for a CCT (SEPA credit transfer)
// upload: an initiating party and one or more payment info groups, the
// minimum ISO 20022 pain.001.001.03 shape.
type CctParams struct {
	MessageID        string
	CreationDateTime string
	InitiatingParty  string
	PaymentInfos     []PaymentInfo
}

// PaymentInfo groups one debtor and the credit transfer transactions debited
// from its account in a single pain.001 PmtInf block.
type PaymentInfo struct {
	PaymentInfoID string
	ExecutionDate string
	DebtorName    string
	DebtorIBAN    string
	DebtorBIC     string
	Transactions  []CreditTransferTransaction
}

// CreditTransferTransaction is a single pain.001 CdtTrfTxInf entry.
type CreditTransferTransaction struct {
	EndToEndID     string
	Amount         string // decimal string, e.g. "123.45"
	Currency       string
	CreditorName   string
	CreditorIBAN   string
	CreditorBIC    string
	RemittanceInfo string
}

// BuildPain001Document renders params as an ISO 20022 pain.001.001.03
// Customer Credit Transfer Initiation document. It does not
// validate IBAN/BIC checksums or amount formatting beyond what the caller
// supplies; that belongs to a caller-side payment-construction layer, out
// of this client's scope.
func BuildPain001Document(params CctParams) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Document")
	root.CreateAttr("xmlns", ns.NSPain001)
	root.CreateAttr("xmlns:xsi", ns.NSXSI)

	cstmrCdtTrfInitn := root.CreateElement("CstmrCdtTrfInitn")

	grpHdr := cstmrCdtTrfInitn.CreateElement("GrpHdr")
	grpHdr.CreateElement("MsgId").SetText(params.MessageID)
	grpHdr.CreateElement("CreDtTm").SetText(params.CreationDateTime)
	grpHdr.CreateElement("NbOfTxs").SetText(strconv.Itoa(totalTransactions(params.PaymentInfos)))
	grpHdr.CreateElement("InitgPty").CreateElement("Nm").SetText(params.InitiatingParty)

	for _, pi := range params.PaymentInfos {
		pmtInf := cstmrCdtTrfInitn.CreateElement("PmtInf")
		pmtInf.CreateElement("PmtInfId").SetText(pi.PaymentInfoID)
		pmtInf.CreateElement("PmtMtd").SetText("TRF")
		pmtInf.CreateElement("NbOfTxs").SetText(strconv.Itoa(len(pi.Transactions)))
		pmtInf.CreateElement("ReqdExctnDt").SetText(pi.ExecutionDate)

		dbtr := pmtInf.CreateElement("Dbtr")
		dbtr.CreateElement("Nm").SetText(pi.DebtorName)
		dbtrAcct := pmtInf.CreateElement("DbtrAcct")
		dbtrAcct.CreateElement("Id").CreateElement("IBAN").SetText(pi.DebtorIBAN)
		dbtrAgt := pmtInf.CreateElement("DbtrAgt")
		dbtrAgt.CreateElement("FinInstnId").CreateElement("BIC").SetText(pi.DebtorBIC)
		pmtInf.CreateElement("ChrgBr").SetText("SLEV")

		for _, tx := range pi.Transactions {
			cdtTrfTxInf := pmtInf.CreateElement("CdtTrfTxInf")
			pmtId := cdtTrfTxInf.CreateElement("PmtId")
			pmtId.CreateElement("EndToEndId").SetText(tx.EndToEndID)

			amt := cdtTrfTxInf.CreateElement("Amt").CreateElement("InstdAmt")
			amt.CreateAttr("Ccy", tx.Currency)
			amt.SetText(tx.Amount)

			cdtrAgt := cdtTrfTxInf.CreateElement("CdtrAgt")
			cdtrAgt.CreateElement("FinInstnId").CreateElement("BIC").SetText(tx.CreditorBIC)

			cdtr := cdtTrfTxInf.CreateElement("Cdtr")
			cdtr.CreateElement("Nm").SetText(tx.CreditorName)

			cdtrAcct := cdtTrfTxInf.CreateElement("CdtrAcct")
			cdtrAcct.CreateElement("Id").CreateElement("IBAN").SetText(tx.CreditorIBAN)

			if tx.RemittanceInfo != "" {
				cdtTrfTxInf.CreateElement("RmtInf").CreateElement("Ustrd").SetText(tx.RemittanceInfo)
			}
		}
	}

	return doc.WriteToBytes()
}

func totalTransactions(infos []PaymentInfo) int {
	n := 0
	for _, pi := range infos {
		n += len(pi.Transactions)
	}
	return n
}
