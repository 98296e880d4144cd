package commands

import (
	"strconv"

	"github.com/beevik/etree"

	"github.com/ebicsgo/ebics/internal/ebicsxml/ns"
)

// CddParams is the caller-supplied input for a CDD (SEPA direct debit)
// upload: a creditor (the party collecting funds) and one or more payment
// info groups of mandated debit transactions, the minimum ISO 20022
// pain.008.001.02 shape.
type CddParams struct {
	MessageID        string
	CreationDateTime string
	CreditorName     string
	PaymentInfos     []DirectDebitPaymentInfo
}

// DirectDebitPaymentInfo groups one creditor collection batch's shared
// fields with its individual debit transactions in a single pain.008 PmtInf
// block.
type DirectDebitPaymentInfo struct {
	PaymentInfoID  string
	CollectionDate string
	CreditorIBAN   string
	CreditorBIC    string
	Transactions   []DirectDebitTransaction
}

// DirectDebitTransaction is a single pain.008 DrctDbtTxInf entry, carrying
// the SEPA mandate that authorizes the debit.
type DirectDebitTransaction struct {
	EndToEndID      string
	Amount          string // decimal string, e.g. "50.00"
	Currency        string
	MandateID       string
	MandateSignDate string
	DebtorName      string
	DebtorIBAN      string
	DebtorBIC       string
	RemittanceInfo  string
}

// BuildPain008Document renders params as an ISO 20022 pain.008.001.02
// Customer Direct Debit Initiation document.
func BuildPain008Document(params CddParams) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Document")
	root.CreateAttr("xmlns", ns.NSPain008)
	root.CreateAttr("xmlns:xsi", ns.NSXSI)

	cstmrDrctDbtInitn := root.CreateElement("CstmrDrctDbtInitn")

	grpHdr := cstmrDrctDbtInitn.CreateElement("GrpHdr")
	grpHdr.CreateElement("MsgId").SetText(params.MessageID)
	grpHdr.CreateElement("CreDtTm").SetText(params.CreationDateTime)
	grpHdr.CreateElement("NbOfTxs").SetText(strconv.Itoa(totalDDTransactions(params.PaymentInfos)))
	grpHdr.CreateElement("InitgPty").CreateElement("Nm").SetText(params.CreditorName)

	for _, pi := range params.PaymentInfos {
		pmtInf := cstmrDrctDbtInitn.CreateElement("PmtInf")
		pmtInf.CreateElement("PmtInfId").SetText(pi.PaymentInfoID)
		pmtInf.CreateElement("PmtMtd").SetText("DD")
		pmtInf.CreateElement("NbOfTxs").SetText(strconv.Itoa(len(pi.Transactions)))
		pmtInf.CreateElement("ReqdColltnDt").SetText(pi.CollectionDate)

		cdtr := pmtInf.CreateElement("Cdtr")
		cdtr.CreateElement("Nm").SetText(params.CreditorName)
		cdtrAcct := pmtInf.CreateElement("CdtrAcct")
		cdtrAcct.CreateElement("Id").CreateElement("IBAN").SetText(pi.CreditorIBAN)
		cdtrAgt := pmtInf.CreateElement("CdtrAgt")
		cdtrAgt.CreateElement("FinInstnId").CreateElement("BIC").SetText(pi.CreditorBIC)
		pmtInf.CreateElement("ChrgBr").SetText("SLEV")

		for _, tx := range pi.Transactions {
			drctDbtTxInf := pmtInf.CreateElement("DrctDbtTxInf")
			pmtId := drctDbtTxInf.CreateElement("PmtId")
			pmtId.CreateElement("EndToEndId").SetText(tx.EndToEndID)

			amt := drctDbtTxInf.CreateElement("InstdAmt")
			amt.CreateAttr("Ccy", tx.Currency)
			amt.SetText(tx.Amount)

			mandate := drctDbtTxInf.CreateElement("DrctDbtTx").CreateElement("MndtRltdInf")
			mandate.CreateElement("MndtId").SetText(tx.MandateID)
			mandate.CreateElement("DtOfSgntr").SetText(tx.MandateSignDate)

			dbtrAgt := drctDbtTxInf.CreateElement("DbtrAgt")
			dbtrAgt.CreateElement("FinInstnId").CreateElement("BIC").SetText(tx.DebtorBIC)

			dbtr := drctDbtTxInf.CreateElement("Dbtr")
			dbtr.CreateElement("Nm").SetText(tx.DebtorName)

			dbtrAcct := drctDbtTxInf.CreateElement("DbtrAcct")
			dbtrAcct.CreateElement("Id").CreateElement("IBAN").SetText(tx.DebtorIBAN)

			if tx.RemittanceInfo != "" {
				drctDbtTxInf.CreateElement("RmtInf").CreateElement("Ustrd").SetText(tx.RemittanceInfo)
			}
		}
	}

	return doc.WriteToBytes()
}

func totalDDTransactions(infos []DirectDebitPaymentInfo) int {
	n := 0
	for _, pi := range infos {
		n += len(pi.Transactions)
	}
	return n
}
