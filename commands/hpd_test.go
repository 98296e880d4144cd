package commands

import (
	"testing"

	"github.com/ebicsgo/ebics/keys"
)

func TestHpdDeserializeParsesAccessAndProtocolParams(t *testing.T) {
	payload := []byte(`<HostParameters>
		<AccessParams>
			<HostID>HOST</HostID>
			<MaxOrderDataSize>1048576</MaxOrderDataSize>
		</AccessParams>
		<ProtocolParams RecoverySupported="true" X509DataPersistent="false">
			<Version>H004</Version>
			<Version>H005</Version>
		</ProtocolParams>
	</HostParameters>`)

	result, err := hpdCommand{}.Deserialize(payload)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	params, ok := result.Payload.(keys.BankParams)
	if !ok {
		t.Fatalf("Payload type = %T, want keys.BankParams", result.Payload)
	}
	if params.AccessParams["HostID"] != "HOST" {
		t.Fatalf("AccessParams[HostID] = %q, want HOST", params.AccessParams["HostID"])
	}
	if params.AccessParams["MaxOrderDataSize"] != "1048576" {
		t.Fatalf("AccessParams[MaxOrderDataSize] = %q", params.AccessParams["MaxOrderDataSize"])
	}
	if len(params.ProtocolParams.Protocols) != 2 || params.ProtocolParams.Protocols[0] != "H004" || params.ProtocolParams.Protocols[1] != "H005" {
		t.Fatalf("Protocols = %v, want [H004 H005]", params.ProtocolParams.Protocols)
	}
	if !params.ProtocolParams.RecoverySupported {
		t.Fatal("RecoverySupported = false, want true")
	}
	if params.ProtocolParams.X509DataPersistent {
		t.Fatal("X509DataPersistent = true, want false")
	}
}

func TestHpdDeserializeDefaultsMissingAttributes(t *testing.T) {
	payload := []byte(`<HostParameters>
		<ProtocolParams>
			<Version>H004</Version>
		</ProtocolParams>
	</HostParameters>`)

	result, err := hpdCommand{}.Deserialize(payload)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	params := result.Payload.(keys.BankParams)
	if params.ProtocolParams.RecoverySupported || params.ProtocolParams.X509DataPersistent {
		t.Fatal("expected both booleans to default false when attributes are absent")
	}
	if len(params.AccessParams) != 0 {
		t.Fatalf("expected no AccessParams, got %v", params.AccessParams)
	}
}

func TestHpdBuildRequestsUseDownloadShape(t *testing.T) {
	cmd := hpdCommand{}
	if cmd.OrderType() != "HPD" || cmd.Direction() != Download {
		t.Fatalf("unexpected command identity: %+v", cmd)
	}
	doc, err := cmd.BuildInitRequest(testRC(), nil)
	if err != nil {
		t.Fatalf("BuildInitRequest: %v", err)
	}
	if doc.Root().FindElement("header/StaticHeader/OrderDetails/OrderType").Text() != "HPD" {
		t.Fatal("expected OrderType HPD")
	}
	if _, err := cmd.BuildTransferRequest(testRC(), 0, nil); err == nil {
		t.Fatal("HPD has no transfer phase, expected error")
	}
	if _, err := cmd.BuildReceiptRequest(testRC(), 0); err != nil {
		t.Fatalf("BuildReceiptRequest: %v", err)
	}
}
