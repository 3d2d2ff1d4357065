package assets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind says how a contract operation reaches the ledger.
type Kind string

const (
	// KindSubmit is ordered and committed.
	KindSubmit Kind = "submit"
	// KindEvaluate is a read-only query.
	KindEvaluate Kind = "evaluate"
)

const (
	OpInitLedger    = "InitLedger"
	OpCreateAsset   = "CreateAsset"
	OpReadAsset     = "ReadAsset"
	OpUpdateAsset   = "UpdateAsset"
	OpDeleteAsset   = "DeleteAsset"
	OpTransferAsset = "TransferAsset"
	OpAssetExists   = "AssetExists"
	OpGetAllAssets  = "GetAllAssets"
)

var catalogue = map[string]Kind{
	OpInitLedger:    KindSubmit,
	OpCreateAsset:   KindSubmit,
	OpReadAsset:     KindEvaluate,
	OpUpdateAsset:   KindSubmit,
	OpDeleteAsset:   KindSubmit,
	OpTransferAsset: KindSubmit,
	OpAssetExists:   KindEvaluate,
	OpGetAllAssets:  KindEvaluate,
}

// KindOf returns the call kind of a catalogue operation.
func KindOf(operation string) (Kind, bool) {
	kind, ok := catalogue[operation]
	return kind, ok
}

// Decimal is a number carried as its decimal text. It decodes from either a
// JSON number or a JSON string.
type Decimal string

func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Decimal(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decimal must be a number or a string: %w", err)
	}
	if !strings.ContainsAny(n.String(), ".eE") {
		*d = Decimal(n.String())
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("invalid decimal %s: %w", n, err)
	}
	*d = Decimal(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

func (d Decimal) String() string {
	return string(d)
}

// Asset mirrors the record stored by the asset-transfer contract.
type Asset struct {
	ID             string  `json:"ID"`
	Color          string  `json:"Color"`
	Size           Decimal `json:"Size"`
	Owner          string  `json:"Owner"`
	AppraisedValue Decimal `json:"AppraisedValue"`
}

func (a Asset) args() []string {
	return []string{a.ID, a.Color, a.Size.String(), a.Owner, a.AppraisedValue.String()}
}
