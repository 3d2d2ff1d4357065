package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chainlaunch/asset-gateway/pkg/errors"
	"github.com/chainlaunch/asset-gateway/pkg/fabric/broker"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/chainlaunch/asset-gateway/pkg/metrics"
	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"google.golang.org/grpc/status"
)

// Dispatcher maps asset operations onto submit or evaluate calls. Failures
// are never retried.
type Dispatcher struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(log *logger.Logger, m *metrics.Metrics) *Dispatcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Dispatcher{logger: log, metrics: m}
}

// Invoke runs any catalogue operation with raw text arguments and returns
// the raw payload.
func (d *Dispatcher) Invoke(ctx context.Context, contract broker.Contract, operation string, args ...string) ([]byte, error) {
	kind, ok := KindOf(operation)
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown operation %q", operation), map[string]interface{}{"operation": operation})
	}

	start := time.Now()
	var (
		payload []byte
		err     error
	)
	switch kind {
	case KindSubmit:
		payload, err = contract.SubmitTransaction(operation, args...)
	case KindEvaluate:
		payload, err = contract.EvaluateTransaction(operation, args...)
	}
	d.metrics.ObserveInvocation(operation, string(kind), time.Since(start), err)
	if err != nil {
		d.logger.Debug("Contract invocation failed", "operation", operation, "kind", kind, "error", err)
		return nil, errors.NewContractInvocationError(operation, invocationCause(err))
	}
	return payload, nil
}

func (d *Dispatcher) InitLedger(ctx context.Context, contract broker.Contract) error {
	_, err := d.Invoke(ctx, contract, OpInitLedger)
	return err
}

func (d *Dispatcher) CreateAsset(ctx context.Context, contract broker.Contract, asset Asset) (string, error) {
	if _, err := d.Invoke(ctx, contract, OpCreateAsset, asset.args()...); err != nil {
		return "", err
	}
	return asset.ID, nil
}

// ReadAsset returns the asset document as decoded JSON. Numbers keep their
// textual form.
func (d *Dispatcher) ReadAsset(ctx context.Context, contract broker.Contract, id string) (interface{}, error) {
	payload, err := d.Invoke(ctx, contract, OpReadAsset, id)
	if err != nil {
		return nil, err
	}
	var asset interface{}
	if err := decodeJSON(payload, &asset); err != nil {
		return nil, errors.NewContractInvocationError(OpReadAsset, err)
	}
	return asset, nil
}

func (d *Dispatcher) UpdateAsset(ctx context.Context, contract broker.Contract, asset Asset) (string, error) {
	if _, err := d.Invoke(ctx, contract, OpUpdateAsset, asset.args()...); err != nil {
		return "", err
	}
	return asset.ID, nil
}

func (d *Dispatcher) DeleteAsset(ctx context.Context, contract broker.Contract, id string) (string, error) {
	if _, err := d.Invoke(ctx, contract, OpDeleteAsset, id); err != nil {
		return "", err
	}
	return id, nil
}

// TransferAsset returns the owner before the transfer.
func (d *Dispatcher) TransferAsset(ctx context.Context, contract broker.Contract, id, newOwner string) (string, error) {
	payload, err := d.Invoke(ctx, contract, OpTransferAsset, id, newOwner)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// AssetExists converts the contract's literal "true"/"false" answer.
func (d *Dispatcher) AssetExists(ctx context.Context, contract broker.Contract, id string) (bool, error) {
	payload, err := d.Invoke(ctx, contract, OpAssetExists, id)
	if err != nil {
		return false, err
	}
	switch strings.TrimSpace(string(payload)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, errors.NewContractInvocationError(OpAssetExists, fmt.Errorf("unexpected response %q", payload))
	}
}

// GetAllAssets returns every asset document. An empty ledger yields an
// empty, non-nil slice.
func (d *Dispatcher) GetAllAssets(ctx context.Context, contract broker.Contract) ([]interface{}, error) {
	payload, err := d.Invoke(ctx, contract, OpGetAllAssets)
	if err != nil {
		return nil, err
	}
	assets := []interface{}{}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return assets, nil
	}
	if err := decodeJSON(trimmed, &assets); err != nil {
		return nil, errors.NewContractInvocationError(OpGetAllAssets, err)
	}
	if assets == nil {
		assets = []interface{}{}
	}
	return assets, nil
}

func decodeJSON(payload []byte, v interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("failed to parse contract response: %w", err)
	}
	return nil
}

// invocationCause flattens a gateway error into one message: the gRPC
// status message followed by any per-peer details.
func invocationCause(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	msg := st.Message()
	for _, detail := range st.Details() {
		if d, ok := detail.(*gateway.ErrorDetail); ok {
			msg += fmt.Sprintf("; peer=%s, mspId=%s, message=%s", d.GetAddress(), d.GetMspId(), d.GetMessage())
		}
	}
	return fmt.Errorf("%s", msg)
}
