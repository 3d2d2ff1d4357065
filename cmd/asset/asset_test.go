package asset

import (
	"io"
	"testing"

	"github.com/chainlaunch/asset-gateway/pkg/assets"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestInvokeValidate(t *testing.T) {
	tests := []struct {
		kind    assets.Kind
		fcn     string
		wantErr string
	}{
		{assets.KindSubmit, "CreateAsset", ""},
		{assets.KindSubmit, "InitLedger", ""},
		{assets.KindEvaluate, "GetAllAssets", ""},
		{assets.KindEvaluate, "CreateAsset", "function CreateAsset is a submit operation"},
		{assets.KindSubmit, "ReadAsset", "function ReadAsset is a evaluate operation"},
		{assets.KindSubmit, "DropLedger", "unknown function DropLedger"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.fcn, func(t *testing.T) {
			c := &invokeCmd{kind: tt.kind, fcn: tt.fcn}
			err := c.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestCommandNames(t *testing.T) {
	assert.Equal(t, "invoke", newInvokeCmd(io.Discard, logger.NewNop(), assets.KindSubmit).Use)
	assert.Equal(t, "query", newInvokeCmd(io.Discard, logger.NewNop(), assets.KindEvaluate).Use)
}
