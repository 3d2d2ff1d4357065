package serve

import (
	"io"
	"testing"

	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeRejectsInvalidPortFlag(t *testing.T) {
	for _, port := range []string{"0", "70000"} {
		t.Run(port, func(t *testing.T) {
			cmd := Command(logger.NewNop())
			cmd.SetArgs([]string{"--port", port})
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			cmd.SilenceUsage = true

			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "out of range")
		})
	}
}

func TestServeOverrides(t *testing.T) {
	c := &serveCmd{logger: logger.NewNop()}
	cmd := Command(logger.NewNop())
	assert.Empty(t, c.overrides(cmd))

	require.NoError(t, cmd.Flags().Set("port", "8080"))
	c.port = 8080
	c.tlsCertFile = "server.crt"
	assert.Len(t, c.overrides(cmd), 2)
}
