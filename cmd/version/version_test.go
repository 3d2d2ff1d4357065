package version

import (
	"bytes"
	"testing"

	"github.com/chainlaunch/asset-gateway/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionOutput(t *testing.T) {
	version.Version = "v1.2.3"
	t.Cleanup(func() { version.Version = "dev" })

	var out bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Version: v1.2.3\n")
	assert.Contains(t, out.String(), "Git Commit: none\n")
}
