package asset

import (
	"fmt"
	"io"
	"os"

	"github.com/chainlaunch/asset-gateway/cmd/common"
	"github.com/chainlaunch/asset-gateway/pkg/assets"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/spf13/cobra"
)

// NewAssetCmd exposes the contract operations on the command line.
func NewAssetCmd(logger *logger.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "asset",
		Short: "Invoke the asset contract",
	}
	rootCmd.AddCommand(
		newInvokeCmd(os.Stdout, logger, assets.KindSubmit),
		newInvokeCmd(os.Stdout, logger, assets.KindEvaluate),
	)
	return rootCmd
}

type invokeCmd struct {
	configPath string
	org        string
	userID     string
	fcn        string
	args       []string
	kind       assets.Kind
	logger     *logger.Logger
}

func (c *invokeCmd) validate() error {
	kind, ok := assets.KindOf(c.fcn)
	if !ok {
		return fmt.Errorf("unknown function %s", c.fcn)
	}
	if kind != c.kind {
		return fmt.Errorf("function %s is a %s operation", c.fcn, kind)
	}
	return nil
}

func (c *invokeCmd) run(cmd *cobra.Command, out io.Writer) error {
	app, err := common.NewApp(c.configPath)
	if err != nil {
		return err
	}
	defer app.Close()

	payload, err := app.Assets.Invoke(cmd.Context(), c.org, c.userID, c.fcn, c.args...)
	if err != nil {
		return err
	}
	c.logger.Debug("Contract call completed", "fcn", c.fcn, "kind", c.kind, "bytes", len(payload))
	_, err = fmt.Fprintln(out, string(payload))
	return err
}

func newInvokeCmd(out io.Writer, logger *logger.Logger, kind assets.Kind) *cobra.Command {
	c := &invokeCmd{logger: logger, kind: kind}
	use, short := "invoke", "Submit a state-changing transaction"
	if kind == assets.KindEvaluate {
		use, short = "query", "Evaluate a read-only transaction"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.validate(); err != nil {
				return err
			}
			return c.run(cmd, out)
		},
	}
	persistentFlags := cmd.PersistentFlags()
	persistentFlags.StringVarP(&c.configPath, "config", "c", "", "Path to the gateway configuration file")
	persistentFlags.StringVar(&c.org, "org", "", "Organization id, e.g. org1")
	persistentFlags.StringVar(&c.userID, "user", "", "Wallet identity to sign with")
	persistentFlags.StringVar(&c.fcn, "fcn", "", "Function name")
	persistentFlags.StringArrayVarP(&c.args, "args", "a", []string{}, "Function arguments")
	cmd.MarkPersistentFlagRequired("org")
	cmd.MarkPersistentFlagRequired("user")
	cmd.MarkPersistentFlagRequired("fcn")
	return cmd
}
