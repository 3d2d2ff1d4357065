package identity

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/chainlaunch/asset-gateway/cmd/common"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/spf13/cobra"
)

type listCmd struct {
	configPath *string
	org        string
	logger     *logger.Logger
}

func (c *listCmd) run(cmd *cobra.Command, out io.Writer) error {
	app, err := common.NewApp(*c.configPath)
	if err != nil {
		return err
	}
	defer app.Close()

	orgs := app.Config.OrgIDs()
	if c.org != "" {
		orgs = []string{c.org}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ORG\tLABEL\tMSP ID\tROLE")
	for _, org := range orgs {
		labels, err := app.Store.List(cmd.Context(), org)
		if err != nil {
			return err
		}
		for _, label := range labels {
			id, err := app.Store.Get(cmd.Context(), org, label)
			if err != nil {
				c.logger.Warn("Skipping unreadable identity", "org", org, "label", label, "error", err)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", org, label, id.MSPID, id.Role)
		}
	}
	return w.Flush()
}

func newListCmd(out io.Writer, configPath *string, logger *logger.Logger) *cobra.Command {
	c := &listCmd{configPath: configPath, logger: logger}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored identities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, out)
		},
	}
	cmd.Flags().StringVar(&c.org, "org", "", "Only list this organization")
	return cmd
}
