package identity

import (
	"fmt"
	"io"
	"os"

	"github.com/chainlaunch/asset-gateway/cmd/common"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/spf13/cobra"
)

// NewIdentityCmd groups the wallet identity commands.
func NewIdentityCmd(logger *logger.Logger) *cobra.Command {
	var configPath string
	rootCmd := &cobra.Command{
		Use:   "identity",
		Short: "Manage organization identities",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the gateway configuration file")

	rootCmd.AddCommand(
		newEnrollAdminCmd(os.Stdout, &configPath, logger),
		newRegisterUserCmd(os.Stdout, &configPath, logger),
		newListCmd(os.Stdout, &configPath, logger),
	)
	return rootCmd
}

type enrollAdminCmd struct {
	configPath *string
	org        string
	logger     *logger.Logger
}

func (c *enrollAdminCmd) run(cmd *cobra.Command, out io.Writer) error {
	app, err := common.NewApp(*c.configPath)
	if err != nil {
		return err
	}
	defer app.Close()

	created, err := app.Authority.EnsureAdminIdentity(cmd.Context(), c.org)
	if err != nil {
		return err
	}
	if !created {
		c.logger.Info("Admin identity already present", "org", c.org)
	}
	_, err = fmt.Fprintf(out, "Enrolled admin for %s successfully\n", c.org)
	return err
}

func newEnrollAdminCmd(out io.Writer, configPath *string, logger *logger.Logger) *cobra.Command {
	c := &enrollAdminCmd{configPath: configPath, logger: logger}
	cmd := &cobra.Command{
		Use:   "enroll-admin",
		Short: "Enroll the organization's admin with the CA bootstrap credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, out)
		},
	}
	cmd.Flags().StringVar(&c.org, "org", "", "Organization id, e.g. org1")
	cmd.MarkFlagRequired("org")
	return cmd
}

type registerUserCmd struct {
	configPath *string
	org        string
	userID     string
	logger     *logger.Logger
}

func (c *registerUserCmd) run(cmd *cobra.Command, out io.Writer) error {
	app, err := common.NewApp(*c.configPath)
	if err != nil {
		return err
	}
	defer app.Close()

	created, err := app.Authority.EnsureUserIdentity(cmd.Context(), c.org, c.userID)
	if err != nil {
		return err
	}
	if !created {
		c.logger.Info("User identity already present", "org", c.org, "userId", c.userID)
	}
	_, err = fmt.Fprintf(out, "Registered user %s in %s successfully\n", c.userID, c.org)
	return err
}

func newRegisterUserCmd(out io.Writer, configPath *string, logger *logger.Logger) *cobra.Command {
	c := &registerUserCmd{configPath: configPath, logger: logger}
	cmd := &cobra.Command{
		Use:   "register-user",
		Short: "Register and enroll a user under the organization's affiliation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, out)
		},
	}
	cmd.Flags().StringVar(&c.org, "org", "", "Organization id, e.g. org1")
	cmd.Flags().StringVar(&c.userID, "user", "", "User id to register")
	cmd.MarkFlagRequired("org")
	cmd.MarkFlagRequired("user")
	return cmd
}
