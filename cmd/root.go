/*
Copyright © 2025 ChainLaunch <dviejo@chainlaunch.dev>
*/
package cmd

import (
	"github.com/chainlaunch/asset-gateway/cmd/asset"
	"github.com/chainlaunch/asset-gateway/cmd/identity"
	"github.com/chainlaunch/asset-gateway/cmd/serve"
	"github.com/chainlaunch/asset-gateway/cmd/version"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	logger := logger.NewDefault()
	rootCmd := &cobra.Command{
		Use:   "asset-gateway",
		Short: "An HTTP gateway for the Fabric asset-transfer contract",
		Long: `asset-gateway enrolls organization identities against their Fabric CA
and brokers asset-transfer transactions through the Fabric Gateway.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serve.Command(logger))
	rootCmd.AddCommand(identity.NewIdentityCmd(logger))
	rootCmd.AddCommand(asset.NewAssetCmd(logger))
	rootCmd.AddCommand(version.NewVersionCmd())
	return rootCmd
}
