/*
Copyright © 2025 ChainLaunch <dviejo@chainlaunch.dev>
*/
package main

import (
	"github.com/chainlaunch/asset-gateway/cmd"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetLevel(logrus.DebugLevel)
	err := cmd.NewRootCmd().Execute()
	if err != nil {
		logrus.Fatalf("Error executing command: %v", err)
	}
}
