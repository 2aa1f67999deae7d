package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/craterio/registry/cmd/registry/config"
	"github.com/craterio/registry/storage/model"
)

var rootCmd = &cobra.Command{
	Use:   "regctl",
	Short: "regctl can help you manage your registry",
	Long:  "regctl can help you manage your registry",
}

var configFile string
var backends model.Backends

func loadConfig() error {
	config.Load(configFile)
	c := config.Get()

	var err error
	backends, err = config.LoadStorageBackends(c.Storage, c.API.Argon2idParams)
	if err != nil {
		log.Fatal(err)
	}
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "the config file to use")
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(cratesCmd)
	rootCmd.AddCommand(tokensCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
