package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/craterio/registry/storage/model"
)

var cratesCmd = &cobra.Command{
	Use:   "crates",
	Short: "Manage crates and their owners",
}

var crateDescription string

func init() {
	cratesCreateCmd.Flags().StringVar(&crateDescription, "description", "", "description of the crate")
	cratesCmd.AddCommand(cratesCreateCmd)
	cratesCmd.AddCommand(cratesAddOwnerCmd)
}

var cratesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new crate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		crate, err := backends.Crates.Create(args[0], crateDescription)
		if err != nil {
			return err
		}
		fmt.Printf("created crate %s (id %d)\n", crate.Name, crate.ID)
		return nil
	},
}

var cratesAddOwnerCmd = &cobra.Command{
	Use:   "add-owner <crate> <username>",
	Short: "Add a user as owner of a crate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		crate, err := backends.Crates.Get(args[0])
		if err != nil {
			return err
		}
		user, err := backends.Users.Get(args[1])
		if err != nil {
			return err
		}
		return backends.Crates.AddOwner(crate.ID, user.ID, model.OwnerKindUser)
	},
}

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage trusted publishing tokens",
}

func init() {
	tokensCmd.AddCommand(tokensSweepCmd)
}

var tokensSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired tokens and used token IDs from storage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		removed, err := backends.Tokens.SweepExpired(time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("removed %d expired rows\n", removed)
		return nil
	},
}
