package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage registry users",
}

var userDisplayName string
var userEmail string
var userPassword string
var userVerified bool

func init() {
	usersCreateCmd.Flags().StringVar(&userDisplayName, "display-name", "", "display name of the user")
	usersCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address of the user")
	usersCreateCmd.Flags().StringVar(&userPassword, "password", "", "password, read from stdin if not given")
	usersCreateCmd.Flags().BoolVar(&userVerified, "verified", false, "mark the email address as verified")
	usersPasswdCmd.Flags().StringVar(&userPassword, "password", "", "new password, read from stdin if not given")
	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersDeleteCmd)
	usersCmd.AddCommand(usersPasswdCmd)
	usersCmd.AddCommand(usersVerifyEmailCmd)
}

func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}

var usersCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a new user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		password := userPassword
		if password == "" {
			var err error
			if password, err = readPassword(); err != nil {
				return err
			}
		}
		user, err := backends.Users.Create(args[0], password, userDisplayName, userEmail)
		if err != nil {
			return err
		}
		if userVerified {
			if err = backends.Users.SetEmailVerified(user.Username, true); err != nil {
				return err
			}
		}
		fmt.Printf("created user %s (id %d)\n", user.Username, user.ID)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		users, err := backends.Users.List()
		if err != nil {
			return err
		}
		for _, u := range users {
			state := ""
			if u.Disabled {
				state = " (disabled)"
			}
			verified := ""
			if u.EmailVerified {
				verified = " [verified]"
			}
			fmt.Printf("%d\t%s\t%s%s%s\n", u.ID, u.Username, u.Email, verified, state)
		}
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		return backends.Users.Delete(args[0])
	},
}

var usersPasswdCmd = &cobra.Command{
	Use:   "passwd <username>",
	Short: "Change a user's password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		password := userPassword
		if password == "" {
			var err error
			if password, err = readPassword(); err != nil {
				return err
			}
		}
		_, err := backends.Users.Update(args[0], nil, nil, &password, nil)
		return err
	},
}

var usersVerifyEmailCmd = &cobra.Command{
	Use:   "verify-email <username>",
	Short: "Mark a user's email address as verified",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		return backends.Users.SetEmailVerified(args[0], true)
	},
}
