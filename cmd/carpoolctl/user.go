package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	userPassword string
	userAdmin    bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage login accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a user, or replace the password and role of an existing one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.Auth.SaveUser(cmd.Context(), args[0], userPassword, userAdmin)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved user %s (admin=%t)\n", u.Username, u.IsAdmin)
		return nil
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd <username>",
	Short: "Reset a user's password and admin flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Auth.ResetUser(cmd.Context(), args[0], userPassword, userAdmin); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reset user %s (admin=%t)\n", args[0], userAdmin)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{userAddCmd, userPasswdCmd} {
		c.Flags().StringVarP(&userPassword, "password", "p", "", "new password")
		c.Flags().BoolVar(&userAdmin, "admin", false, "grant admin rights")
		c.MarkFlagRequired("password")
		userCmd.AddCommand(c)
	}
	rootCmd.AddCommand(userCmd)
}
