package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func (e *env) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := e.api.Ping(e.ctx(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, msg)
			return nil
		},
	}
}

func (e *env) loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}
			res, err := e.api.Login(e.ctx(cmd), username, password)
			if err != nil {
				return err
			}
			role := "user"
			if res.User.IsAdmin {
				role = "admin"
			}
			fmt.Fprintf(e.out, "Logged in as %s (%s)\n", res.User.Username, role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func (e *env) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.api.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "Logged out")
			return nil
		},
	}
}

func (e *env) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(); err != nil {
				return err
			}
			u, _ := e.session.User()
			fmt.Fprintf(e.out, "id=%d username=%s admin=%t\n", u.ID, u.Username, u.IsAdmin)
			return nil
		},
	}
}

func (e *env) passwdCmd() *cobra.Command {
	var current, next string
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the password of the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(); err != nil {
				return err
			}
			if err := e.api.ChangePassword(e.ctx(cmd), current, next); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "Password changed")
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&next, "new", "", "new password")
	return cmd
}
