package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/spf13/cobra"
)

// explain adds a hint to errors the user can act on.
func explain(err error) error {
	switch {
	case errors.Is(err, client.ErrNoSession):
		return fmt.Errorf("%w: run 'gophauth signin' first", err)
	case errors.Is(err, client.ErrUnavailable):
		return fmt.Errorf("%w: check the server address (-a)", err)
	default:
		return err
	}
}

func (a *App) newSignUpCmd() *cobra.Command {
	var email, name, role string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			email, err := a.textOrPrompt(email, "Enter email", out)
			if err != nil {
				return err
			}
			name, err := a.textOrPrompt(name, "Enter user name", out)
			if err != nil {
				return err
			}
			password, err := getNewPassword("Enter password", out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			ctx, cancel := a.callContext(cmd.Context())
			defer cancel()

			acc, err := a.auth.SignUp(ctx, email, name, password, role)
			if err != nil {
				return explain(err)
			}

			fmt.Fprintf(out, "Signed up as %s (%s)\n", acc.Name, acc.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "account user name")
	cmd.Flags().StringVar(&role, "role", "", "account role (USER or ADMIN)")

	return cmd
}

func (a *App) newSignInCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			email, err := a.textOrPrompt(email, "Enter email", out)
			if err != nil {
				return err
			}
			password, err := getPassword("Enter password", out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			ctx, cancel := a.callContext(cmd.Context())
			defer cancel()

			acc, err := a.auth.SignIn(ctx, email, password)
			if err != nil {
				return explain(err)
			}

			fmt.Fprintf(out, "Signed in as %s (%s)\n", acc.Name, acc.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")

	return cmd
}

func (a *App) newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored refresh token for a new token pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.callContext(cmd.Context())
			defer cancel()

			if err := a.auth.Refresh(ctx); err != nil {
				return explain(err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Session refreshed")
			return nil
		},
	}
}

func (a *App) newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.callContext(cmd.Context())
			defer cancel()

			acc, err := a.auth.Me(ctx)
			if err != nil {
				return explain(err)
			}

			printAccount(cmd.OutOrStdout(), acc)
			return nil
		},
	}
}

func (a *App) newResetPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for an account by email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			email, err := a.textOrPrompt(email, "Enter email", out)
			if err != nil {
				return err
			}
			password, err := getNewPassword("Enter new password", out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			ctx, cancel := a.callContext(cmd.Context())
			defer cancel()

			acc, err := a.auth.ResetPassword(ctx, email, password)
			if err != nil {
				return explain(err)
			}

			fmt.Fprintf(out, "Password reset for %s\n", acc.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")

	return cmd
}

func (a *App) newChangePasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "change-password",
		Short: "Change the signed-in account's password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			current, err := getPassword("Enter current password", out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(current)

			next, err := getNewPassword("Enter new password", out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(next)

			ctx, cancel := a.callContext(cmd.Context())
			defer cancel()

			if _, err := a.auth.ChangePassword(ctx, current, next); err != nil {
				return explain(err)
			}

			fmt.Fprintln(out, "Password changed")
			return nil
		},
	}
}

func (a *App) newSignOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the locally stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.auth.SignOut(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (a *App) newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.callContext(cmd.Context())
			defer cancel()

			if err := a.auth.Ping(ctx); err != nil {
				return explain(err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Server is up")
			return nil
		},
	}
}
