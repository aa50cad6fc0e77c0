// Package cli implements the portalctl administration commands.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"portal/pkg/session"
	"portal/pkg/user"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Backend is what the commands operate on.
type Backend struct {
	Users    user.Repository
	Sessions session.Repository
	Service  user.ServiceInterface
	Timeout  time.Duration
}

// Opener connects a Backend; the returned func releases it.
type Opener func(ctx context.Context) (*Backend, func(), error)

func NewRootCmd(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:          "portalctl",
		Short:        "Administer portal accounts and sessions",
		SilenceUsage: true,
	}
	root.AddCommand(NewUserCmd(open))
	root.AddCommand(NewSessionCmd(open))
	return root
}

// NewUserCmd creates the "user" command group.
func NewUserCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserAdd(cmd, args, open)
		},
	}
	add.Flags().String("name", "", "Display name")
	add.Flags().String("email", "", "Email address")
	add.Flags().String("role", string(user.RolePatient), "admin | organization | doctor | patient | supplier")
	add.Flags().String("org", "", "Organization id")
	add.Flags().Bool("password-stdin", false, "Read the password from stdin instead of the terminal")

	cmd.AddCommand(add)
	return cmd
}

func runUserAdd(cmd *cobra.Command, args []string, open Opener) error {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	role, _ := cmd.Flags().GetString("role")
	org, _ := cmd.Flags().GetString("org")
	fromStdin, _ := cmd.Flags().GetBool("password-stdin")

	password, err := getPassword(cmd, fromStdin)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	b, release, err := open(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := context.WithTimeout(cmd.Context(), b.Timeout)
	defer cancel()

	created, err := b.Service.Register(ctx, user.RegisterForm{
		Username:       args[0],
		Password:       password,
		Name:           name,
		Email:          email,
		Role:           user.Role(role),
		OrganizationID: org,
	})
	if errors.Is(err, user.ErrUserExists) {
		return fmt.Errorf("user %q already exists", args[0])
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", created.Username, created.Role, created.ID)
	return nil
}

// NewSessionCmd creates the "session" command group.
func NewSessionCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <username>",
		Short: "End every session of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, release, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			ctx, cancel := context.WithTimeout(cmd.Context(), b.Timeout)
			defer cancel()

			u, err := b.Users.FindByUsername(ctx, args[0])
			if errors.Is(err, user.ErrNotFound) {
				return fmt.Errorf("user %q not found", args[0])
			}
			if err != nil {
				return err
			}
			n, err := b.Sessions.DeleteByUser(ctx, u.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %d session(s) of %s\n", n, u.Username)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove expired sessions now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, release, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			ctx, cancel := context.WithTimeout(cmd.Context(), b.Timeout)
			defer cancel()

			n, err := b.Sessions.PurgeExpired(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired session(s)\n", n)
			return nil
		},
	})

	return cmd
}

func getPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
