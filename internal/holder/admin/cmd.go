// Package admin implements holderctl, the operator tool for migrations and
// account maintenance.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/dbx"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/auth"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/config"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/repomanager"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/services"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/logging"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Backend is what the commands operate on.
type Backend struct {
	Users   *services.UserService
	Migrate func(ctx context.Context) error
	Close   func() error
}

// Opener builds a Backend from the config file at path ("" for none).
type Opener func(ctx context.Context, path string) (*Backend, error)

// OpenDatabase is the production Opener.
func OpenDatabase(ctx context.Context, path string) (*Backend, error) {
	c, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	pool, err := dbx.Open(ctx, repomanager.DriverName, c.DatabaseDSN, dbx.PoolConfig{
		MinConns:       0,
		MaxConns:       c.PoolMaxConns,
		AcquireTimeout: c.PoolAcquireTimeout,
	})
	if err != nil {
		return nil, err
	}

	rm := repomanager.NewPostgresRepositoryManager()
	logger := logging.NewJSONLogger(os.Stderr, c.LogLevel)
	as := auth.NewService(c.SecretKey, c.AccessTokenValidityDuration, c.BcryptCost)

	return &Backend{
		Users:   services.NewUserService(pool, rm, as, nil, c.WalletName, logger),
		Migrate: func(ctx context.Context) error { return rm.RunMigrations(ctx, pool.DB()) },
		Close:   pool.Close,
	}, nil
}

type runner struct {
	open       Opener
	configPath string
}

func (r *runner) withBackend(fn func(cmd *cobra.Command, b *Backend, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		b, err := r.open(cmd.Context(), r.configPath)
		if err != nil {
			return err
		}
		defer func() { _ = b.Close() }()
		return fn(cmd, b, args)
	}
}

// NewRootCommand assembles the holderctl command tree.
func NewRootCommand(open Opener) *cobra.Command {
	r := &runner{open: open}

	root := &cobra.Command{
		Use:           "holderctl",
		Short:         "Holder service administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&r.configPath, "config", "c", "", "path to JSON config file")

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: r.withBackend(func(cmd *cobra.Command, b *Backend, _ []string) error {
			if err := b.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		}),
	})

	root.AddCommand(r.usersCommand())
	return root
}

func (r *runner) usersCommand() *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Manage holder accounts",
	}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: r.withBackend(func(cmd *cobra.Command, b *Backend, _ []string) error {
			us, err := b.Users.ListUsers(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tDID\tACTIVE")
			for _, u := range us {
				did := "-"
				if u.DID != nil {
					did = *u.DID
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", u.ID, u.Username, u.Email, did, u.IsActive)
			}
			return tw.Flush()
		}),
	}
	list.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	list.Flags().IntVar(&offset, "offset", 0, "rows to skip")

	var fullName string
	var passwordStdin bool
	create := &cobra.Command{
		Use:   "create <username> <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: r.withBackend(func(cmd *cobra.Command, b *Backend, args []string) error {
			password, err := promptPassword(cmd, passwordStdin)
			if err != nil {
				return err
			}
			in := services.RegisterInput{Username: args[0], Email: args[1], Password: password}
			if fullName != "" {
				in.FullName = &fullName
			}
			res, err := b.Users.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", res.User.ID, res.User.Username)
			return nil
		}),
	}
	create.Flags().StringVar(&fullName, "full-name", "", "display name")
	create.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from standard input")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: r.withBackend(func(cmd *cobra.Command, b *Backend, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := b.Users.DeleteUser(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted user %d\n", id)
			return nil
		}),
	}

	setDID := &cobra.Command{
		Use:   "set-did <id> <did>",
		Short: "Assign a DID to an account",
		Args:  cobra.ExactArgs(2),
		RunE: r.withBackend(func(cmd *cobra.Command, b *Backend, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := b.Users.AssignDID(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d now has did %s\n", id, args[1])
			return nil
		}),
	}

	users.AddCommand(list, create, del, setDID)
	return users
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}

func promptPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
