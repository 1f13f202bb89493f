// Command shopctl runs out-of-band maintenance: schema migrations, admin
// seeding and role changes. Roles are never changed over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/geocoder89/shopapi/internal/app"
	"github.com/geocoder89/shopapi/internal/config"
	"github.com/geocoder89/shopapi/internal/db"
	"github.com/geocoder89/shopapi/internal/domain/user"
	"github.com/geocoder89/shopapi/internal/observability"
	"github.com/geocoder89/shopapi/internal/security"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Maintenance commands for the shop API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newMigrateCmd(), newSeedAdminCmd(), newSetRoleCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := db.MigrateUp(cfg.DBURL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return errors.New("--steps must be at least 1")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := db.MigrateDown(cfg.DBURL, steps); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rolled back "+strconv.Itoa(steps)+" migration(s)")
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}

func newSeedAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the admin described by ADMIN_* settings if the email is unused",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, stores, err := openStores(cmd.Context())
			if err != nil {
				return err
			}
			defer stores.Close()

			if !cfg.HasAdminSeed() {
				return errors.New("ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_SECURITY_ANSWER must be set")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			changed, err := db.EnsureAdminUser(ctx, stores.Users, security.NewBcryptHasher(0), cfg)
			if err != nil {
				return err
			}

			if changed {
				fmt.Fprintln(cmd.OutOrStdout(), "admin ready: "+cfg.AdminEmail)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "account already exists, left unchanged (use set-role to promote): "+cfg.AdminEmail)
			}
			return nil
		},
	}
}

func newSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <email> <customer|admin>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := user.Role(args[1])
			if !role.IsValid() {
				return fmt.Errorf("unknown role %q", args[1])
			}

			_, stores, err := openStores(cmd.Context())
			if err != nil {
				return err
			}
			defer stores.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			u, err := stores.Users.SetRole(ctx, args[0], role)
			if err != nil {
				if errors.Is(err, user.ErrNotFound) {
					return fmt.Errorf("no user with email %s", args[0])
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Role)
			return nil
		},
	}
}

func openStores(ctx context.Context) (config.Config, *app.Stores, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	if cfg.StoreDriver != "postgres" {
		return config.Config{}, nil, errors.New("shopctl needs STORE_DRIVER=postgres")
	}

	log := observability.NewLogger(cfg.Env)
	stores, err := app.OpenStores(ctx, cfg, nil, false, log)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, stores, nil
}
