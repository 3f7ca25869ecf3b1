package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/medtracker/config"
	"github.com/oksasatya/medtracker/internal/application"
	repo "github.com/oksasatya/medtracker/internal/domain/repository"
	pginfra "github.com/oksasatya/medtracker/internal/infrastructure/postgres"
	"github.com/oksasatya/medtracker/pkg/helpers"
)

// session is what the account commands need: a user service and a way to
// release what backs it.
type session struct {
	Users *application.UserService
	Repo  repo.UserRepository
	Close func()
}

type openFunc func(ctx context.Context) (*session, error)

// openPostgres connects to the configured database. Redis is optional and
// only used to revoke sessions on password reset.
func openPostgres(cfg *config.Config, logger *logrus.Logger) openFunc {
	return func(ctx context.Context) (*session, error) {
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{MaxConns: 2, MaxConnLifetime: time.Minute})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		users := pginfra.NewUserRepository(pool)
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable; existing sessions will not be revoked")
			_ = rdb.Close()
			rdb = nil
		}
		svc := application.NewUserService(users, helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL), rdb, logger, nil, "", nil, cfg)
		return &session{Users: svc, Repo: users, Close: func() {
			if rdb != nil {
				_ = rdb.Close()
			}
			pool.Close()
		}}, nil
	}
}

func newRootCmd(open openFunc, migrateFn func() error) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Manage administrator accounts and the database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(createCmd(open), verifyCmd(open), resetPasswordCmd(open), migrateCmd(migrateFn))
	return root
}

func passwordFlag(cmd *cobra.Command) string {
	p, _ := cmd.Flags().GetString("password")
	if p == "" {
		p = os.Getenv("ADMIN_PASSWORD")
	}
	return p
}

func createCmd(open openFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin, or promote an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			first, _ := cmd.Flags().GetString("first-name")
			last, _ := cmd.Flags().GetString("last-name")

			s, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			u, err := s.Users.CreateAdmin(cmd.Context(), application.RegisterInput{
				FirstName: first,
				LastName:  last,
				Email:     email,
				Password:  passwordFlag(cmd),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin ready: id=%s email=%s\n", u.ID, u.Email)
			return nil
		},
	}
	cmd.Flags().String("email", "", "admin email (required)")
	cmd.Flags().String("password", "", "admin password; defaults to $ADMIN_PASSWORD")
	cmd.Flags().String("first-name", "Admin", "first name")
	cmd.Flags().String("last-name", "User", "last name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func verifyCmd(open openFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that an account exists, is active and holds the admin flag",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")

			s, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			u, err := s.Repo.GetByEmail(cmd.Context(), strings.ToLower(strings.TrimSpace(email)))
			if errors.Is(err, repo.ErrNotFound) {
				return fmt.Errorf("no account for %s", email)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id=%s email=%s admin=%t active=%t\n", u.ID, u.Email, u.IsAdmin, u.IsActive)

			if p := passwordFlag(cmd); p != "" {
				if _, err := s.Users.Authenticate(cmd.Context(), email, p); err != nil {
					return err
				}
				fmt.Fprintln(out, "password ok")
			}
			if !u.IsAdmin || !u.IsActive {
				return errors.New("account cannot use the admin console")
			}
			return nil
		},
	}
	cmd.Flags().String("email", "", "account email (required)")
	cmd.Flags().String("password", "", "also check this password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func resetPasswordCmd(open openFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password and revoke the live session",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")

			s, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			u, err := s.Repo.GetByEmail(cmd.Context(), strings.ToLower(strings.TrimSpace(email)))
			if err != nil {
				return fmt.Errorf("lookup %s: %w", email, err)
			}
			if err := s.Users.ResetPassword(cmd.Context(), u.ID, passwordFlag(cmd)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password reset for %s\n", u.Email)
			return nil
		},
	}
	cmd.Flags().String("email", "", "account email (required)")
	cmd.Flags().String("password", "", "new password; defaults to $ADMIN_PASSWORD")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func migrateCmd(migrateFn func() error) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrateFn()
		},
	}
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-admin", cfg.Env, cfg.LogLevel)

	root := newRootCmd(openPostgres(cfg, logger), func() error {
		return pginfra.Migrate(cfg.PostgresDSN(), cfg.MigrationsDir, logger)
	})
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
