package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"partsledger/internal/app"
	"partsledger/internal/config"
	appctx "partsledger/internal/core/context"
	"partsledger/internal/core/id"
	"partsledger/internal/domain/auth"
	"partsledger/internal/infrastructure/http/v1/dto"
	"partsledger/internal/infrastructure/storage/postgres"
	"partsledger/pkg/logger"
)

// Version is the ledgerctl version.
const Version = "0.1.0"

type cli struct {
	out        io.Writer
	configPath string
	logLevel   string
}

func rootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	cmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the parts ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", os.Getenv(config.EnvConfigPath), "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		c.migrateCmd(),
		c.reconcileCmd(),
		c.asOfCmd(),
		c.stockCardCmd(),
		c.tokenCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(c.out, "ledgerctl version %s\n", Version)
			},
		},
	)
	return cmd
}

func (c *cli) load() (*config.Config, context.Context, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(logger.Config{Level: c.logLevel, Development: true, OutputPaths: []string{"stderr"}})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	ctx := logger.WithLogger(context.Background(), log)
	ctx = appctx.WithTrace(ctx, appctx.NewTraceContext())
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "ledgerctl", Roles: []string{appctx.RoleAdmin}})
	return cfg, ctx, nil
}

// withLedger opens the configured storage for one command.
func (c *cli) withLedger(fn func(ctx context.Context, l *app.Ledger) error) error {
	cfg, ctx, err := c.load()
	if err != nil {
		return err
	}
	rt, err := app.Open(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt.Ledger)
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) migrateCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				migrations, err := postgres.Migrations()
				if err != nil {
					return err
				}
				for _, m := range migrations {
					fmt.Fprintln(c.out, m.Version)
				}
				return nil
			}

			cfg, ctx, err := c.load()
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate requires the postgres driver, got %q", cfg.Storage.Driver)
			}
			pool, err := app.OpenPool(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := postgres.Migrate(ctx, pool)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(c.out, "schema is up to date")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(c.out, "applied %s\n", v)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List embedded migrations without connecting")
	return cmd
}

func (c *cli) reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile PRODUCT_ID...",
		Short: "Compare the movement replay with batch state",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return c.withLedger(func(ctx context.Context, l *app.Ledger) error {
				unbalanced := 0
				for _, productID := range ids {
					r, err := l.Valuation.Reconcile(ctx, productID)
					if err != nil {
						return err
					}
					if !r.Balanced {
						unbalanced++
					}
					if err := c.print(r); err != nil {
						return err
					}
				}
				if unbalanced > 0 {
					return fmt.Errorf("%d of %d products out of balance", unbalanced, len(ids))
				}
				return nil
			})
		},
	}
}

func (c *cli) asOfCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "as-of PRODUCT_ID",
		Short: "Quantity and value on hand at the end of a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := dto.ParseID("product", args[0])
			if err != nil {
				return err
			}
			day, err := dto.ParseDate("date", date, time.Now().UTC())
			if err != nil {
				return err
			}
			return c.withLedger(func(ctx context.Context, l *app.Ledger) error {
				v, err := l.Valuation.AsOfValue(ctx, productID, day)
				if err != nil {
					return err
				}
				return c.print(dto.FromAsOf(v))
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day as YYYY-MM-DD (default today)")
	return cmd
}

func (c *cli) stockCardCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "stock-card PRODUCT_ID",
		Short: "Movements with running balance over a date range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := dto.ParseID("product", args[0])
			if err != nil {
				return err
			}
			today := time.Now().UTC()
			fromDay, err := dto.ParseDate("from", from, today.AddDate(0, 0, 1-today.Day()))
			if err != nil {
				return err
			}
			toDay, err := dto.ParseDate("to", to, today)
			if err != nil {
				return err
			}
			return c.withLedger(func(ctx context.Context, l *app.Ledger) error {
				card, err := l.Valuation.StockCard(ctx, productID, fromDay, toDay)
				if err != nil {
					return err
				}
				return c.print(card)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First day as YYYY-MM-DD (default start of month)")
	cmd.Flags().StringVar(&to, "to", "", "Last day as YYYY-MM-DD (default today)")
	return cmd
}

func (c *cli) tokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		roles  []string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for development and smoke tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.IsProduction() {
				return fmt.Errorf("token minting is disabled in production")
			}

			jwtCfg := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
			jwtCfg.Issuer = cfg.Auth.Issuer
			if ttl > 0 {
				jwtCfg.AccessTokenTTL = ttl
			}
			token, expiresAt, err := auth.NewJWTService(jwtCfg).GenerateAccessToken(userID, email, roles)
			if err != nil {
				return err
			}
			return c.print(map[string]any{
				"token":     token,
				"expiresAt": expiresAt.UTC(),
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringSliceVar(&roles, "role", []string{appctx.RoleStorekeeper}, "Role claim, repeatable")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func parseIDs(args []string) ([]id.ID, error) {
	ids := make([]id.ID, 0, len(args))
	for _, a := range args {
		parsed, err := dto.ParseID("product", a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, parsed)
	}
	return ids, nil
}
