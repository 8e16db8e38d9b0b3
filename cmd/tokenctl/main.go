// Command tokenctl is the operator tool for the token broker database.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fr0stylo/tokengate/internal/adapters/memory"
	"github.com/fr0stylo/tokengate/internal/adapters/sqlite"
	"github.com/fr0stylo/tokengate/internal/app/domain"
	appservices "github.com/fr0stylo/tokengate/internal/app/services"
	"github.com/fr0stylo/tokengate/internal/config"
	"github.com/fr0stylo/tokengate/internal/db"
	"github.com/fr0stylo/tokengate/internal/secrets"
)

// toolEnv holds the services a subcommand runs against.
type toolEnv struct {
	database  *db.Database
	store     *sqlite.Store
	tokens    *appservices.TokenService
	policy    *appservices.PolicyService
	operators *appservices.OperatorService
}

func (e *toolEnv) close() {
	if e != nil && e.database != nil {
		_ = e.database.Close()
	}
}

func openToolEnv(dbPath string, verbose bool) (*toolEnv, error) {
	cfg, err := config.LoadForTool()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(dbPath) == "" {
		dbPath = cfg.Database.Path
	}
	var logOut io.Writer = io.Discard
	if verbose {
		logOut = os.Stderr
	}
	log := slog.New(slog.NewTextHandler(logOut, nil))

	database, err := db.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	cipher, err := secrets.NewCipher(cfg.Auth.TokenKey)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("token cipher: %w", err)
	}
	store := sqlite.NewStore(database)
	return &toolEnv{
		database:  database,
		store:     store,
		tokens:    appservices.NewTokenService(store, cipher, appservices.NewTokenCache(memory.NewStore(), cipher, log), nil, log),
		policy:    appservices.NewPolicyService(store, log),
		operators: appservices.NewOperatorService(store),
	}, nil
}

func newRootCmd() *cobra.Command {
	var (
		dbPath  string
		verbose bool
		env     *toolEnv
	)
	root := &cobra.Command{
		Use:          "tokenctl",
		Short:        "Operate the token broker's persistent state",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			env, err = openToolEnv(dbPath, verbose)
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			env.close()
		},
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "database path without .sqlite suffix (defaults to TOKENGATE_DB_PATH)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log service activity to stderr")

	envFn := func() *toolEnv { return env }
	root.AddCommand(
		newPauseCmd(envFn, true),
		newPauseCmd(envFn, false),
		newAutopostCmd(envFn),
		newContentStatusCmd(envFn),
		newGrantCmd(envFn),
		newSeedDummyCmd(envFn),
		newTokenStatusCmd(envFn),
		newAuditCmd(envFn),
	)
	return root
}

func parsePlatform(value string) (domain.Platform, error) {
	platform, ok := domain.ParsePlatform(value)
	if !ok {
		return "", fmt.Errorf("%w: %q", appservices.ErrUnsupportedProvider, value)
	}
	return platform, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		if errors.Is(err, appservices.ErrInvalidRequest) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
