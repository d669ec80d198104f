package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nnnkkk7/sqlexec/pkg/config"
	"github.com/nnnkkk7/sqlexec/pkg/connection"
	"github.com/nnnkkk7/sqlexec/pkg/exec"
	"github.com/nnnkkk7/sqlexec/pkg/logging"
)

type (
	// app holds the state shared by every subcommand.
	app struct {
		flags    rootFlags
		cfg      *config.Config
		db       *sql.DB
		manager  *connection.Manager
		executor *exec.Executor
		logger   *logging.Logger
	}

	rootFlags struct {
		cfgFile      string
		driver       string
		dsn          string
		dialect      string
		debug        bool
		strictParams bool
	}
)

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "sqlexec",
		Short: "Run SQL and materialize the results",
		Long: `sqlexec runs SQL statements against any registered database/sql driver and
materializes the results as tables, scalars or row counts. The serve command exposes
the same pipeline over HTTP.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.open,
		PersistentPostRunE: a.close,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.cfgFile, "config", "", "config file (default is ./.sqlexec.yaml or $HOME/.sqlexec.yaml)")
	pf.StringVar(&a.flags.driver, "driver", "", "database/sql driver name (duckdb, sqlite3, postgres, mysql, snowflake)")
	pf.StringVar(&a.flags.dsn, "dsn", "", "data source name passed to the driver")
	pf.StringVar(&a.flags.dialect, "dialect", "", "SQL dialect, defaults to the driver's")
	pf.BoolVar(&a.flags.debug, "debug", false, "log every command and its parameters")
	pf.BoolVar(&a.flags.strictParams, "strict-params", false, "reject parameters already bound to another command")

	rootCmd.AddCommand(a.queryCmd())
	rootCmd.AddCommand(a.execCmd())
	rootCmd.AddCommand(a.scalarCmd())
	rootCmd.AddCommand(a.serveCmd())

	return rootCmd
}

// open loads the configuration, applies flag overrides and opens the database.
func (a *app) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.flags.cfgFile)
	if err != nil {
		return err
	}
	a.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	provider, err := cfg.Provider()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.NewText(os.Stderr, cfg.Debug)
	if cfg.File != "" {
		a.logger.Slog().Debug("using config file", "path", cfg.File)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	a.db = db

	opts := []connection.Option{connection.WithDialect(provider)}
	if cfg.StrictParameters {
		opts = append(opts, connection.WithExclusiveParameters())
	}
	a.manager = connection.NewManager(db, opts...)
	a.executor = exec.New(exec.WithLogger(a.logger))
	return nil
}

func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Driver = a.flags.driver
	}
	if flags.Changed("dsn") {
		cfg.DSN = a.flags.dsn
	}
	if flags.Changed("dialect") {
		cfg.Dialect = a.flags.dialect
	}
	if flags.Changed("debug") {
		cfg.Debug = a.flags.debug
	}
	if flags.Changed("strict-params") {
		cfg.StrictParameters = a.flags.strictParams
	}
}

func (a *app) close(_ *cobra.Command, _ []string) error {
	if a.db == nil {
		return nil
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
