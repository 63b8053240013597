package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/guscambraia/aih-v3.5/internal/config"
	"github.com/guscambraia/aih-v3.5/internal/database"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the aih command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "aih",
		Short: "AIH audit tracker",
		Long: `Tracks hospital billing authorizations (AIH) through SUS and hospital audit:
custody movements, pendencies (glosas), dashboards, reports and exports.

Without a subcommand the HTTP API is started.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config.yaml (default ./config.yaml when present)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewMaintenanceCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))

	return cmd
}

// env is what every command needs once configuration is resolved.
type env struct {
	cfg    *config.Config
	logger *logrus.Logger
	db     *gorm.DB
}

// open reads the configuration, builds the logger and opens the migrated database.
func open(cfg *config.Config) (*env, error) {
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}

func (e *env) Close() error {
	return database.Close(e.db)
}

func (o *RootOptions) openEnv() (*env, error) {
	cfg, err := config.Read(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	return open(cfg)
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func ensureParent(path string) error {
	if path == "" {
		return nil
	}
	return ensureDir(filepath.Dir(path))
}
