// Package commands implements bigstonectl, the operator CLI for a Bigstone Community database.
package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/localnerve/bigstone-community/internal/config"
	"github.com/localnerve/bigstone-community/internal/database"
	"github.com/localnerve/bigstone-community/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "bigstonectl",
	Short: "Operate a Bigstone Community deployment",
	Long: `bigstonectl runs maintenance tasks against the database and session store
configured for the Bigstone Community server: migrations, standards resolution,
listings and a live view of sign-in activity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			return nil
		}
		if err := godotenv.Load(envFile); err != nil {
			return fail("Could not load environment file", err.Error(), "Check the path given to --env-file")
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

func init() {
	// color output follows NO_COLOR
	if os.Getenv("NO_COLOR") != "" {
		noColor()
	}
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "f", "", "load environment variables from this .env file")
	rootCmd.AddCommand(migrateCmd, resolveCmd, standardsCmd, portsCmd, sessionsCmd)
}

// env is what every command needs from the server configuration
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func (e *env) close() {
	if e.db != nil {
		_ = database.Close(e.db)
	}
	_ = e.log.Sync()
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fail("Invalid configuration", err.Error(), "Set the same environment the server uses, or pass --env-file")
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, fail("Invalid LOG_LEVEL", err.Error())
	}
	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, fail("Database unreachable", err.Error(), fmt.Sprintf("Check DB_TYPE=%s and DB_HOST=%s", cfg.DBType, cfg.DBHost))
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}
