// Package cli is the storefront command line: the API server, database
// chores, the payment reconciler and a terminal cart that talks to a
// running server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/junaidrashid-git/storefront/config"
	"github.com/junaidrashid-git/storefront/store"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// RootOptions holds global flags and the configuration they resolve to.
type RootOptions struct {
	ConfigPath  string
	DatabaseURL string
	Format      string // "json" | "text"

	Config config.Config
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront API, cart client and payment reconciler",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file (default $STOREFRONT_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "database-url", "", "postgres DSN or sqlite://path, overrides config")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewProductsCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewCartCommand(opts))

	return cmd
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *RootOptions) loadConfig() error {
	path := o.ConfigPath
	if path == "" {
		path = os.Getenv("STOREFRONT_CONFIG")
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}
	if o.DatabaseURL != "" {
		cfg.DatabaseURL = o.DatabaseURL
	}
	o.Config = cfg
	return nil
}

// openDB opens sqlite for sqlite:// URLs and postgres otherwise.
func (o *RootOptions) openDB() (*gorm.DB, error) {
	if path, ok := strings.CutPrefix(o.Config.DatabaseURL, "sqlite://"); ok {
		return store.OpenSQLite(path)
	}
	return store.OpenPostgres(o.Config.DSN())
}

func (o *RootOptions) openStore() (*store.Store, error) {
	db, err := o.openDB()
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db); err != nil {
		return nil, err
	}
	return store.New(db), nil
}

func (o *RootOptions) printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
