// Package cli implements tripctl, the operator tool that works directly on a
// tripquest database file.
package cli

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dukerupert/tripquest/internal/catalog"
	"github.com/dukerupert/tripquest/internal/config"
	"github.com/dukerupert/tripquest/internal/database"
	"github.com/dukerupert/tripquest/internal/logging"
	"github.com/dukerupert/tripquest/internal/progress"
	"github.com/dukerupert/tripquest/internal/store"
	"github.com/dukerupert/tripquest/internal/trip"
)

var Version = "dev"

type rootOptions struct {
	dbPath   string
	catalog  string
	slot     string
	logLevel string
	cfg      *config.Config
}

// NewRootCmd builds the tripctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "tripctl",
		Version:       Version,
		Short:         "Inspect and maintain tripquest progress",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg
			if !cmd.Flags().Changed("db") {
				opts.dbPath = cfg.DBPath
			}
			if !cmd.Flags().Changed("catalog") {
				opts.catalog = cfg.Catalog
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.dbPath, "db", "tripquest.db", "path to the sqlite database (default from TRIPQUEST_DB_PATH)")
	pf.StringVar(&opts.catalog, "catalog", "", "trip catalog YAML (default: embedded)")
	pf.StringVar(&opts.slot, "slot", "checklist", "progress slot: checklist or packing")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		newExportCmd(opts),
		newImportCmd(opts),
		newClearCmd(opts),
		newStatsCmd(opts),
		newCatalogCmd(),
	)
	return root
}

// Execute runs tripctl with the process arguments.
func Execute(stderr io.Writer) error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "tripctl: %v\n", err)
		return err
	}
	return nil
}

// session is an open database with both progress slots loaded.
type session struct {
	db        *sql.DB
	catalog   *catalog.Catalog
	checklist *progress.Store
	packing   *progress.Store
	resolver  *trip.Resolver
	logger    *slog.Logger
}

func openSession(cmd *cobra.Command, opts *rootOptions) (*session, error) {
	logger := logging.New(cmd.ErrOrStderr(), opts.logLevel, "text")

	c, err := catalog.Load(opts.catalog)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(opts.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	checklist, packing := trip.OpenSlots(store.NewSlotStore(db), c, logger)
	return &session{
		db:        db,
		catalog:   c,
		checklist: checklist,
		packing:   packing,
		resolver:  trip.NewResolver(store.NewSettingsStore(db), c, trip.Settings{Departure: opts.cfg.Departure, Rates: opts.cfg.Rates}),
		logger:    logger,
	}, nil
}

func (s *session) Close() error {
	return s.db.Close()
}

// slot picks the progress store named by --slot.
func (s *session) slot(name string) (*progress.Store, error) {
	switch name {
	case "checklist", progress.ChecklistKey:
		return s.checklist, nil
	case "packing":
		return s.packing, nil
	default:
		return nil, fmt.Errorf("unknown slot %q (want checklist or packing)", name)
	}
}
