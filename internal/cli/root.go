// Package cli implements rackctl, the operator tool for maintenance tasks
// that have no place in the web interface.
package cli

import (
	"fmt"
	"io"
	"os"

	"pipe-rack-manager/internal/config"
	"pipe-rack-manager/internal/database"
	"pipe-rack-manager/internal/docstore"
	"pipe-rack-manager/internal/eventbus"
	"pipe-rack-manager/internal/logging"
	"pipe-rack-manager/internal/server"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// ActorID is recorded as the author of changes made from the command line.
const ActorID = "rackctl"

type app struct {
	jsonOut bool

	cfg    *config.Config
	logger *logging.Logger
	db     *gorm.DB
	bus    eventbus.Bus
	store  *docstore.Store
}

// NewRootCommand builds the command tree. Output goes to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "rackctl",
		Short: "Pipe Rack Manager maintenance tool",
		Long: `rackctl works directly against the Pipe Rack Manager database.

  rackctl create-admin --email ops@site --password secret
  rackctl orphans               List pipe racks whose unit is gone
  rackctl orphans --purge       Delete them
  rackctl history --entity pipe_rack --id 550/PR01`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.SetOut(out)
	root.SetErr(out)
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Output as JSON")

	root.AddCommand(
		newCreateAdminCommand(a),
		newOrphansCommand(a),
		newHistoryCommand(a),
	)
	return root
}

func (a *app) open() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg
	a.logger = logging.New(logging.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Component: "rackctl",
		Output:    os.Stderr,
	})

	a.db, err = database.Open(cfg, a.logger.Named("database"))
	if err != nil {
		return err
	}
	// Racks removed here must disappear from open dashboards too.
	a.bus, err = server.NewBus(cfg, a.logger)
	if err != nil {
		_ = database.Close(a.db)
		return err
	}
	a.store = docstore.New(a.db, a.bus, a.logger.Named("docstore"))
	return nil
}

func (a *app) close() error {
	if a.bus != nil {
		_ = a.bus.Close()
	}
	if a.db != nil {
		return database.Close(a.db)
	}
	return nil
}

// Execute runs rackctl with os.Args.
func Execute() error {
	cmd := NewRootCommand(os.Stdout)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
