package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/wrenchworks/docdesk/internal/config"
	"github.com/wrenchworks/docdesk/internal/database"
	"github.com/wrenchworks/docdesk/internal/domain/numbering"
	"github.com/wrenchworks/docdesk/internal/logger"
	"github.com/wrenchworks/docdesk/internal/repository"
	"gopkg.in/yaml.v3"
)

type numberingStatus struct {
	Driver             string    `yaml:"driver"`
	InvoicePrefix      string    `yaml:"invoice_prefix"`
	InvoicePadLength   int       `yaml:"invoice_pad_length"`
	InvoiceLastNumber  int64     `yaml:"invoice_last_number"`
	NextInvoiceNo      string    `yaml:"next_invoice_no"`
	ProtocolPadLength  int       `yaml:"protocol_pad_length"`
	ProtocolLastNumber int64     `yaml:"protocol_last_number"`
	NextProtocolNo     string    `yaml:"next_protocol_no"`
	UpdatedAt          time.Time `yaml:"updated_at"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dryRun bool

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Create the docdesk tables and seed the numbering row",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}

			if dryRun {
				log.Info("Dry run mode - printing migration SQL without executing")
				for _, stmt := range database.Schema(cfg.Database.Driver) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s;\n\n", strings.TrimSpace(stmt))
				}
				return nil
			}

			db, err := openDB(cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			log.Infow("running database migrations", "driver", cfg.Database.Driver)
			if err := database.Migrate(ctx, db, cfg.Numbering); err != nil {
				log.Errorw("migration failed", "error", err)
				return err
			}
			log.Info("Migration completed successfully")
			return nil
		},
	}
	root.Flags().BoolVar(&dryRun, "dry-run", false, "Print migration SQL without executing it")

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the numbering settings and the last issued numbers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}

			db, err := openDB(cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			status, err := readStatus(cmd.Context(), db, log)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(status)
		},
	})

	return root
}

func setup() (*config.Configuration, *logger.Logger, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

// openDB connects without the automatic migration so the commands decide
// what runs against the store
func openDB(cfg *config.Configuration, log *logger.Logger) (*database.DB, error) {
	dbCfg := *cfg
	dbCfg.Database.AutoMigrate = false
	return database.NewDB(&dbCfg, log)
}

func readStatus(ctx context.Context, db *database.DB, log *logger.Logger) (*numberingStatus, error) {
	counters := repository.NewCounterStore(db, log)

	cfg, err := counters.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	lastInvoice, err := counters.Peek(ctx, numbering.KindInvoice)
	if err != nil {
		return nil, err
	}
	lastProtocol, err := counters.Peek(ctx, numbering.KindProtocol)
	if err != nil {
		return nil, err
	}

	return &numberingStatus{
		Driver:             string(db.Driver()),
		InvoicePrefix:      cfg.InvoicePrefix,
		InvoicePadLength:   cfg.InvoicePadLength,
		InvoiceLastNumber:  lastInvoice,
		NextInvoiceNo:      cfg.Format(numbering.KindInvoice, lastInvoice+1),
		ProtocolPadLength:  cfg.ProtocolPadLength,
		ProtocolLastNumber: lastProtocol,
		NextProtocolNo:     cfg.Format(numbering.KindProtocol, lastProtocol+1),
		UpdatedAt:          cfg.UpdatedAt,
	}, nil
}
