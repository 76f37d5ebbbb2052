package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kassabok/kassabok/internal/accounts"
	"github.com/kassabok/kassabok/internal/agentlog"
	"github.com/kassabok/kassabok/internal/config"
	"github.com/kassabok/kassabok/internal/importer"
	"github.com/kassabok/kassabok/internal/logging"
	"github.com/kassabok/kassabok/internal/model"
	"github.com/kassabok/kassabok/internal/review"
	"github.com/kassabok/kassabok/internal/store/postgres"
	"github.com/kassabok/kassabok/internal/verification"
)

// company is an opened company directory with its configured backends.
type company struct {
	dir    string
	cfg    *config.Config
	log    *zap.Logger
	chart  *accounts.Service
	ledger verification.Ledger
	review review.Sources
	bank   *importer.Store
	audit  agentlog.Sink

	fiscalMonth time.Month
	fiscalDay   int

	closers []func() error
}

func openCompany(ctx context.Context, opts *globalOptions) (*company, error) {
	dir, err := filepath.Abs(opts.dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	log, err := logging.New(level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	month, day, _ := cfg.FiscalStart() // checked by config.Load

	c := &company{
		dir:         dir,
		cfg:         cfg,
		log:         log,
		bank:        importer.NewStore(dir),
		fiscalMonth: month,
		fiscalDay:   day,
		closers:     []func() error{func() error { _ = log.Sync(); return nil }},
	}
	ctx = logging.WithLogger(ctx, log)

	if c.chart, err = accounts.Load(dir); err != nil {
		return nil, fmt.Errorf("loading chart of accounts: %w", err)
	}

	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := postgres.Open(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, db.Close)
		store := postgres.New(db, cfg.Company.ID, cfg.Ledger.Series, c.chart)
		c.ledger, c.review = store, store
	default:
		ledger := verification.NewService(dir, cfg.Ledger.Series, c.chart)
		c.ledger = ledger
		c.review = review.LedgerSources{Ledger: ledger, Bank: c.bank}
	}

	switch cfg.Audit.Sink {
	case config.AuditMongo:
		client, err := agentlog.Connect(ctx, cfg.Audit.URI)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.closers = append(c.closers, func() error { return client.Disconnect(context.Background()) })
		c.audit = agentlog.NewMongoSink(agentlog.NewMongoProvider(client))
	default:
		c.audit = agentlog.NewCSVSink(dir)
	}

	return c, nil
}

// context returns ctx carrying the company logger.
func (c *company) context(ctx context.Context) context.Context {
	return logging.WithLogger(ctx, c.log)
}

// fiscalYear returns the fiscal year starting in year.
func (c *company) fiscalYear(year int) model.Period {
	start := time.Date(year, c.fiscalMonth, c.fiscalDay, 0, 0, 0, 0, time.UTC)
	return model.Period{Start: start, End: start.AddDate(1, 0, -1)}
}

func (c *company) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}
