package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http/cookiejar"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/raysh454/phishcatcher/internal/allowlist"
	"github.com/raysh454/phishcatcher/internal/assessor"
	"github.com/raysh454/phishcatcher/internal/logging"
	"github.com/raysh454/phishcatcher/internal/metrics"
	"github.com/raysh454/phishcatcher/internal/model"
	"github.com/raysh454/phishcatcher/internal/segment"
)

// Application is the global runtime state container. It holds config and
// the core services shared across the CLI and the API server. Everything
// in it is loaded once by NewApplication and read-only afterwards.
type Application struct {
	Config *Config

	Logger   logging.Logger
	Metrics  *metrics.Recorder
	Trusted  *allowlist.Set
	Assessor *assessor.Assessor
	Orch     *Orchestrator

	closers []io.Closer
}

// NewApplication loads the suffix list, trusted domains, classifier and
// label encoder named by cfg and wires the assessor. It fails when the
// artifacts disagree with the feature layout.
func NewApplication(ctx context.Context, cfg *Config, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	a := &Application{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	seg, err := loadSegmenter(cfg.Suffix)
	if err != nil {
		return nil, err
	}

	trusted, err := a.loadTrusted(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Trusted = trusted

	clf, labels, err := loadModel(cfg.Model)
	if err != nil {
		a.Close()
		return nil, err
	}

	as, err := assessor.New(&cfg.Assessor, assessor.Options{
		Segmenter:  seg,
		Trusted:    trusted,
		Classifier: clf,
		Labels:     labels,
		Metrics:    a.Metrics,
	}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := as.Check(); err != nil {
		a.Close()
		return nil, err
	}
	a.Assessor = as
	a.Orch = NewOrchestrator(cfg, as, a.Metrics, logger)

	logger.Info("application ready",
		logging.Field{Key: "trusted_domains", Value: trusted.Len()},
		logging.Field{Key: "suffix_list", Value: seg.SuffixList()},
		logging.Field{Key: "model", Value: cfg.Model.Path},
	)
	return a, nil
}

func loadSegmenter(cfg SuffixConfig) (*segment.Segmenter, error) {
	if cfg.Path == "" {
		return segment.New(nil), nil
	}
	list, err := segment.LoadSuffixList(cfg.Path, cfg.ICANNOnly)
	if err != nil {
		return nil, err
	}
	var psl cookiejar.PublicSuffixList = list
	return segment.New(psl), nil
}

func loadModel(cfg ModelConfig) (model.Classifier, *model.LabelEncoder, error) {
	if cfg.Path == "" || cfg.LabelsPath == "" {
		return nil, nil, errors.New("model.path and model.labels_path must be configured")
	}
	clf, err := model.Load(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	labels, err := model.LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, nil, err
	}
	return clf, labels, nil
}

// loadTrusted builds the union of every configured trusted-domain source.
func (a *Application) loadTrusted(ctx context.Context) (*allowlist.Set, error) {
	cfg := a.Config.Trusted
	set := allowlist.New()
	if cfg.Defaults {
		set = set.Union(allowlist.Default())
	}
	if cfg.File != "" {
		fromFile, err := allowlist.LoadFile(cfg.File)
		if err != nil {
			return nil, err
		}
		set = set.Union(fromFile)
	}
	if cfg.Database != "" {
		store, err := a.OpenStore()
		if err != nil {
			return nil, err
		}
		fromDB, err := store.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		set = set.Union(fromDB)
	}
	return set, nil
}

// OpenStore opens the trusted-domain database named in the config. The
// connection is closed with the Application.
func (a *Application) OpenStore() (*allowlist.Store, error) {
	return OpenStore(a.Config.Trusted.Database, a.Logger, a.track)
}

// OpenStore opens the SQLite trusted-domain store at path and hands the
// *sql.DB to onOpen so the caller can close it.
func OpenStore(path string, logger logging.Logger, onOpen func(io.Closer)) (*allowlist.Store, error) {
	if path == "" {
		return nil, errors.New("trusted.database is not configured")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening trusted-domain database: %w", err)
	}
	if onOpen != nil {
		onOpen(db)
	}
	return allowlist.NewStore(db, logger)
}

func (a *Application) track(c io.Closer) {
	a.closers = append(a.closers, c)
}

// Shutdown cancels running jobs and releases resources. ctx bounds how long
// it waits for jobs to stop.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if a.Orch != nil {
		if err := a.Orch.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("orchestrator shutdown returned error", logging.Field{Key: "error", Value: err})
		}
	}
	if a.Assessor != nil {
		_ = a.Assessor.Close()
	}
	return a.Close()
}

// Close releases databases opened by the Application.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
