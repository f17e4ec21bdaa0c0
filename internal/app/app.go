// Package app wires loading, ranking, aggregation and output into one run.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/helheim/content_ranker/internal/aggregate"
	"github.com/helheim/content_ranker/internal/config"
	"github.com/helheim/content_ranker/internal/domain"
	"github.com/helheim/content_ranker/internal/extract"
	"github.com/helheim/content_ranker/internal/history"
	"github.com/helheim/content_ranker/internal/output"
	"github.com/helheim/content_ranker/internal/rank"
	"github.com/helheim/content_ranker/internal/records"
	"github.com/helheim/content_ranker/internal/weights"
)

type Options struct {
	// Root overrides app root discovery.
	Root string
	// Kinds to rank; empty means items and mobs.
	Kinds   []domain.Kind
	Verbose bool

	Stdout io.Writer
	Now    func() time.Time
}

func (o Options) kinds() []domain.Kind {
	if len(o.Kinds) == 0 {
		return []domain.Kind{domain.KindItem, domain.KindMob}
	}
	return o.Kinds
}

// Result describes the artifacts of one entity kind.
type Result struct {
	Kind         domain.Kind
	RunID        string
	ReportPath   string
	WorkbookPath string
	Kept         []domain.Entity
	Excluded     []string
	Discovered   []string
	Summaries    []domain.VariantSummary
}

// Run ranks items and mobs and returns the desired process exit code.
func Run() int {
	return RunWithOptions(Options{})
}

// RunWithOptions executes the ranking flow and returns the desired process exit code.
func RunWithOptions(opts Options) int {
	appRoot := strings.TrimSpace(opts.Root)
	if appRoot == "" {
		var err error
		appRoot, err = FindRoot()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	if _, err := Execute(context.Background(), appRoot, opts); err != nil {
		if ee, ok := AsExitError(err); ok {
			if ee.Err != nil && ee.Code != 0 {
				fmt.Fprintln(os.Stderr, ee.Err)
			}
			return ee.Code
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

type runner struct {
	cfg    config.Config
	logger *slog.Logger
	store  *history.Store
	stdout io.Writer
	now    func() time.Time
}

// Execute loads the config under appRoot and ranks every requested kind in order.
// A config error is returned as ExitError with code 2.
func Execute(ctx context.Context, appRoot string, opts Options) ([]Result, error) {
	cfg, err := config.Load(appRoot)
	if err != nil {
		return nil, ExitWithError(2, err)
	}
	level := cfg.LogLevel
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger, closeLog := config.SetupLogger(cfg.LogFile, level)
	defer func() { _ = closeLog() }()

	r := &runner{
		cfg:    cfg,
		logger: logger,
		stdout: opts.Stdout,
		now:    opts.Now,
	}
	if r.stdout == nil {
		r.stdout = os.Stdout
	}
	if r.now == nil {
		r.now = time.Now
	}

	if cfg.History {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			logger.Error("history disabled for this run", "path", cfg.HistoryPath, "error", err)
		} else {
			r.store = store
			defer store.Close()
		}
	}

	results := make([]Result, 0, 2)
	for _, kind := range opts.kinds() {
		res, err := r.rankKind(ctx, kind)
		if err != nil {
			logger.Error("run failed", "kind", kind, "error", err)
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *runner) source(kind domain.Kind) config.Source {
	if kind == domain.KindMob {
		return r.cfg.Mobs
	}
	return r.cfg.Items
}

func (r *runner) rankKind(ctx context.Context, kind domain.Kind) (Result, error) {
	started := r.now()
	src := r.source(kind)
	log := r.logger.With("kind", kind)
	res := Result{Kind: kind, RunID: uuid.NewString()}

	blacklist, err := rank.LoadBlacklist(src.BlacklistFile)
	if err != nil {
		return res, err
	}
	table, err := weights.Load(src.WeightsFile)
	if err != nil {
		return res, err
	}
	log.Debug("inputs loaded", "weights", table.Len(), "blacklist", blacklist.Len())

	loader := &records.Loader{
		Extractor: extract.NewExtractor(r.cfg.LevelLabel),
		Exclude:   blacklist,
		Logger:    log,
	}
	var (
		entities []domain.Entity
		stats    records.Stats
	)
	if kind == domain.KindMob {
		entities, stats, err = loader.Mobs(src.InputDir, src.EquipmentDir)
	} else {
		entities, stats, err = loader.Items(src.InputDir)
	}
	if err != nil {
		return res, err
	}
	log.Info("records loaded", "stats", stats.String(), "entities", len(entities))

	ranker := rank.New(table, log)
	res.Kept, res.Excluded = ranker.Rank(entities)
	res.Discovered = table.Discovered()

	res.Summaries = aggregate.Report(res.Kept, src.Threshold, aggregate.LevelRange{Min: src.MinLevel, Max: src.MaxLevel})
	for _, s := range res.Summaries {
		for _, lvl := range s.Skipped {
			log.Warn("trend point skipped: previous level mean is zero", "variant", s.Variant, "level", lvl)
		}
	}

	name := output.ReportName(kind, started)
	res.ReportPath = output.ReportPath(r.cfg.OutDir, name, r.cfg.CompressReport)
	if err := output.WriteReport(res.ReportPath, res.Kept); err != nil {
		return res, fmt.Errorf("write report: %w", err)
	}
	if err := table.Save(src.WeightsFile); err != nil {
		return res, fmt.Errorf("save weights: %w", err)
	}
	if len(res.Discovered) > 0 {
		log.Info("weight table extended", "file", src.WeightsFile, "added", len(res.Discovered))
	}

	if r.cfg.Workbook {
		path := output.WorkbookPath(r.cfg.OutDir, name)
		if err := output.WriteWorkbook(path, kind, res.Kept, res.Summaries); err != nil {
			log.Error("workbook export failed", "path", path, "error", err)
		} else {
			res.WorkbookPath = path
		}
	}

	var prev output.PreviousMeans
	if r.store != nil {
		means, err := r.store.PreviousMeans(ctx, kind)
		if err != nil {
			log.Error("read history failed", "error", err)
		} else {
			prev = means
		}
		run := history.Run{
			ID:         res.RunID,
			Kind:       kind,
			StartedAt:  started,
			Kept:       len(res.Kept),
			Excluded:   len(res.Excluded),
			Discovered: len(res.Discovered),
			ReportPath: res.ReportPath,
		}
		if err := r.store.RecordRun(ctx, run, res.Summaries); err != nil {
			log.Error("record history failed", "run", res.RunID, "error", err)
		}
	}

	output.PrintSummary(r.stdout, output.Summary{
		Kind:       kind,
		Loaded:     len(entities),
		Kept:       len(res.Kept),
		Excluded:   len(res.Excluded),
		Discovered: res.Discovered,
		Variants:   res.Summaries,
		Previous:   prev,
	})
	fmt.Fprintln(r.stdout, "Exported results to", res.ReportPath)
	if res.WorkbookPath != "" {
		fmt.Fprintln(r.stdout, "Exported workbook to", res.WorkbookPath)
	}
	return res, nil
}
