// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"Monetary_SVAR_Project/internal/acquire"
	"Monetary_SVAR_Project/internal/config"
	"Monetary_SVAR_Project/internal/figures"
	"Monetary_SVAR_Project/internal/fred"
	"Monetary_SVAR_Project/internal/logger"
	"Monetary_SVAR_Project/internal/metrics"
	"Monetary_SVAR_Project/internal/snapshot"
	"Monetary_SVAR_Project/internal/svar"
)

// Output file names inside the output directory.
const (
	FilePanel        = "panel.csv"
	FileIRF          = "irf.csv"
	FileFEVD         = "fevd.csv"
	FileHistDecomp   = "hd.csv"
	FileGranger      = "granger.csv"
	FileLagSelection = "lag_selection.csv"
	FileForecast     = "forecast.csv"
	FileSummary      = "summary.txt"
	FigureIRF        = "irf.png"
	FigureFEVD       = "fevd.png"
	FigureHistDecomp = "hd.png"
)

// Runner executes one batch run. Every field except Cfg may be swapped out
// in tests.
type Runner struct {
	Cfg      *config.Config
	Log      *logger.Logger
	Metrics  *metrics.Recorder
	Acquirer *acquire.Acquirer
	Backend  svar.Backend
	RunID    string
}

// Report collects everything a run produced.
type Report struct {
	RunID        string
	FromSnapshot bool
	Prepared     *Prepared
	LagSelection *svar.LagSelection
	Structural   *svar.StructuralVAR
	IRF          []*svar.IRFBootstrapResult
	FEVD         []*svar.FEVDBootstrapResult
	HD           *svar.HistDecomp
	Granger      [][]*svar.GrangerCausalityResult
	Forecast     *mat.Dense
	// Files lists every output written, in write order
	Files []string
}

// NewStore builds the snapshot store the config asks for. An S3 store keeps
// a local copy at the configured path.
func NewStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (snapshot.Store, error) {
	local := snapshot.NewFileStore(cfg.Snapshot.Path)
	if !cfg.Snapshot.UseS3() {
		return local, nil
	}
	s3cfg := cfg.Snapshot.S3ClientConfig()
	client, err := snapshot.NewS3Client(ctx, s3cfg)
	if err != nil {
		return nil, err
	}
	return &snapshot.S3Store{API: client, Bucket: s3cfg.Bucket, Key: s3cfg.Key, Cache: local, Log: log}, nil
}

// NewRunner wires the production collaborators from cfg.
func NewRunner(ctx context.Context, cfg *config.Config, log *logger.Logger, runID string) (*Runner, error) {
	if log == nil {
		log = logger.Nop()
	}
	store, err := NewStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}
	rec := metrics.New()
	client := fred.NewClient(cfg.FredClientConfig(), log)
	return &Runner{
		Cfg:     cfg,
		Log:     log,
		Metrics: rec,
		Acquirer: &acquire.Acquirer{
			Source:  acquire.FredOpener(client),
			Store:   store,
			Log:     log,
			Metrics: rec,
		},
		Backend: svar.NewGonumBackend(),
		RunID:   runID,
	}, nil
}

func (r *Runner) runLog() *logger.Logger {
	log := r.Log
	if log == nil {
		log = logger.Nop()
	}
	if r.RunID != "" {
		log = log.With(logger.String("run_id", r.RunID))
	}
	return log
}

// stage times fn, logs it and records its duration.
func (r *Runner) stage(ctx context.Context, log *logger.Logger, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	began := time.Now()
	log.Debug("stage started", logger.String("stage", name))
	err := fn()
	took := time.Since(began)
	if r.Metrics != nil {
		r.Metrics.RecordStage(name, took)
	}
	if err != nil {
		log.Error("stage failed", logger.String("stage", name), logger.Duration("took", took), logger.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Info("stage finished", logger.String("stage", name), logger.Duration("took", took))
	return nil
}

func (r *Runner) request(offline, refresh bool) acquire.Request {
	return acquire.Request{
		IDs:     r.Cfg.Data.Series.IDs(),
		Start:   r.Cfg.Data.StartDate(),
		End:     r.Cfg.Data.EndDate(),
		Refresh: refresh,
		Offline: offline,
	}
}

// Fetch refreshes the snapshot from the live source without estimating
// anything. It fails when the source cannot be reached.
func (r *Runner) Fetch(ctx context.Context) (*acquire.Result, error) {
	log := r.runLog()
	var res *acquire.Result
	err := r.stage(ctx, log, "acquire", func() error {
		var err error
		res, err = r.Acquirer.Acquire(ctx, r.request(false, true))
		return err
	})
	if err != nil {
		return nil, err
	}
	if res.FromSnapshot {
		return nil, fmt.Errorf("%w: snapshot not refreshed", fred.ErrSourceUnavailable)
	}
	r.writeMetrics(log)
	return res, nil
}

// Run executes acquisition, preparation, estimation and output in order.
// offline skips the live source and reads the snapshot directly.
func (r *Runner) Run(ctx context.Context, offline bool) (*Report, error) {
	log := r.runLog()
	cfg := r.Cfg
	rep := &Report{RunID: r.RunID}
	defer r.writeMetrics(log)

	var acquired *acquire.Result
	if err := r.stage(ctx, log, "acquire", func() error {
		var err error
		acquired, err = r.Acquirer.Acquire(ctx, r.request(offline, cfg.Snapshot.Refresh))
		return err
	}); err != nil {
		return nil, err
	}
	rep.FromSnapshot = acquired.FromSnapshot

	if err := r.stage(ctx, log, "prepare", func() error {
		ids := cfg.Data.Series
		in, err := InputsFrom(acquired.Series, ids.GDP, ids.Deflator, ids.CPI, ids.Population, ids.FedFunds)
		if err != nil {
			return err
		}
		method, err := cfg.Pipeline.DetrendMethod()
		if err != nil {
			return err
		}
		rep.Prepared, err = Prepare(in, PrepareOptions{
			Method:         method,
			Lambda:         cfg.Pipeline.HPLambda,
			PopulationBase: cfg.Data.PopulationBaseDate(),
		}, log)
		return err
	}); err != nil {
		return nil, err
	}
	ts := rep.Prepared.Model

	// informational only; the configured lag order is what gets estimated
	det, err := svar.ParseDeterministic(cfg.Model.Deterministic)
	if err != nil {
		return nil, err
	}
	if sel, err := svar.SelectLagOrder(ts, cfg.Model.MaxLags, det); err != nil {
		log.Warn("lag order selection skipped", logger.Error(err))
	} else {
		rep.LagSelection = sel
		log.Info("lag order criteria",
			logger.Int("aic", sel.BestAIC), logger.Int("bic", sel.BestBIC), logger.Int("hq", sel.BestHQ),
			logger.Int("configured", cfg.Model.Lags))
	}

	if err := r.stage(ctx, log, "estimate", func() error {
		return r.estimate(rep, ts)
	}); err != nil {
		return nil, err
	}

	opts := cfg.Model.BootstrapOptions()
	if err := r.stage(ctx, log, "impulse_response", func() error {
		var err error
		rep.IRF, err = r.Backend.ImpulseResponse(rep.Structural, ts, opts)
		return err
	}); err != nil {
		return nil, err
	}
	if err := r.stage(ctx, log, "historical_decomposition", func() error {
		var err error
		rep.HD, err = r.Backend.HistoricalDecomposition(rep.Structural, ts)
		return err
	}); err != nil {
		return nil, err
	}
	if err := r.stage(ctx, log, "variance_decomposition", func() error {
		var err error
		rep.FEVD, err = r.Backend.VarianceDecomposition(rep.Structural, ts, opts)
		return err
	}); err != nil {
		return nil, err
	}

	if steps := cfg.Model.ForecastSteps; steps > 0 {
		if rep.Forecast, err = rep.Structural.Forecast(ts.Y, steps); err != nil {
			return nil, fmt.Errorf("forecast: %w", err)
		}
	}

	if gc, err := rep.Structural.GrangerCausalityMatrix(ts); err != nil {
		log.Warn("granger causality skipped", logger.Error(err))
	} else {
		rep.Granger = gc
	}

	if err := r.stage(ctx, log, "write_outputs", func() error {
		return r.writeOutputs(rep)
	}); err != nil {
		return nil, err
	}
	if cfg.Pipeline.Plot {
		if err := r.stage(ctx, log, "figures", func() error {
			return r.renderFigures(rep)
		}); err != nil {
			return nil, err
		}
	}

	log.Info("run complete",
		logger.Bool("from_snapshot", rep.FromSnapshot),
		logger.Strings("files", rep.Files))
	return rep, nil
}

func (r *Runner) estimate(rep *Report, ts *svar.TimeSeries) error {
	spec, err := r.Cfg.Model.Spec()
	if err != nil {
		return err
	}
	scheme, err := svar.ParseIdentification(r.Cfg.Model.Identification)
	if err != nil {
		return err
	}
	rf, err := r.Backend.Estimate(ts, spec)
	if err != nil {
		return err
	}
	// the recursive scheme is only meaningful in the causal order
	if err := CheckColumnOrder(rf.VarNames); err != nil {
		return err
	}
	rep.Structural, err = r.Backend.Identify(rf, scheme)
	return err
}

func (r *Runner) outputPath(name string) string {
	return filepath.Join(r.Cfg.Pipeline.OutputDir, name)
}

// writeFile creates name in the output directory and hands it to fill. A
// failed write removes the file.
func (r *Runner) writeFile(rep *Report, name string, fill func(io.Writer) error) (err error) {
	path := r.outputPath(name)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
			return
		}
		rep.Files = append(rep.Files, path)
	}()
	if err := fill(f); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (r *Runner) writeOutputs(rep *Report) error {
	if err := os.MkdirAll(r.Cfg.Pipeline.OutputDir, 0o755); err != nil {
		return err
	}
	ts := rep.Prepared.Model
	names := ts.VarNames

	panelPath := r.outputPath(FilePanel)
	if err := svar.WriteCSVFile(panelPath, func(w *csv.Writer) error {
		return writePanel(w, rep.Prepared)
	}); err != nil {
		return fmt.Errorf("write %s: %w", FilePanel, err)
	}
	rep.Files = append(rep.Files, panelPath)

	if err := r.writeFile(rep, FileIRF, func(w io.Writer) error {
		return svar.WriteIRFCSV(w, rep.IRF, names)
	}); err != nil {
		return err
	}
	if err := r.writeFile(rep, FileFEVD, func(w io.Writer) error {
		return svar.WriteFEVDCSV(w, rep.FEVD, names)
	}); err != nil {
		return err
	}
	if err := r.writeFile(rep, FileHistDecomp, func(w io.Writer) error {
		return svar.WriteHistDecompCSV(w, rep.HD, ts.Time)
	}); err != nil {
		return err
	}
	if rep.Granger != nil {
		if err := r.writeFile(rep, FileGranger, func(w io.Writer) error {
			return svar.WriteGrangerCSV(w, rep.Granger)
		}); err != nil {
			return err
		}
	}
	if rep.Forecast != nil {
		if err := r.writeFile(rep, FileForecast, func(w io.Writer) error {
			return svar.WriteForecastCSV(w, rep.Forecast, names, forecastTimes(ts.Time, rep.Forecast))
		}); err != nil {
			return err
		}
	}
	if rep.LagSelection != nil {
		if err := r.writeFile(rep, FileLagSelection, func(w io.Writer) error {
			return svar.WriteLagSelectionCSV(w, rep.LagSelection)
		}); err != nil {
			return err
		}
	}
	return r.writeFile(rep, FileSummary, func(w io.Writer) error {
		rep.Structural.Summary(w, ts)
		return nil
	})
}

// forecastTimes continues the quarterly time stamps past the sample.
func forecastTimes(sample []float64, fc *mat.Dense) []float64 {
	if len(sample) == 0 {
		return nil
	}
	steps, _ := fc.Dims()
	last := sample[len(sample)-1]
	out := make([]float64, steps)
	for i := range out {
		out[i] = last + 0.25*float64(i+1)
	}
	return out
}

// writePanel writes the model input with its dates and the output trend.
func writePanel(w *csv.Writer, p *Prepared) error {
	header := append([]string{"Date"}, ModelColumns...)
	header = append(header, "OutputLevel", "OutputTrend")
	if err := w.Write(header); err != nil {
		return err
	}
	dates := p.Panel.Dates()
	for t, d := range dates {
		record := []string{d.Format(config.DateLayout)}
		for j := range ModelColumns {
			record = append(record, strconv.FormatFloat(p.Model.Y.At(t, j), 'f', 6, 64))
		}
		record = append(record,
			strconv.FormatFloat(p.Levels.Obs[t].Value, 'f', 6, 64),
			strconv.FormatFloat(p.Trend.Obs[t].Value, 'f', 6, 64),
		)
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// renderFigures always renders; the PNGs reach disk only with save_figures.
func (r *Runner) renderFigures(rep *Report) error {
	names := rep.Prepared.Model.VarNames
	figs := []struct {
		name string
		draw func(io.Writer) error
	}{
		{FigureIRF, func(w io.Writer) error { return figures.IRFGrid(w, rep.IRF, names) }},
		{FigureFEVD, func(w io.Writer) error { return figures.FEVDChart(w, rep.FEVD, names) }},
		{FigureHistDecomp, func(w io.Writer) error { return figures.HistDecompChart(w, rep.HD, rep.Prepared.Model.Time) }},
	}
	for _, fig := range figs {
		if !r.Cfg.Pipeline.SaveFigures {
			if err := fig.draw(io.Discard); err != nil {
				return fmt.Errorf("render %s: %w", fig.name, err)
			}
			continue
		}
		if err := os.MkdirAll(r.Cfg.Pipeline.OutputDir, 0o755); err != nil {
			return err
		}
		if err := r.writeFile(rep, fig.name, fig.draw); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) writeMetrics(log *logger.Logger) {
	path := r.Cfg.Metrics.Textfile
	if path == "" || r.Metrics == nil {
		return
	}
	if err := r.Metrics.WriteTextfile(path); err != nil {
		log.Warn("writing metrics textfile failed", logger.String("path", path), logger.Error(err))
	}
}
