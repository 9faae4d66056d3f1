package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"papersum/internal/logging"
	"papersum/internal/render"
	"papersum/internal/storage"
	"papersum/internal/util"
)

// Run drives one request to StageDone or StageFailed. A persistence failure
// leaves the summary intact and is reported in Result.PersistErr.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	if req.RequestID != "" {
		ctx = logging.WithRequestID(ctx, req.RequestID)
	}
	ctx = logging.WithUserID(ctx, req.UserID)
	log := logging.FromContext(ctx, o.d.Logger)

	begun := time.Now()
	res, err := o.run(ctx, req, log)
	o.audit(ctx, req, res, err, time.Since(begun))
	return res, err
}

func (o *Orchestrator) run(ctx context.Context, req Request, log *zap.Logger) (Result, error) {
	res := Result{Stage: StageStart}
	mark := func(stage Stage, started time.Time, note string, err error) {
		ev := StageEvent{Stage: stage, Duration: time.Since(started), Note: note}
		if err != nil {
			ev.Err = err.Error()
		}
		res.Trace = append(res.Trace, ev)
		res.Stage = stage
	}
	fail := func(stage Stage, started time.Time, err error) (Result, error) {
		mark(stage, started, "", err)
		res.Stage = StageFailed
		log.Warn("request failed", zap.String("stage", string(stage)), zap.Error(err))
		return res, err
	}

	started := time.Now()
	prep, err := o.Prepare(ctx, req)
	res.Source = prep.Document.Source
	res.Extraction = prep.Extraction
	if err != nil {
		stage := StageAcquire
		if prep.Extraction.Method != "" {
			stage = StageExtract
		}
		return fail(stage, started, err)
	}
	note := string(prep.Extraction.Method)
	if prep.UsedAbstract {
		note = "abstract fallback"
	}
	mark(StageExtract, started, note, nil)
	res.Trace = append(res.Trace, StageEvent{Stage: StageClean})

	started = time.Now()
	out, err := o.Summarize(ctx, prep.Document.CleanedText)
	if err != nil {
		return fail(StageSummarize, started, err)
	}
	res.Summary, res.SummaryMeta, res.CacheHit = out.Summary, out.Meta, out.CacheHit
	res.Synthetic = out.Meta.Synthetic
	res.Markdown, res.HTML = render.Summary(out.Summary)
	sumNote := string(out.Meta.Format)
	if out.CacheHit {
		sumNote = "cache hit"
	}
	mark(StageSummarize, started, sumNote, nil)

	started = time.Now()
	hist, err := o.Persist(ctx, res.Markdown, res.Source, req.UserID)
	res.History = hist
	if err != nil {
		res.PersistErr = err
		log.Error("summary not persisted", zap.Error(err))
	}
	mark(StagePersist, started, "", err)

	res.Stage = StageDone
	res.Trace = append(res.Trace, StageEvent{Stage: StageDone})
	log.Info("request completed",
		zap.String("source", string(res.Source.Kind)),
		zap.String("extraction", string(res.Extraction.Method)),
		zap.Bool("synthetic", res.Synthetic),
		zap.Bool("cache_hit", res.CacheHit),
		zap.Bool("persisted", hist != nil),
	)
	return res, nil
}

// audit writes a summary_runs row. Failures are logged and never surface to
// the caller.
func (o *Orchestrator) audit(ctx context.Context, req Request, res Result, runErr error, d time.Duration) {
	if o.d.Audit == nil {
		return
	}
	rec := storage.RunRecord{
		RequestID:  req.RequestID,
		UserID:     req.UserID,
		SourceKind: string(res.Source.Kind),
		Extraction: string(res.Extraction.Method),
		Provider:   res.SummaryMeta.Provider,
		Model:      res.SummaryMeta.Model,
		Attempts:   res.SummaryMeta.Attempts,
		Synthetic:  res.Synthetic,
		CacheHit:   res.CacheHit,
		Status:     storage.RunStatusOK,
		Duration:   d,
	}
	if runErr != nil {
		rec.Status = storage.RunStatusFailed
		rec.ErrorKind = string(util.KindOf(runErr))
	}
	if rec.SourceKind == "" {
		rec.SourceKind = "unknown"
	}
	if err := o.d.Audit.RecordRun(context.WithoutCancel(ctx), rec); err != nil {
		logging.FromContext(ctx, o.d.Logger).Warn("summary run not audited", zap.Error(err))
	}
}
