package activities

import (
	"context"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"papersum/internal/logging"
	"papersum/internal/pipeline"
	"papersum/internal/render"
	"papersum/internal/util"
)

// Activities exposes the pipeline stages to Temporal. Each activity is one
// stage, so a retried activity never repeats work a previous one finished.
type Activities struct {
	pipeline *pipeline.Orchestrator
	logger   *zap.Logger
}

func New(p *pipeline.Orchestrator, logger *zap.Logger) *Activities {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Activities{pipeline: p, logger: logger}
}

func (a *Activities) PrepareDocumentActivity(ctx context.Context, in PrepareDocumentInput) (PrepareDocumentOutput, error) {
	ctx = withRequestID(ctx, in.RequestID)
	prep, err := a.pipeline.Prepare(ctx, pipeline.Request{Text: in.Text, URL: in.URL, RequestID: in.RequestID})
	if err != nil {
		return PrepareDocumentOutput{}, a.toActivityError(ctx, "prepare", err)
	}
	return PrepareDocumentOutput{
		Source:       prep.Document.Source,
		CleanedText:  prep.Document.CleanedText,
		Extraction:   prep.Extraction,
		UsedAbstract: prep.UsedAbstract,
	}, nil
}

func (a *Activities) SummarizeTextActivity(ctx context.Context, in SummarizeTextInput) (SummarizeTextOutput, error) {
	ctx = withRequestID(ctx, in.RequestID)
	out, err := a.pipeline.Summarize(ctx, in.Text)
	if err != nil {
		return SummarizeTextOutput{}, a.toActivityError(ctx, "summarize", err)
	}
	md, html := render.Summary(out.Summary)
	return SummarizeTextOutput{
		Summary:  out.Summary,
		Meta:     out.Meta,
		CacheHit: out.CacheHit,
		Markdown: md,
		HTML:     html,
	}, nil
}

func (a *Activities) SaveSummaryActivity(ctx context.Context, in SaveSummaryInput) (SaveSummaryOutput, error) {
	ctx = withRequestID(ctx, in.RequestID)
	rec, err := a.pipeline.Persist(ctx, in.Markdown, in.Source, in.UserID)
	if err != nil {
		return SaveSummaryOutput{}, a.toActivityError(ctx, "persist", err)
	}
	if rec == nil {
		return SaveSummaryOutput{}, nil
	}
	return SaveSummaryOutput{HistoryID: rec.ID, Persisted: true}, nil
}

// toActivityError hands Temporal an error whose message is safe to show and
// whose type is the failure kind. Validation and empty-document failures are
// not retried.
func (a *Activities) toActivityError(ctx context.Context, op string, err error) error {
	logging.FromContext(ctx, a.logger).Warn("activity failed", zap.String("op", op), zap.Error(err))
	kind := string(util.KindOf(err))
	if kind == "" {
		kind = "internal"
	}
	msg := util.UserMessage(err)
	if !util.IsRetryable(err) {
		return temporal.NewNonRetryableApplicationError(msg, kind, err)
	}
	return temporal.NewApplicationErrorWithCause(msg, kind, err)
}

func withRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return logging.WithRequestID(ctx, id)
}
