package pipeline

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"papersum/internal/acquire"
	"papersum/internal/cleaner"
	"papersum/internal/extract"
	"papersum/internal/logging"
	"papersum/internal/models"
	"papersum/internal/summarize"
	"papersum/internal/util"
)

const (
	msgNoInput       = "Please provide text, a PDF or TXT file, or a URL."
	msgInternal      = "The document could not be processed. Please try again later."
	msgPersistFailed = "The summary was generated but could not be saved to your history."
)

// Prepared is the output of the acquire, extract and clean stages.
type Prepared struct {
	Document     models.Document `json:"document"`
	Extraction   extract.Meta    `json:"extraction"`
	UsedAbstract bool            `json:"used_abstract"`
}

// SummaryOutcome is the output of the summarize stage.
type SummaryOutcome struct {
	Summary  models.SummaryResult `json:"summary"`
	Meta     summarize.Meta       `json:"meta"`
	CacheHit bool                 `json:"cache_hit"`
}

// SelectSource applies input precedence: upload, then text, then URL.
func SelectSource(req Request) (models.Source, error) {
	switch {
	case req.Upload != nil && req.Upload.Reader != nil && req.Upload.Filename != "":
		return models.Source{Kind: models.SourceUpload, Filename: req.Upload.Filename}, nil
	case strings.TrimSpace(req.Text) != "":
		return models.Source{Kind: models.SourceInline, Text: req.Text}, nil
	case strings.TrimSpace(req.URL) != "":
		return models.Source{Kind: models.SourceURL, URL: strings.TrimSpace(req.URL)}, nil
	}
	return models.Source{}, util.E(util.KindValidation, "pipeline", msgNoInput, nil)
}

// Prepare acquires the selected input and returns its cleaned text. Any
// scratch files are removed before it returns.
func (o *Orchestrator) Prepare(ctx context.Context, req Request) (Prepared, error) {
	src, err := SelectSource(req)
	if err != nil {
		return Prepared{}, err
	}
	out := Prepared{Document: models.Document{Source: src}}

	switch src.Kind {
	case models.SourceInline:
		out.Document.RawText = src.Text
		out.Document.CleanedText = cleaner.Clean(src.Text)
		out.Extraction.Method = extract.MethodText
		return out, nil
	case models.SourceUpload:
		return o.prepareUpload(ctx, req.Upload, out)
	default:
		return o.prepareURL(ctx, out)
	}
}

func (o *Orchestrator) prepareUpload(ctx context.Context, up *Upload, out Prepared) (Prepared, error) {
	scratch, err := acquire.NewScratch(o.d.ScratchRoot)
	if err != nil {
		return out, util.E(util.KindTransient, "upload", msgInternal, err)
	}
	defer o.release(ctx, scratch)

	path, ext, err := acquire.SaveUpload(scratch, up.Filename, up.Reader, o.d.MaxUploadBytes)
	if err != nil {
		return out, boundary("upload", err)
	}
	out.Document.Source.Path = path
	text, meta, err := o.d.Extractor.Extract(ctx, path, extract.KindForExt(ext))
	out.Extraction = meta
	if err != nil {
		return out, boundary("extract", err)
	}
	out.Document.RawText = text
	out.Document.CleanedText = cleaner.Clean(text)
	return out, nil
}

// prepareURL downloads and extracts the PDF. When either step fails the
// arXiv abstract, if one can be found, stands in for the full text.
func (o *Orchestrator) prepareURL(ctx context.Context, out Prepared) (Prepared, error) {
	log := logging.FromContext(ctx, o.d.Logger)
	rawURL := out.Document.Source.URL

	scratch, err := acquire.NewScratch(o.d.ScratchRoot)
	if err != nil {
		return out, util.E(util.KindTransient, "download", msgInternal, err)
	}
	defer o.release(ctx, scratch)

	dl, stageErr := o.d.Downloader.Download(ctx, rawURL, scratch)
	if stageErr == nil {
		out.Document.Source.Path = dl.Path
		var (
			text string
			meta extract.Meta
		)
		text, meta, stageErr = o.d.Extractor.Extract(ctx, dl.Path, extract.KindPDF)
		out.Extraction = meta
		if stageErr == nil {
			out.Document.RawText = text
			out.Document.CleanedText = cleaner.Clean(text)
			return out, nil
		}
	}

	if o.d.Abstracts != nil {
		if abstract, ok := o.d.Abstracts.Fetch(ctx, rawURL); ok {
			log.Warn("using arXiv abstract in place of full text", zap.Error(stageErr))
			out.UsedAbstract = true
			out.Extraction.Method = extract.MethodAbstract
			out.Document.RawText = abstract
			out.Document.CleanedText = cleaner.Clean(abstract)
			return out, nil
		}
	}
	return out, boundary("acquire", stageErr)
}

func (o *Orchestrator) release(ctx context.Context, s *acquire.Scratch) {
	if err := s.Close(); err != nil {
		logging.FromContext(ctx, o.d.Logger).Debug("scratch cleanup failed", zap.String("dir", s.Dir), zap.Error(err))
	}
}

// Summarize runs the length guard, consults the cache, and summarizes text.
// Synthetic results are never cached.
func (o *Orchestrator) Summarize(ctx context.Context, text string) (SummaryOutcome, error) {
	if err := o.d.Summarizer.CheckLength(text); err != nil {
		return SummaryOutcome{}, err
	}
	log := logging.FromContext(ctx, o.d.Logger)
	key := summarize.CacheKey(text)

	cached, ok, err := o.d.Cache.Get(ctx, key)
	if err != nil {
		log.Warn("summary cache read failed", zap.Error(err))
	}
	if ok {
		return SummaryOutcome{Summary: cached, CacheHit: true}, nil
	}

	res, meta, err := o.d.Summarizer.Summarize(ctx, text)
	if err != nil {
		return SummaryOutcome{Meta: meta}, boundary("summarize", err)
	}
	if !meta.Synthetic {
		if err := o.d.Cache.Set(ctx, key, res, o.d.CacheTTL); err != nil {
			log.Warn("summary cache write failed", zap.Error(err))
		}
	}
	return SummaryOutcome{Summary: res, Meta: meta}, nil
}

// Persist stores the rendered summary. A nil store persists nothing.
func (o *Orchestrator) Persist(ctx context.Context, markdown string, src models.Source, userID *int64) (*models.SummaryHistory, error) {
	if o.d.Store == nil {
		return nil, nil
	}
	rec, err := o.d.Store.Insert(ctx, models.NewSummaryHistory{
		Summary:     markdown,
		OriginalURL: src.OriginalURL(),
		UserID:      userID,
	})
	if err != nil {
		return nil, util.E(util.KindPersistence, "persist", msgPersistFailed, err)
	}
	return &rec, nil
}

// boundary makes sure err carries a user-safe message.
func boundary(op string, err error) error {
	if err == nil {
		return nil
	}
	if util.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return util.E(util.KindTransient, op, "The request was cancelled or timed out.", err)
	}
	return util.E(util.KindTransient, op, msgInternal, err)
}
