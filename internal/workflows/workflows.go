package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"papersum/internal/activities"
)

const QueryGetSummaryStatus = "GetSummaryStatus"

const (
	stepPrepare   = "prepare"
	stepSummarize = "summarize"
	stepPersist   = "persist"

	msgPersistWarning = "The summary was generated but could not be saved to your history."
	msgFailed         = "The document could not be processed. Please try again later."
)

// SummarizeWorkflow runs prepare → summarize → persist as separate activities.
// Failures end the workflow with Status "failed" and a user-safe Error rather
// than a workflow error; a persist failure only sets Warning.
func SummarizeWorkflow(ctx workflow.Context, input SummarizeInput) (SummaryStatus, error) {
	status := SummaryStatus{
		CurrentStep: "init",
		Status:      StatusRunning,
		Steps:       map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetSummaryStatus, func() (SummaryStatus, error) {
		return status, nil
	}); err != nil {
		return status, err
	}

	// Prepare and summarize already retry their network calls in-process,
	// so Temporal runs them once. Persist has no inner retry.
	stageCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	persistCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    2,
		},
	})

	fail := func(err error) (SummaryStatus, error) {
		status.Status = StatusFailed
		status.Steps[status.CurrentStep] = StatusFailed
		status.Error = userMessage(err)
		workflow.GetLogger(ctx).Warn("summarize workflow failed", "step", status.CurrentStep, "error", err)
		return status, nil
	}

	status.CurrentStep = stepPrepare
	status.Steps[stepPrepare] = "processing"
	var prep activities.PrepareDocumentOutput
	if err := workflow.ExecuteActivity(stageCtx, activities.NamePrepareDocument, activities.PrepareDocumentInput{
		Text:      input.Text,
		URL:       input.URL,
		RequestID: input.RequestID,
	}).Get(stageCtx, &prep); err != nil {
		return fail(err)
	}
	status.Extraction = string(prep.Extraction.Method)
	status.Steps[stepPrepare] = "done"

	status.CurrentStep = stepSummarize
	status.Steps[stepSummarize] = "processing"
	var sum activities.SummarizeTextOutput
	if err := workflow.ExecuteActivity(stageCtx, activities.NameSummarizeText, activities.SummarizeTextInput{
		Text:      prep.CleanedText,
		RequestID: input.RequestID,
	}).Get(stageCtx, &sum); err != nil {
		return fail(err)
	}
	status.Title = sum.Summary.Title
	status.Keywords = sum.Summary.Keywords
	status.Markdown = sum.Markdown
	status.HTML = sum.HTML
	status.Synthetic = sum.Meta.Synthetic
	status.CacheHit = sum.CacheHit
	status.Steps[stepSummarize] = "done"

	status.CurrentStep = stepPersist
	status.Steps[stepPersist] = "processing"
	var saved activities.SaveSummaryOutput
	if err := workflow.ExecuteActivity(persistCtx, activities.NameSaveSummary, activities.SaveSummaryInput{
		Markdown:  sum.Markdown,
		Source:    prep.Source,
		UserID:    input.UserID,
		RequestID: input.RequestID,
	}).Get(persistCtx, &saved); err != nil {
		status.Steps[stepPersist] = StatusFailed
		status.Warning = msgPersistWarning
		workflow.GetLogger(ctx).Error("summary not persisted", "error", err)
	} else {
		status.HistoryID = saved.HistoryID
		status.Steps[stepPersist] = "done"
	}

	status.CurrentStep = "done"
	status.Status = StatusCompleted
	return status, nil
}

// userMessage pulls the safe message an activity attached to its
// ApplicationError.
func userMessage(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Message() != "" {
		return appErr.Message()
	}
	return msgFailed
}
