package activities

import (
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
)

// Activity names as seen by workflows; they stay stable if methods are renamed.
const (
	NamePrepareDocument = "PrepareDocumentActivity"
	NameSummarizeText   = "SummarizeTextActivity"
	NameSaveSummary     = "SaveSummaryActivity"
)

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivityWithOptions(a.PrepareDocumentActivity, activity.RegisterOptions{Name: NamePrepareDocument})
	w.RegisterActivityWithOptions(a.SummarizeTextActivity, activity.RegisterOptions{Name: NameSummarizeText})
	w.RegisterActivityWithOptions(a.SaveSummaryActivity, activity.RegisterOptions{Name: NameSaveSummary})
}
