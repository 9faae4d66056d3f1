package workflows

import (
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

const NameSummarize = "SummarizeWorkflow"

func Register(w worker.Worker) {
	w.RegisterWorkflowWithOptions(SummarizeWorkflow, workflow.RegisterOptions{Name: NameSummarize})
}
