package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"

	"papersum/internal/pipeline"
	"papersum/internal/util"
	"papersum/internal/workflows"
)

// WorkflowClient is the part of the Temporal client the API uses.
type WorkflowClient interface {
	ExecuteWorkflow(ctx context.Context, options tclient.StartWorkflowOptions, workflow interface{}, args ...interface{}) (tclient.WorkflowRun, error)
	QueryWorkflow(ctx context.Context, workflowID string, runID string, queryType string, args ...interface{}) (converter.EncodedValue, error)
}

const asyncWorkflowPrefix = "summary-"

// handleSummaryAsync starts SummarizeWorkflow for text or URL input. Uploads
// must use the synchronous endpoint.
func (s *Server) handleSummaryAsync(c *gin.Context) {
	if s.temporal == nil {
		writeErr(c, http.StatusServiceUnavailable, nil)
		return
	}
	var body summaryRequest
	if err := c.ShouldBind(&body); err != nil {
		writeErr(c, http.StatusBadRequest, util.E(util.KindValidation, "bind", "Malformed request body.", err))
		return
	}
	if _, err := pipeline.SelectSource(pipeline.Request{Text: body.Text, URL: body.URL}); err != nil {
		writeErr(c, http.StatusBadRequest, util.E(util.KindValidation, "bind", "Provide text or a URL.", err))
		return
	}

	wfID := asyncWorkflowPrefix + uuid.NewString()
	run, err := s.temporal.ExecuteWorkflow(c.Request.Context(), tclient.StartWorkflowOptions{
		ID:                    wfID,
		TaskQueue:             s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}, workflows.NameSummarize, workflows.SummarizeInput{
		Text:      body.Text,
		URL:       body.URL,
		UserID:    userPtr(c),
		RequestID: GetRequestID(c),
	})
	if err != nil {
		writeErr(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"workflow_id": run.GetID(), "run_id": run.GetRunID()})
}

func (s *Server) handleSummaryAsyncStatus(c *gin.Context) {
	if s.temporal == nil {
		writeErr(c, http.StatusServiceUnavailable, nil)
		return
	}
	id := c.Param("id")
	if len(id) <= len(asyncWorkflowPrefix) || id[:len(asyncWorkflowPrefix)] != asyncWorkflowPrefix {
		writeErr(c, http.StatusNotFound, nil)
		return
	}
	resp, err := s.temporal.QueryWorkflow(c.Request.Context(), id, "", workflows.QueryGetSummaryStatus)
	if err != nil {
		writeErr(c, http.StatusNotFound, err)
		return
	}
	var status workflows.SummaryStatus
	if err := resp.Get(&status); err != nil {
		writeErr(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
