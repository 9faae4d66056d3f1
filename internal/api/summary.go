package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"papersum/internal/logging"
	"papersum/internal/pipeline"
	"papersum/internal/util"
)

type summaryRequest struct {
	Text string `json:"text" form:"text"`
	URL  string `json:"url" form:"url"`
}

// summaryResponse always has exactly one of Summary and Error set.
type summaryResponse struct {
	Summary *string `json:"summary"`
	Error   *string `json:"error"`
}

func (s *Server) handleSummary(c *gin.Context) {
	if s.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(s.cfg.MaxUploadBytes)+1<<20)
	}

	req, closeUpload, err := s.bindSummaryRequest(c)
	if closeUpload != nil {
		defer closeUpload()
	}
	if err != nil {
		summaryFailure(c, http.StatusBadRequest, util.UserMessage(err))
		return
	}
	req.UserID = userPtr(c)
	req.RequestID = GetRequestID(c)

	res, err := s.pipeline.Run(c.Request.Context(), req)
	if err != nil {
		summaryFailure(c, statusFor(err), util.UserMessage(err))
		return
	}
	if res.PersistErr != nil {
		c.Header(warningHeader, util.UserMessage(res.PersistErr))
	}
	html := res.HTML
	c.JSON(http.StatusOK, summaryResponse{Summary: &html})
}

func (s *Server) bindSummaryRequest(c *gin.Context) (pipeline.Request, func(), error) {
	var body summaryRequest
	ct := c.ContentType()
	if ct == gin.MIMEJSON {
		if err := c.ShouldBindJSON(&body); err != nil {
			return pipeline.Request{}, nil, util.E(util.KindValidation, "bind", "Malformed JSON request body.", err)
		}
		return pipeline.Request{Text: body.Text, URL: body.URL}, nil, nil
	}

	body.Text = c.PostForm("text")
	body.URL = c.PostForm("url")
	req := pipeline.Request{Text: body.Text, URL: body.URL}

	fh, err := c.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return req, nil, nil
	case err != nil:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, nil, util.E(util.KindValidation, "bind", "The document is larger than the allowed size.", err)
		}
		return req, nil, util.E(util.KindValidation, "bind", "The upload could not be read.", err)
	}
	if strings.TrimSpace(fh.Filename) == "" {
		return req, nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return req, nil, util.E(util.KindValidation, "bind", "The upload could not be read.", err)
	}
	req.Upload = &pipeline.Upload{Filename: fh.Filename, Reader: f}
	return req, s.closeFile(c, f), nil
}

func (s *Server) closeFile(c *gin.Context, f multipart.File) func() {
	return func() {
		if err := f.Close(); err != nil {
			logging.FromContext(c.Request.Context(), s.logger).Debug("close upload", zap.Error(err))
		}
	}
}

func summaryFailure(c *gin.Context, status int, msg string) {
	c.JSON(status, summaryResponse{Error: &msg})
}
