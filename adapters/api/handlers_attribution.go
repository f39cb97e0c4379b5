package api

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"gomix/adapters/coercer"
	"gomix/domain/attribution"
	"gomix/domain/core"
	"gomix/domain/dataset"
	apperrors "gomix/internal/errors"
)

const defaultDemoSeed = 42

// rowsRequest is the JSON body of POST /attribution/rows.
type rowsRequest struct {
	Columns    []string         `json:"columns"`
	Rows       []map[string]any `json:"rows"`
	Decay      *float64         `json:"decay"`
	Saturation *bool            `json:"saturation"`
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.opts.RequestTimeout)
}

func (s *Server) handleAttributionUpload(c *gin.Context) {
	params, err := s.paramsFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	file, name, err := s.openUpload(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer file.Close()

	ctx, cancel := s.requestContext(c)
	defer cancel()

	res, err := s.attribution.AnalyzeUpload(ctx, file, name, params)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleAttributionRows(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	var req rowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if tooLarge(err) {
			s.writeError(c, s.payloadTooLarge())
			return
		}
		s.writeError(c, invalidInput("invalid JSON body: "+err.Error()))
		return
	}
	ds, err := datasetFromRows(req.Columns, req.Rows)
	if err != nil {
		s.writeError(c, err)
		return
	}

	params := s.attribution.Defaults()
	if req.Decay != nil {
		params.Decay = *req.Decay
	}
	if req.Saturation != nil {
		params.Saturation = *req.Saturation
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	res, err := s.attribution.Analyze(ctx, ds, params)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleSweep(c *gin.Context) {
	params, err := s.paramsFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	var decays []float64
	if raw := c.Query("decays"); raw != "" {
		if decays, err = parseDecays(raw); err != nil {
			s.writeError(c, err)
			return
		}
	}
	file, name, err := s.openUpload(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer file.Close()

	ctx, cancel := s.requestContext(c)
	defer cancel()

	ds, err := s.attribution.ReadUpload(ctx, file, name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	res, err := s.attribution.Sweep(ctx, ds, decays, params.Saturation)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleDemo(c *gin.Context) {
	params, err := s.paramsFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	seed := int64(defaultDemoSeed)
	if raw := c.Query("seed"); raw != "" {
		if seed, err = strconv.ParseInt(raw, 10, 64); err != nil {
			s.writeError(c, invalidInput("seed must be an integer"))
			return
		}
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	res, err := s.attribution.Demo(ctx, seed, params)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleReport(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "md"))
	if format != "md" && format != "markdown" && format != "html" {
		s.writeError(c, invalidInput("format must be md or html"))
		return
	}
	params, err := s.paramsFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	file, name, err := s.openUpload(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer file.Close()

	ctx, cancel := s.requestContext(c)
	defer cancel()

	res, err := s.attribution.AnalyzeUpload(ctx, file, name, params)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if format == "html" {
		body, err := s.reports.HTML(*res)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", body)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(s.reports.Markdown(*res)))
}

// paramsFromQuery reads decay and saturation, falling back to the defaults.
// Range checks are left to the pipeline.
func (s *Server) paramsFromQuery(c *gin.Context) (attribution.Params, error) {
	params := s.attribution.Defaults()
	if raw := c.Query("decay"); raw != "" {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return params, invalidInput("decay must be a number")
		}
		params.Decay = d
	}
	if raw := c.Query("saturation"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return params, invalidInput("saturation must be true or false")
		}
		params.Saturation = b
	}
	return params, nil
}

func (s *Server) openUpload(c *gin.Context) (multipart.File, string, error) {
	if c.Request.ContentLength > s.opts.MaxUploadBytes {
		return nil, "", s.payloadTooLarge()
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			return nil, "", s.payloadTooLarge()
		}
		return nil, "", invalidInput(`multipart field "file" is required`)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", apperrors.Wrap(err, "failed to open upload")
	}
	return f, fh.Filename, nil
}

func (s *Server) payloadTooLarge() error {
	return apperrors.New(apperrors.CodePayloadTooLarge, fmt.Sprintf("upload exceeds %d bytes", s.opts.MaxUploadBytes))
}

// datasetFromRows builds a dataset from JSON objects keyed by column name.
func datasetFromRows(columns []string, rows []map[string]any) (dataset.Dataset, error) {
	if len(columns) == 0 {
		return dataset.Dataset{}, invalidInput("columns are required")
	}
	out := make([]dataset.Row, len(rows))
	for i, raw := range rows {
		row := make(dataset.Row, len(columns))
		for _, col := range columns {
			row[col] = coercer.CoerceAny(raw[col])
		}
		out[i] = row
	}
	ds, err := dataset.New(columns, out)
	if err != nil {
		return dataset.Dataset{}, core.NewSchemaError(err.Error())
	}
	return ds, nil
}

func parseDecays(raw string) ([]float64, error) {
	var decays []float64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, invalidInput(fmt.Sprintf("invalid decay %q", part))
		}
		decays = append(decays, d)
	}
	return decays, nil
}
