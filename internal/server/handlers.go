package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"spreadsheet-hooks/internal/common/errors"
	"spreadsheet-hooks/internal/common/validation"
	"spreadsheet-hooks/internal/models"
)

// HeaderRequestID supplies the invocation id when the body carries none.
const HeaderRequestID = "X-Request-ID"

// Envelope is the body of a hook invocation.
type Envelope struct {
	Request  models.CalculationRequest  `json:"request"`
	Response models.CalculationResponse `json:"response"`
}

// Result is returned for every verdict, including cancellations.
type Result struct {
	Result   *models.ActionableResponse  `json:"result"`
	Response *models.CalculationResponse `json:"response"`
}

type errorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func (s *Server) afterCalculation(c *gin.Context) {
	name := c.Param("name")
	hook, ok := s.registry.Lookup(name)
	if !ok {
		stdErr := errors.NewHookNotFoundError(name)
		c.JSON(http.StatusNotFound, errorBody{Code: string(stdErr.Code), Message: stdErr.Message})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.badRequest(c, errors.NewInvalidEnvelopeError(err.Error()), nil)
		return
	}

	result, err := validation.ValidateEnvelope(body)
	if err != nil {
		s.badRequest(c, errors.NewInvalidEnvelopeError(err.Error()), nil)
		return
	}
	if !result.Valid {
		s.badRequest(c, errors.NewInvalidEnvelopeError("schema validation failed"), result.GetErrorMessages())
		return
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		s.badRequest(c, errors.NewInvalidEnvelopeError(err.Error()), nil)
		return
	}
	if env.Request.RequestID == "" {
		env.Request.RequestID = c.GetHeader(HeaderRequestID)
	}

	verdict := hook.AfterCalculation(c.Request.Context(), &env.Request, &env.Response)

	c.JSON(http.StatusOK, Result{Result: verdict, Response: &env.Response})
}

func (s *Server) badRequest(c *gin.Context, stdErr *errors.StandardError, details []string) {
	s.logger.Warn("Rejected hook invocation", map[string]interface{}{
		"path":    c.Request.URL.Path,
		"details": stdErr.Details,
		"errors":  details,
	})
	c.JSON(http.StatusBadRequest, errorBody{
		Code:    string(stdErr.Code),
		Message: stdErr.Message,
		Errors:  details,
	})
}

func (s *Server) listHooks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"hooks": s.registry.Names()})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ready(c *gin.Context) {
	checks := make(map[string]string, len(s.checks))
	status := http.StatusOK
	for name, check := range s.checks {
		if err := check(c.Request.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}
