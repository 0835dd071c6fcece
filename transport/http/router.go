package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/slighter12/godot-agent-tools/logger"
	"github.com/slighter12/godot-agent-tools/tools/types"
)

const maxRequestBodyBytes = 1 << 20

func RegisterRoutes(e *echo.Echo, s *Server) {
	e.GET("/", s.handleInfo)
	e.GET("/healthz", s.handleHealth)
	e.GET("/tools", s.handleToolList)
	e.POST("/tools/execute", s.handleExecute)
}

func (s *Server) handleInfo(c echo.Context) error {
	logger.Debug("HTTP info requested", "remote_addr", c.RealIP())
	info := map[string]any{
		"name":             s.config.Name,
		"version":          s.config.Version,
		"type":             "godot-agent-tools",
		"execute_endpoint": "/tools/execute",
	}
	return c.JSON(http.StatusOK, info)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleToolList(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"tools": s.toolManager.Inventory(),
	})
}

// executeRequest is the wire shape of one tool call.
type executeRequest struct {
	Tool      string         `json:"tool"`
	Operation string         `json:"operation"`
	Args      map[string]any `json:"args"`
}

// handleExecute dispatches one tool operation. Tool-level failures still
// answer HTTP 200: the ResultBundle carries success/failure, and only
// malformed requests produce non-200 statuses.
func (s *Server) handleExecute(c echo.Context) error {
	limitedBody := http.MaxBytesReader(c.Response(), c.Request().Body, maxRequestBodyBytes)
	defer limitedBody.Close()

	var req executeRequest
	if err := decodeJSON(limitedBody, &req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			logger.Warn("Request body too large",
				"limit_bytes", maxRequestBodyBytes, "remote_addr", c.RealIP())
			return c.JSON(http.StatusRequestEntityTooLarge,
				types.Failure("Request body too large"))
		}
		logger.Warn("Malformed execute request", "error", err)
		return c.JSON(http.StatusBadRequest,
			types.Failure("Malformed request body: expected {tool, operation, args}"))
	}

	if req.Tool == "" {
		return c.JSON(http.StatusBadRequest, types.Failure("Missing tool name"))
	}
	operation := req.Operation
	if operation == "" {
		// Convenience: allow the operation inside the argument bundle.
		if op, ok := req.Args["operation"].(string); ok {
			operation = op
		}
	}

	result := s.toolManager.Dispatch(req.Tool, operation, types.ArgumentBundle(req.Args))
	return c.JSON(http.StatusOK, result)
}

func decodeJSON(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
