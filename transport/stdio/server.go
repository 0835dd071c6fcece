// Package stdio serves the tool dispatcher over newline-delimited JSON
// on stdin/stdout.
package stdio

import (
	"encoding/json"
	"io"
	"os"

	"github.com/slighter12/godot-agent-tools/logger"
	"github.com/slighter12/godot-agent-tools/tools"
	"github.com/slighter12/godot-agent-tools/tools/types"
)

// request is one inbound tool call frame.
type request struct {
	ID        any            `json:"id"`
	Tool      string         `json:"tool"`
	Operation string         `json:"operation"`
	Args      map[string]any `json:"args"`
}

// response pairs the request id with its result bundle.
type response struct {
	ID     any                `json:"id"`
	Result types.ResultBundle `json:"result"`
}

// StdioServer handles tool calls over stdio
type StdioServer struct {
	toolManager *tools.Manager
	in          io.Reader
	out         io.Writer
}

// NewStdioServer creates a new stdio server
func NewStdioServer(toolManager *tools.Manager) *StdioServer {
	return &StdioServer{
		toolManager: toolManager,
		in:          os.Stdin,
		out:         os.Stdout,
	}
}

// NewStdioServerWithStreams wires explicit streams, for tests.
func NewStdioServerWithStreams(toolManager *tools.Manager, in io.Reader, out io.Writer) *StdioServer {
	return &StdioServer{
		toolManager: toolManager,
		in:          in,
		out:         out,
	}
}

// Start runs the read-dispatch-respond loop until EOF. Malformed frames
// are answered with a failure bundle and the loop continues.
func (s *StdioServer) Start() error {
	decoder := json.NewDecoder(s.in)
	encoder := json.NewEncoder(s.out)

	logger.Debug("Stdio server started and waiting for messages")

	for {
		var msg request
		if err := decoder.Decode(&msg); err != nil {
			if err == io.EOF {
				logger.Debug("Stdio EOF received, terminating server")
				return nil
			}
			logger.Error("Error decoding message", "error", err)
			if encodeErr := encoder.Encode(response{
				Result: types.Failure("Malformed request frame"),
			}); encodeErr != nil {
				return encodeErr
			}
			// A decode error within a frame leaves the stream position
			// unusable; stop instead of spinning on garbage.
			return nil
		}

		logger.Debug("Stdio message received", "tool", msg.Tool, "operation", msg.Operation)

		result := s.toolManager.Dispatch(msg.Tool, msg.Operation, types.ArgumentBundle(msg.Args))
		if err := encoder.Encode(response{ID: msg.ID, Result: result}); err != nil {
			logger.Error("Error encoding response", "error", err)
			return err
		}
	}
}
