// Package mcp serves the database tools over the Model Context Protocol, one JSON-RPC message per line.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/canonical/lxd/shared/logger"
	"golang.org/x/sync/errgroup"

	"github.com/gaussdb/gaussdb-mcp/internal/rest/types"
	"github.com/gaussdb/gaussdb-mcp/internal/tools"
)

// Catalog lists and runs tools.
type Catalog interface {
	List() []types.Tool
	Call(ctx context.Context, name string, args map[string]any) (string, error)
}

// Server answers MCP requests read from a stream.
type Server struct {
	catalog Catalog
	info    Implementation

	mu  sync.Mutex
	enc *json.Encoder
}

// NewServer returns a server exposing catalog.
func NewServer(catalog Catalog, version string) *Server {
	return &Server{
		catalog: catalog,
		info:    Implementation{Name: ServerName, Version: version},
	}
}

// Serve reads requests from in until it is exhausted or ctx is cancelled and writes responses to out. Tool
// calls run concurrently; Serve returns once all of them have answered.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.mu.Lock()
	s.enc = json.NewEncoder(out)
	s.enc.SetEscapeHTML(false)
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)

		reader := bufio.NewReader(in)
		for {
			line, err := reader.ReadBytes('\n')
			if len(line) > 0 {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}

			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}

				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			err := g.Wait()
			if err != nil {
				return err
			}

			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				err := g.Wait()
				if err != nil {
					return err
				}

				select {
				case err := <-readErr:
					return fmt.Errorf("Failed to read request: %w", err)
				default:
					return nil
				}
			}

			err := s.handle(ctx, g, line)
			if err != nil {
				_ = g.Wait()
				return err
			}
		}
	}
}

// handle answers one message. Tool calls are handed to g, everything else is answered inline.
func (s *Server) handle(ctx context.Context, g *errgroup.Group, line []byte) error {
	if len(bytes.TrimSpace(line)) == 0 {
		return nil
	}

	var req Request
	err := json.Unmarshal(line, &req)
	if err != nil {
		logger.Warn("Received malformed message", logger.Ctx{"err": err})
		return s.writeError(json.RawMessage("null"), CodeParseError, "Parse error")
	}

	if req.JSONRPC != jsonRPCVersion || req.Method == "" {
		id := req.ID
		if id == nil {
			id = json.RawMessage("null")
		}

		return s.writeError(id, CodeInvalidRequest, "Invalid request")
	}

	if req.IsNotification() {
		s.notification(req)
		return nil
	}

	logger.Debug("Received request", logger.Ctx{"method": req.Method, "id": string(req.ID)})

	switch req.Method {
	case "initialize":
		return s.initialize(req)
	case "ping":
		return s.writeResult(req.ID, struct{}{})
	case "tools/list":
		return s.writeResult(req.ID, ListToolsResult{Tools: s.catalog.List()})
	case "tools/call":
		g.Go(func() error {
			return s.callTool(ctx, req)
		})

		return nil
	}

	return s.writeError(req.ID, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
}

func (s *Server) notification(req Request) {
	switch req.Method {
	case "notifications/initialized":
		logger.Info("MCP session initialized")
	default:
		logger.Debug("Ignoring notification", logger.Ctx{"method": req.Method})
	}
}

func (s *Server) initialize(req Request) error {
	var params InitializeParams
	if len(req.Params) > 0 {
		err := json.Unmarshal(req.Params, &params)
		if err != nil {
			return s.writeError(req.ID, CodeInvalidParams, fmt.Sprintf("Invalid params: %v", err))
		}
	}

	logger.Info("Initializing MCP session", logger.Ctx{"client": params.ClientInfo.Name, "clientVersion": params.ClientInfo.Version, "protocolVersion": params.ProtocolVersion})

	return s.writeResult(req.ID, InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
		ServerInfo:      s.info,
	})
}

func (s *Server) callTool(ctx context.Context, req Request) error {
	// Numbers stay exact until the catalogue converts them.
	var params CallToolParams
	decoder := json.NewDecoder(bytes.NewReader(req.Params))
	decoder.UseNumber()
	err := decoder.Decode(&params)
	if err != nil || params.Name == "" {
		return s.writeError(req.ID, CodeInvalidParams, "Invalid params: a tool name is required")
	}

	text, err := s.catalog.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, tools.ErrUnknownTool) {
			return s.writeError(req.ID, CodeInvalidParams, err.Error())
		}

		return s.writeResult(req.ID, textResult(err.Error(), true))
	}

	return s.writeResult(req.ID, textResult(text, false))
}

func (s *Server) writeResult(id json.RawMessage, result any) error {
	return s.write(Response{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func (s *Server) writeError(id json.RawMessage, code int, message string) error {
	return s.write(Response{JSONRPC: jsonRPCVersion, ID: id, Error: &Error{Code: code, Message: message}})
}

// write emits a single line. Concurrent tool calls share the encoder.
func (s *Server) write(resp Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.enc.Encode(resp)
	if err != nil {
		logger.Error("Failed to write response", logger.Ctx{"id": string(resp.ID), "err": err})
		return fmt.Errorf("Failed to write response: %w", err)
	}

	return nil
}
