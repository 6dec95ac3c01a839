package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/vijay-prabhu/driver-recommender/internal/database"
	"github.com/vijay-prabhu/driver-recommender/internal/logging"
	"github.com/vijay-prabhu/driver-recommender/internal/refresh"
)

const protocolVersion = "2024-11-05"

// JSON-RPC error codes
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// Server answers MCP requests over stdio from the service's current snapshot
type Server struct {
	svc      *refresh.Service
	db       *database.DB
	version  string
	logger   *zap.Logger
	handlers map[string]ToolHandler
}

// ToolHandler runs one tool call. A string result is sent as is, anything
// else as indented JSON.
type ToolHandler func(ctx context.Context, params json.RawMessage) (interface{}, error)

type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type callToolResult struct {
	Content []contentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type contentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// New creates an MCP server
func New(svc *refresh.Service, db *database.DB, version string, logger *zap.Logger) *Server {
	s := &Server{
		svc:      svc,
		db:       db,
		version:  version,
		logger:   logging.Or(logger),
		handlers: make(map[string]ToolHandler),
	}
	s.registerHandlers()
	return s
}

// Serve reads newline-delimited JSON-RPC requests from r and writes
// responses to w until r is exhausted or ctx is done
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	enc := json.NewEncoder(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := reader.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			if resp := s.handleMessage(ctx, line); resp != nil {
				if werr := enc.Encode(resp); werr != nil {
					return fmt.Errorf("write error: %w", werr)
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, msg string) *jsonRPCResponse {
	var req jsonRPCRequest
	if err := json.Unmarshal([]byte(msg), &req); err != nil {
		return failure(nil, codeParseError, "Parse error")
	}
	s.logger.Debug("mcp request", zap.String("method", req.Method))

	switch req.Method {
	case "initialize":
		info := map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": struct{}{}, "resources": struct{}{}},
			"serverInfo":      map[string]string{"name": "driverrec", "version": s.version},
		}
		return result(req.ID, info)
	case "initialized":
		return nil
	case "tools/list":
		return result(req.ID, map[string][]Tool{"tools": ToolDefinitions})
	case "tools/call":
		return s.callTool(ctx, req)
	case "resources/list":
		return result(req.ID, resourcesListResult{Resources: ResourceDefinitions})
	case "resources/read":
		return s.readResource(ctx, req)
	default:
		return failure(req.ID, codeMethodNotFound, "Method not found")
	}
}

func (s *Server) callTool(ctx context.Context, req jsonRPCRequest) *jsonRPCResponse {
	var params callToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return failure(req.ID, codeInvalidParams, "Invalid params")
	}

	handler, ok := s.handlers[params.Name]
	if !ok {
		return failure(req.ID, codeInvalidParams, "Unknown tool: "+params.Name)
	}

	out, err := handler(ctx, params.Arguments)
	if err != nil {
		return result(req.ID, callToolResult{Content: []contentItem{{Type: "text", Text: err.Error()}}, IsError: true})
	}

	text, ok := out.(string)
	if !ok {
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return result(req.ID, callToolResult{Content: []contentItem{{Type: "text", Text: err.Error()}}, IsError: true})
		}
		text = string(b)
	}
	return result(req.ID, callToolResult{Content: []contentItem{{Type: "text", Text: text}}})
}

func (s *Server) readResource(ctx context.Context, req jsonRPCRequest) *jsonRPCResponse {
	var params readResourceParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return failure(req.ID, codeInvalidParams, "Invalid params")
	}

	text, err := s.handleReadResource(ctx, params.URI)
	if err != nil {
		return failure(req.ID, codeInvalidParams, err.Error())
	}
	return result(req.ID, readResourceResult{
		Contents: []resourceContent{{URI: params.URI, MimeType: "text/plain", Text: text}},
	})
}

func result(id, v interface{}) *jsonRPCResponse {
	return &jsonRPCResponse{JSONRPC: "2.0", ID: id, Result: v}
}

func failure(id interface{}, code int, msg string) *jsonRPCResponse {
	return &jsonRPCResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: msg}}
}
