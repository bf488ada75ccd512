package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/shakram02/sql-schema-mcp/internal/errors"
	"github.com/shakram02/sql-schema-mcp/internal/metrics"
	"github.com/shakram02/sql-schema-mcp/internal/resource"
)

type methodHandler func(ctx context.Context, req mcp.Request) (mcp.Result, error)

type toolHandler func(ctx context.Context, args json.RawMessage) (string, error)

func (s *Server) registerTool(tool *mcp.Tool, h toolHandler) {
	if s.tools == nil {
		s.tools = map[string]toolHandler{}
	}
	s.tools[tool.Name] = h
	s.listing = append(s.listing, tool)
}

// dispatch routes the methods this server implements to its own handlers and
// leaves everything else (initialize, ping, ...) to the SDK.
func (s *Server) dispatch(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		h, ok := s.methods[method]
		if !ok {
			return next(ctx, method, req)
		}

		start := time.Now()
		res, err := h(ctx, req)
		metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

		if err != nil {
			kind := apperrors.KindOf(err)
			if kind == "" {
				kind = "error"
			}
			metrics.RequestsTotal.WithLabelValues(method, string(kind)).Inc()
			if apperrors.Is(err, apperrors.Database) {
				s.log.Warn("server: request failed", "method", method, "error", err)
			} else {
				s.log.Debug("server: request rejected", "method", method, "error", err)
			}
			return nil, apperrors.ToRPC(err)
		}

		metrics.RequestsTotal.WithLabelValues(method, "ok").Inc()
		return res, nil
	}
}

func (s *Server) listResources(ctx context.Context, _ mcp.Request) (mcp.Result, error) {
	resources, err := s.cfg.Catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	return &mcp.ListResourcesResult{Resources: resources}, nil
}

func (s *Server) readResource(ctx context.Context, req mcp.Request) (mcp.Result, error) {
	r, ok := req.(*mcp.ReadResourceRequest)
	if !ok || r.Params == nil {
		return nil, apperrors.New(apperrors.InvalidResourceURI, "missing resource URI")
	}

	text, err := s.cfg.Catalog.Read(ctx, r.Params.URI)
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      r.Params.URI,
			MIMEType: resource.MIMEType,
			Text:     text,
		}},
	}, nil
}

func (s *Server) listTools(context.Context, mcp.Request) (mcp.Result, error) {
	return &mcp.ListToolsResult{Tools: s.listing}, nil
}

func (s *Server) callTool(ctx context.Context, req mcp.Request) (mcp.Result, error) {
	r, ok := req.(*mcp.CallToolRequest)
	if !ok || r.Params == nil {
		return nil, apperrors.New(apperrors.InvalidArgument, "missing tool call parameters")
	}

	h, ok := s.tools[r.Params.Name]
	if !ok {
		return nil, apperrors.New(apperrors.UnknownTool, fmt.Sprintf("unknown tool %q", r.Params.Name))
	}

	text, err := h(ctx, r.Params.Arguments)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil
}

func (s *Server) callQuery(ctx context.Context, raw json.RawMessage) (string, error) {
	statement, err := sqlArgument(raw)
	if err != nil {
		return "", err
	}
	return s.cfg.Querier.Execute(ctx, statement)
}

// sqlArgument extracts arguments.sql, which must be a JSON string.
func sqlArgument(raw json.RawMessage) (string, error) {
	var args map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &args) != nil || args == nil {
		return "", apperrors.New(apperrors.InvalidArgument, "arguments must be an object with a \"sql\" string")
	}
	v, ok := args["sql"]
	if !ok {
		return "", apperrors.New(apperrors.InvalidArgument, "arguments.sql is required")
	}
	statement, ok := v.(string)
	if !ok {
		return "", apperrors.New(apperrors.InvalidArgument, fmt.Sprintf("arguments.sql must be a string, got %T", v))
	}
	return statement, nil
}
