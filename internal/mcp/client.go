// Package mcp connects to Model Context Protocol servers and exposes
// their tools to the agent.
//
// A [Source] owns one client session to an external MCP server, usually
// a subprocess spoken to over stdio. [Source.Tools] lists the server's
// tools and wraps each one as a dispatchable tool; executing a wrapped
// tool forwards the call over the session and returns the server's text
// content. The server's listed input schema is advertised to the model.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/skein-ai/skein/internal/log"
	"github.com/skein-ai/skein/internal/tools"
)

// ServerConfig describes how to reach one MCP server.
type ServerConfig struct {
	// Name identifies the server in logs and tool name prefixes.
	Name string

	// Command and Args launch the server subprocess (stdio transport).
	Command string
	Args    []string

	// Env adds environment variables to the subprocess, "KEY=value".
	// The parent environment is inherited either way.
	Env []string
}

// Source is a live connection to one MCP server.
type Source struct {
	name    string
	session *mcp.ClientSession
	logger  log.Logger
}

// Connect launches the configured server and performs the MCP handshake.
// The returned Source must be closed when the tools are no longer needed;
// closing ends the session and reaps the subprocess.
func Connect(ctx context.Context, cfg ServerConfig, logger log.Logger) (*Source, error) {
	if cfg.Name == "" {
		return nil, errors.New("mcp: server name is required")
	}
	if cfg.Command == "" {
		return nil, errors.New("mcp: server command is required")
	}
	if logger == nil {
		return nil, errors.New("mcp: logger is required")
	}

	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Env = append(os.Environ(), cfg.Env...)

	session, err := connect(ctx, &mcp.CommandTransport{Command: cmd})
	if err != nil {
		return nil, fmt.Errorf("connecting to mcp server %s: %w", cfg.Name, err)
	}

	logger.Debug("connected to mcp server", "name", cfg.Name, "command", cfg.Command)
	return &Source{name: cfg.Name, session: session, logger: logger}, nil
}

// connectSource builds a Source over an arbitrary transport. Used by
// tests with in-memory transports.
func connectSource(ctx context.Context, name string, transport mcp.Transport, logger log.Logger) (*Source, error) {
	session, err := connect(ctx, transport)
	if err != nil {
		return nil, fmt.Errorf("connecting to mcp server %s: %w", name, err)
	}
	return &Source{name: name, session: session, logger: logger}, nil
}

func connect(ctx context.Context, transport mcp.Transport) (*mcp.ClientSession, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "skein",
		Version: "1.0.0",
	}, nil)
	return client.Connect(ctx, transport, nil)
}

// Close ends the session.
func (s *Source) Close() error {
	return s.session.Close()
}

// Tools lists the server's tools, each wrapped for agent dispatch.
// Wrapped tool names are prefixed with the server name ("notes_search"
// for tool "search" on server "notes") so multiple servers cannot
// collide in one registry.
func (s *Source) Tools(ctx context.Context) ([]tools.Tool, error) {
	res, err := s.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing tools on %s: %w", s.name, err)
	}

	wrapped := make([]tools.Tool, 0, len(res.Tools))
	for _, t := range res.Tools {
		wrapped = append(wrapped, &serverTool{
			source:      s,
			remoteName:  t.Name,
			name:        s.name + "_" + t.Name,
			description: t.Description,
			schema:      t.InputSchema,
		})
	}

	s.logger.Debug("listed mcp tools", "server", s.name, "count", len(wrapped))
	return wrapped, nil
}

// call forwards one tool invocation over the session and flattens the
// result's text content. A result flagged IsError becomes a Go error so
// the dispatch layer records it as a recoverable tool failure.
func (s *Source) call(ctx context.Context, remoteName string, args map[string]any) (string, error) {
	res, err := s.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      remoteName,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("calling %s on %s: %w", remoteName, s.name, err)
	}

	text := flattenContent(res.Content)
	if res.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		return "", fmt.Errorf("%s: %s", remoteName, text)
	}
	return text, nil
}

func flattenContent(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok && tc.Text != "" {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// toArguments normalizes a dispatch payload into the argument map the
// protocol expects.
func toArguments(input any) (map[string]any, error) {
	switch v := input.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case json.RawMessage:
		return unmarshalArguments(v)
	case []byte:
		return unmarshalArguments(v)
	case string:
		if strings.TrimSpace(v) == "" {
			return map[string]any{}, nil
		}
		return unmarshalArguments([]byte(v))
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding tool arguments: %w", err)
		}
		return unmarshalArguments(b)
	}
}

func unmarshalArguments(raw []byte) (map[string]any, error) {
	args := map[string]any{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return args, nil
}
