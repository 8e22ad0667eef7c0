package config

import "fmt"

// MCPServerConfig describes one external MCP server launched over
// stdio. Declared in config.yaml:
//
//	mcp_servers:
//	  - name: notes
//	    command: npx
//	    args: ["-y", "@acme/notes-mcp"]
//	    env: ["NOTES_TOKEN=..."]
type MCPServerConfig struct {
	Name    string   `mapstructure:"name" json:"name"`
	Command string   `mapstructure:"command" json:"command"`
	Args    []string `mapstructure:"args" json:"args"`
	Env     []string `mapstructure:"env" json:"env"`
}

func (c MCPServerConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMCPServer)
	}
	if c.Command == "" {
		return fmt.Errorf("%w: command is required for server %q", ErrInvalidMCPServer, c.Name)
	}
	return nil
}
