// Package register writes the MCP client configuration entry that starts
// this server.
package register

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

type mcpServerEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Scope selects which MCP client config file receives the entry.
type Scope string

const (
	// ScopeProject writes <directory>/.mcp.json.
	ScopeProject Scope = "project"
	// ScopeUser writes ~/.claude.json.
	ScopeUser Scope = "user"
)

// ErrUnknownScope is returned for scopes other than project and user.
var ErrUnknownScope = errors.New(`unknown scope (must be "project" or "user")`)

// ParseScope validates a scope argument.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeProject, ScopeUser:
		return Scope(s), nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownScope)
}

// Options describes one registration.
type Options struct {
	Scope      Scope
	Directory  string   // project scope only; defaults to "."
	ServerName string   // defaults to the binary name without -mcp
	BinaryPath string   // defaults to the running executable
	ServerArgs []string // forwarded to the server on every start
}

// Register adds or replaces the server entry and returns the config file
// it wrote.
func Register(opts Options) (string, error) {
	if _, err := ParseScope(string(opts.Scope)); err != nil {
		return "", err
	}

	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		var err error
		binaryPath, err = detectBinaryPath()
		if err != nil {
			return "", fmt.Errorf("detecting binary path: %w", err)
		}
	}
	serverName := opts.ServerName
	if serverName == "" {
		serverName = DeriveServerName(binaryPath)
	}
	directory := opts.Directory
	if directory == "" {
		directory = "."
	}

	configPath, err := resolveConfigPath(opts.Scope, directory)
	if err != nil {
		return "", fmt.Errorf("resolving config path: %w", err)
	}

	entry := buildEntry(binaryPath, opts.ServerArgs)
	if err := writeConfig(configPath, serverName, entry); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return configPath, nil
}

// DeriveServerName extracts a server name from a binary path by stripping .exe and -mcp suffixes.
func DeriveServerName(binaryPath string) string {
	name := filepath.Base(binaryPath)
	name = strings.TrimSuffix(name, ".exe")
	name = strings.TrimSuffix(name, "-mcp")
	return name
}

func detectBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("getting executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", exe, err)
	}
	return resolved, nil
}

func resolveConfigPath(scope Scope, directory string) (string, error) {
	if scope == ScopeProject {
		absDir, err := filepath.Abs(directory)
		if err != nil {
			return "", fmt.Errorf("resolving directory %s: %w", directory, err)
		}
		return filepath.Join(absDir, ".mcp.json"), nil
	}
	// user scope
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".claude.json"), nil
}

func buildEntry(binaryPath string, serverArgs []string) mcpServerEntry {
	if runtime.GOOS == "windows" {
		args := []string{"/C", binaryPath}
		args = append(args, serverArgs...)
		return mcpServerEntry{
			Command: "cmd",
			Args:    args,
		}
	}
	return mcpServerEntry{
		Command: binaryPath,
		Args:    serverArgs,
	}
}

func writeConfig(configPath string, serverName string, entry mcpServerEntry) error {
	// Read existing config or start fresh
	config := map[string]interface{}{
		"mcpServers": map[string]interface{}{},
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		// File exists, parse it
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parsing existing config %s: %w", configPath, err)
		}
	}

	// Ensure mcpServers key exists
	servers, ok := config["mcpServers"]
	if !ok {
		servers = map[string]interface{}{}
		config["mcpServers"] = servers
	}

	serversMap, ok := servers.(map[string]interface{})
	if !ok {
		return fmt.Errorf("mcpServers in %s is not an object", configPath)
	}

	// Add/update the server entry
	serversMap[serverName] = entry

	// Write back
	output, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	output = append(output, '\n')

	// Atomic write: write to temp file in same directory, then rename
	configDir := filepath.Dir(configPath)
	tmpFile, err := os.CreateTemp(configDir, ".mcp-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", configDir, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(output); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s to %s: %w", tmpPath, configPath, err)
	}

	return nil
}
