// Package register wires the binary into an MCP client configuration so the
// client can launch it in serve mode. Two scopes exist: "project" writes
// <directory>/.mcp.json, "user" writes ~/.claude.json. Arguments after a
// "--" separator are forwarded to serve mode verbatim.
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

// mcpServerEntry is the launch spec an MCP client reads for one server.
type mcpServerEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Run handles the register subcommand. serverName becomes the entry key in
// the client config; args holds everything after "register" on the command
// line. Exits non-zero on failure.
func Run(serverName string, args []string) {
	if err := run(serverName, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		printUsage()
		os.Exit(1)
	}
}

func run(serverName string, args []string) error {
	if len(args) == 0 {
		return errors.New("missing scope")
	}

	scope := args[0]
	var directory string
	var serverArgs []string
	switch scope {
	case "project":
		directory, serverArgs = parseProjectArgs(args[1:])
	case "user":
		serverArgs = parseUserArgs(args[1:])
	default:
		return fmt.Errorf("unknown scope %q, want \"project\" or \"user\"", scope)
	}

	binaryPath, err := executablePath()
	if err != nil {
		return err
	}
	configPath, err := resolveConfigPath(scope, directory)
	if err != nil {
		return err
	}

	if err := writeConfig(configPath, serverName, buildEntry(binaryPath, serverArgs)); err != nil {
		return err
	}

	fmt.Printf("Registered %q in %s\n", serverName, configPath)
	return nil
}

func printUsage() {
	binaryName := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  %s register project [directory]   writes <directory>/.mcp.json (default: .)\n", binaryName)
	fmt.Fprintf(os.Stderr, "  %s register user                  writes ~/.claude.json\n", binaryName)
	fmt.Fprintf(os.Stderr, "Append \"-- <flags>\" to either form to forward flags to serve mode.\n")
}

// DeriveServerName turns a binary path into a server name: basename with
// any .exe and -mcp suffixes stripped, in that order.
func DeriveServerName(binaryPath string) string {
	name := filepath.Base(binaryPath)
	name = strings.TrimSuffix(name, ".exe")
	return strings.TrimSuffix(name, "-mcp")
}

// splitServerArgs cuts an argument list at the "--" separator. The tail is
// what gets forwarded to serve mode.
func splitServerArgs(args []string) (own []string, serverArgs []string) {
	for i, arg := range args {
		if arg == "--" {
			return args[:i], args[i+1:]
		}
	}
	return args, nil
}

func parseProjectArgs(args []string) (directory string, serverArgs []string) {
	own, serverArgs := splitServerArgs(args)
	directory = "."
	if len(own) > 0 {
		directory = own[0]
	}
	return directory, serverArgs
}

func parseUserArgs(args []string) []string {
	_, serverArgs := splitServerArgs(args)
	return serverArgs
}

// executablePath resolves the running binary through any symlinks, so the
// registered entry keeps working after the symlink moves.
func executablePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", exe, err)
	}
	return resolved, nil
}

func resolveConfigPath(scope string, directory string) (string, error) {
	if scope == "project" {
		absDir, err := filepath.Abs(directory)
		if err != nil {
			return "", fmt.Errorf("resolving directory %s: %w", directory, err)
		}
		return filepath.Join(absDir, ".mcp.json"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(homeDir, ".claude.json"), nil
}

// buildEntry assembles the launch command. The entry always starts the
// binary with the serve subcommand; forwarded flags follow it. On Windows
// the command goes through cmd /C so .exe resolution matches the shell.
func buildEntry(binaryPath string, serverArgs []string) mcpServerEntry {
	args := append([]string{"serve"}, serverArgs...)
	if runtime.GOOS == "windows" {
		return mcpServerEntry{
			Command: "cmd",
			Args:    append([]string{"/C", binaryPath}, args...),
		}
	}
	return mcpServerEntry{
		Command: binaryPath,
		Args:    args,
	}
}

// writeConfig upserts one server entry, leaving every other key in the
// config untouched. A file that exists but cannot be parsed is an error,
// never a silent overwrite.
func writeConfig(configPath string, serverName string, entry mcpServerEntry) error {
	config, err := readConfig(configPath)
	if err != nil {
		return err
	}

	servers, ok := config["mcpServers"].(map[string]interface{})
	if !ok {
		if _, present := config["mcpServers"]; present {
			return fmt.Errorf("mcpServers in %s is not an object", configPath)
		}
		servers = map[string]interface{}{}
		config["mcpServers"] = servers
	}
	servers[serverName] = entry

	output, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return replaceFile(configPath, append(output, '\n'))
}

func readConfig(configPath string) (map[string]interface{}, error) {
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]interface{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", configPath, err)
	}

	var config map[string]interface{}
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configPath, err)
	}
	if config == nil {
		config = map[string]interface{}{}
	}
	return config, nil
}

// replaceFile writes via temp-and-rename in the target directory, so a
// crash mid-write never leaves a truncated client config behind.
func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".register-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
