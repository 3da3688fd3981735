package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Pharbi/arachnid/types"
)

// resolveSandboxPath joins path onto sandboxRoot (or treats it as
// sandbox-absolute if it starts with "/"), then refuses any result that
// escapes sandboxRoot after Clean-ing ".." segments away.
func resolveSandboxPath(sandboxRoot, path string) (string, error) {
	full := filepath.Join(sandboxRoot, path)
	cleanRoot := filepath.Clean(sandboxRoot)
	cleanFull := filepath.Clean(full)
	if cleanFull != cleanRoot && !strings.HasPrefix(cleanFull, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("tools: path escapes sandbox: %s", path)
	}
	return cleanFull, nil
}

type readFileTool struct {
	sandboxRoot string
}

func (t *readFileTool) Kind() types.ToolKind { return types.ToolReadFile }
func (t *readFileTool) Name() string         { return "read_file" }
func (t *readFileTool) Description() string {
	return "Read contents of a file within the sandbox. Path must be relative to sandbox root or absolute within sandbox."
}

func (t *readFileTool) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Path to the file (relative to sandbox or absolute)",
			},
		},
		"required": []string{"path"},
	}
}

func (t *readFileTool) Execute(_ context.Context, params map[string]any, _ ToolContext) (types.ToolResult, error) {
	path, _ := params["path"].(string)
	if path == "" {
		return failedResult(types.ToolReadFile, "missing path parameter"), nil
	}
	resolved, err := resolveSandboxPath(t.sandboxRoot, path)
	if err != nil {
		return failedResult(types.ToolReadFile, err.Error()), nil
	}
	content, err := os.ReadFile(resolved)
	if err != nil {
		return failedResult(types.ToolReadFile, err.Error()), nil
	}
	return types.ToolResult{
		Tool:    types.ToolReadFile,
		Success: true,
		Output: map[string]any{
			"path":    path,
			"content": string(content),
			"size":    len(content),
		},
	}, nil
}

type writeFileTool struct {
	sandboxRoot string
}

func (t *writeFileTool) Kind() types.ToolKind { return types.ToolWriteFile }
func (t *writeFileTool) Name() string         { return "write_file" }
func (t *writeFileTool) Description() string {
	return "Write content to a file within the sandbox. Creates parent directories if needed. Can append or overwrite."
}

func (t *writeFileTool) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string", "description": "Path to the file (relative to sandbox or absolute)"},
			"content": map[string]any{"type": "string", "description": "Content to write to the file"},
			"append":  map[string]any{"type": "boolean", "description": "Append instead of overwriting (default: false)", "default": false},
		},
		"required": []string{"path", "content"},
	}
}

func (t *writeFileTool) Execute(_ context.Context, params map[string]any, _ ToolContext) (types.ToolResult, error) {
	path, _ := params["path"].(string)
	content, _ := params["content"].(string)
	if path == "" || content == "" {
		return failedResult(types.ToolWriteFile, "missing path or content parameter"), nil
	}
	append_, _ := params["append"].(bool)

	resolved, err := resolveSandboxPath(t.sandboxRoot, path)
	if err != nil {
		return failedResult(types.ToolWriteFile, err.Error()), nil
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return failedResult(types.ToolWriteFile, err.Error()), nil
	}

	if append_ {
		f, err := os.OpenFile(resolved, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return failedResult(types.ToolWriteFile, err.Error()), nil
		}
		defer f.Close()
		if _, err := f.WriteString(content); err != nil {
			return failedResult(types.ToolWriteFile, err.Error()), nil
		}
	} else if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return failedResult(types.ToolWriteFile, err.Error()), nil
	}

	return types.ToolResult{
		Tool:    types.ToolWriteFile,
		Success: true,
		Output: map[string]any{
			"path":     path,
			"size":     len(content),
			"appended": append_,
		},
	}, nil
}

func failedResult(kind types.ToolKind, message string) types.ToolResult {
	return types.ToolResult{Tool: kind, Success: false, Error: message}
}
