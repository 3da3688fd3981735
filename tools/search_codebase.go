package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Pharbi/arachnid/types"
)

const maxSearchCodebaseMatches = 50

// searchMatch is one regex hit within the sandbox.
type searchMatch struct {
	FilePath    string `json:"file_path"`
	LineNumber  int    `json:"line_number"`
	LineContent string `json:"line_content"`
}

type searchCodebaseTool struct {
	sandboxRoot string
}

func (t *searchCodebaseTool) Kind() types.ToolKind { return types.ToolSearchCodebase }
func (t *searchCodebaseTool) Name() string         { return "search_codebase" }
func (t *searchCodebaseTool) Description() string {
	return "Search code within the sandbox with a regular expression, optionally scoped to a filename glob."
}

func (t *searchCodebaseTool) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pattern":      map[string]any{"type": "string", "description": "Regular expression to search for"},
			"file_pattern": map[string]any{"type": "string", "description": "Optional filename glob to restrict the search to"},
		},
		"required": []string{"pattern"},
	}
}

func (t *searchCodebaseTool) Execute(_ context.Context, params map[string]any, _ ToolContext) (types.ToolResult, error) {
	pattern, _ := params["pattern"].(string)
	if pattern == "" {
		return failedResult(types.ToolSearchCodebase, "missing pattern parameter"), nil
	}
	filePattern, _ := params["file_pattern"].(string)

	re, err := regexp.Compile(pattern)
	if err != nil {
		return failedResult(types.ToolSearchCodebase, fmt.Sprintf("invalid pattern: %v", err)), nil
	}

	matches, err := t.search(re, filePattern)
	if err != nil {
		return failedResult(types.ToolSearchCodebase, err.Error()), nil
	}

	return types.ToolResult{
		Tool:    types.ToolSearchCodebase,
		Success: true,
		Output: map[string]any{
			"matches": matches,
			"count":   len(matches),
		},
	}, nil
}

func (t *searchCodebaseTool) search(re *regexp.Regexp, filePattern string) ([]searchMatch, error) {
	var matches []searchMatch
	err := filepath.WalkDir(t.sandboxRoot, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || len(matches) >= maxSearchCodebaseMatches {
			return nil
		}
		if filePattern != "" {
			if ok, _ := filepath.Match(filePattern, d.Name()); !ok {
				return nil
			}
		}
		return scanFileForMatches(path, re, &matches)
	})
	return matches, err
}

func scanFileForMatches(path string, re *regexp.Regexp, matches *[]searchMatch) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // unreadable files (binary, permissions) are skipped, not fatal
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if len(*matches) >= maxSearchCodebaseMatches {
			break
		}
		line := scanner.Text()
		if re.MatchString(line) {
			*matches = append(*matches, searchMatch{FilePath: path, LineNumber: lineNum, LineContent: line})
		}
	}
	return nil
}
