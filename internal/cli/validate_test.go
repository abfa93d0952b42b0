package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pullgraph/internal/query"
)

func TestValidateCommand_Valid(t *testing.T) {
	out, _, err := execute(t, "", "validate", "[:a {:b [:c]}]")
	require.NoError(t, err)
	assert.Equal(t, "✓ Query valid\n", out)
}

func TestValidateCommand_ValidJSON(t *testing.T) {
	out, _, err := execute(t, "", "validate", "--format", "json", "[:a]")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Empty(t, resp.Data.Errors)
}

func TestValidateCommand_ParseErrorHasPosition(t *testing.T) {
	out, _, err := execute(t, "", "validate", "[{:friends 0}]")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "1:12\n")
	assert.Contains(t, out, "E004: recursion depth must be at least 1, got 0")
}

func TestValidateCommand_ParseErrorJSON(t *testing.T) {
	out, _, err := execute(t, "", "validate", "--format", "json", "[:a\n (launch!)\n {:b [(nested!)]}]")
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, ErrCodeParseFailed, resp.Data.Errors[0].Code)
	assert.Equal(t, 3, resp.Data.Errors[0].Line)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeParseFailed, resp.Error.Code)
}

func TestValidateCommand_BadGraph(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root: [unclosed"), 0644))

	out, _, err := execute(t, "", "validate", "--graph", path, "[:a]")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E006: ")
}

func TestValidateCommand_GoodGraph(t *testing.T) {
	out, _, err := execute(t, "", "validate", "--graph", "testdata/people.yaml", "[:app/title]")
	require.NoError(t, err)
	assert.Equal(t, "✓ Query valid\n", out)
}

func TestValidateCommand_MissingGraph(t *testing.T) {
	out, _, err := execute(t, "", "validate", "--graph", "/nonexistent/graph.yaml", "[:a]")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "graph file not found")
}

func TestValidationIssues(t *testing.T) {
	q := query.Query{
		query.Prop{Key: query.AttrKey("")},
		query.RecursiveJoin{Key: query.AttrKey("friends")},
	}

	issues := validationIssues(query.Validate(q))
	require.Len(t, issues, 2)
	for _, issue := range issues {
		assert.Equal(t, ErrCodeInvalidQuery, issue.Code)
		assert.NotEmpty(t, issue.Path)
		assert.NotEmpty(t, issue.Message)
	}
	assert.Equal(t, "[0]", issues[0].Path)
	assert.Equal(t, "[1]", issues[1].Path)
}

func TestValidationIssues_PlainError(t *testing.T) {
	assert.Nil(t, validationIssues(nil))

	issues := validationIssues(multierror.Append(nil, errors.New("odd")))
	require.Len(t, issues, 1)
	assert.Equal(t, "odd", issues[0].Message)
	assert.Empty(t, issues[0].Path)
}

func TestValidationIssue_Location(t *testing.T) {
	assert.Equal(t, "2:5", ValidationIssue{Line: 2, Column: 5, Path: "[0]"}.location())
	assert.Equal(t, "[0].friends", ValidationIssue{Path: "[0].friends"}.location())
	assert.Equal(t, "", ValidationIssue{}.location())
}
