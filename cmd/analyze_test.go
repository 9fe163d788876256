package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nsxbet/sql-optimizer/pkg/analyzer"
	"github.com/nsxbet/sql-optimizer/pkg/complexity"
	"github.com/nsxbet/sql-optimizer/pkg/rules"
	"github.com/nsxbet/sql-optimizer/pkg/types"
)

func init() {
	color.NoColor = true
}

func testReport(t *testing.T, query string) analysisReport {
	t.Helper()
	result := analyzer.AnalyzeQuery(query, "mysql")
	require.NotNil(t, result)
	return analysisReport{
		AnalysisResult:  *result,
		ComplexityLevel: types.ComplexityLevel(result.ComplexityScore),
	}
}

func TestOutputResult(t *testing.T) {
	report := testReport(t, "SELECT * FROM users WHERE UPPER(name) = 'JOHN'")

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, outputResult(&buf, report, "json"))

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "mysql", decoded["dialect"])
		assert.Equal(t, "Simple", decoded["complexity_level"])
		assert.NotEmpty(t, decoded["suggestions"])
		assert.NotContains(t, decoded, "score_breakdown")
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, outputResult(&buf, report, "yaml"))

		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "mysql", decoded["dialect"])
		assert.Contains(t, decoded, "complexity_score")
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, outputResult(&buf, report, "text"))

		out := buf.String()
		assert.Contains(t, out, "[HIGH] Non-SARGable condition detected")
		assert.Contains(t, out, "[MEDIUM] Avoid SELECT *")
		assert.Contains(t, out, "Complexity: 1 (Simple)")
		assert.Contains(t, out, "Execution plan tips:")
	})

	t.Run("unsupported", func(t *testing.T) {
		assert.Error(t, outputResult(&bytes.Buffer{}, report, "xml"))
	})
}

func TestOutputResult_SyntaxError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, outputResult(&buf, testReport(t, "selet * from users;"), "text"))

	out := buf.String()
	assert.Contains(t, out, "[SYNTAX ERROR]")
	assert.Contains(t, out, "syntax errors")
	assert.NotContains(t, out, "Execution plan tips:")
}

func TestOutputResult_Breakdown(t *testing.T) {
	report := testReport(t, "SELECT id FROM users WHERE id = 1")
	report.ScoreBreakdown = &complexity.Factors{Joins: 2}

	var buf bytes.Buffer
	require.NoError(t, outputResult(&buf, report, "text"))
	assert.Contains(t, buf.String(), "joins=2")
}

func TestReadQuery(t *testing.T) {
	newCmd := func(stdin string) *cobra.Command {
		c := &cobra.Command{}
		c.Flags().StringP("query", "q", "", "")
		c.SetIn(strings.NewReader(stdin))
		return c
	}

	t.Run("flag", func(t *testing.T) {
		c := newCmd("")
		require.NoError(t, c.Flags().Set("query", "SELECT 1"))
		q, err := readQuery(c, nil)
		require.NoError(t, err)
		assert.Equal(t, "SELECT 1", q)
	})

	t.Run("flag and file", func(t *testing.T) {
		c := newCmd("")
		require.NoError(t, c.Flags().Set("query", "SELECT 1"))
		_, err := readQuery(c, []string{"query.sql"})
		assert.Error(t, err)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "query.sql")
		require.NoError(t, os.WriteFile(path, []byte("SELECT 2"), 0o600))
		q, err := readQuery(newCmd(""), []string{path})
		require.NoError(t, err)
		assert.Equal(t, "SELECT 2", q)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readQuery(newCmd(""), []string{filepath.Join(t.TempDir(), "nope.sql")})
		assert.Error(t, err)
	})

	t.Run("stdin", func(t *testing.T) {
		q, err := readQuery(newCmd("SELECT 3"), nil)
		require.NoError(t, err)
		assert.Equal(t, "SELECT 3", q)
	})
}

func TestOutputRules(t *testing.T) {
	list := rules.Default().Rules()

	var buf bytes.Buffer
	require.NoError(t, outputRules(&buf, list, "text"))
	assert.Contains(t, buf.String(), "performance.select-star")
	assert.Contains(t, buf.String(), "18 rules")

	buf.Reset()
	require.NoError(t, outputRules(&buf, list, "json"))
	var decoded map[string][]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded["rules"], len(list))

	assert.Error(t, outputRules(&bytes.Buffer{}, list, "csv"))
}
