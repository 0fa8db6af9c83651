package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/phrazzld/careerpath-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tablePath = "../../configs/scoring_table.json"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestValidate(t *testing.T) {
	t.Run("shipped table", func(t *testing.T) {
		out, err := execute(t, "validate", tablePath)
		require.NoError(t, err)
		assert.Contains(t, out, "OK "+tablePath)
		assert.Contains(t, out, "questions:")
	})

	t.Run("yaml fixture", func(t *testing.T) {
		out, err := execute(t, "validate", "../../internal/scoring/testdata/table.yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "Critical Thinking can never score above 0")
		assert.NotContains(t, out, "Teamwork can never")
	})

	t.Run("unknown trait", func(t *testing.T) {
		path := writeFile(t, "bad.json", `{"q1":{"Juggling":{"A":1}}}`)
		_, err := execute(t, "validate", path)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
		assert.ErrorContains(t, err, "Juggling")
	})

	t.Run("requires a path", func(t *testing.T) {
		_, err := execute(t, "validate")
		assert.Error(t, err)
	})
}

func TestScore(t *testing.T) {
	answers := writeFile(t, "answers.json", `{"question1":"D"}`)

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "score", "--table", tablePath, answers)
		require.NoError(t, err)
		assert.Contains(t, out, "Analytical Thinking")
		assert.Regexp(t, `Analytical Thinking\s+\d+\.\d{2}  \(3/`, out)
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "score", "-t", tablePath, "--json", answers)
		require.NoError(t, err)

		var breakdown []domain.TraitScore
		require.NoError(t, json.Unmarshal([]byte(out), &breakdown))
		assert.Len(t, breakdown, len(domain.TraitNames()))
		for _, ts := range breakdown {
			if ts.Name == "Analytical Thinking" {
				assert.Equal(t, 3.0, ts.Raw)
			}
		}
	})

	t.Run("empty answers score zero", func(t *testing.T) {
		empty := writeFile(t, "empty.json", `{}`)
		out, err := execute(t, "score", "--table", tablePath, "--json", empty)
		require.NoError(t, err)

		var breakdown []domain.TraitScore
		require.NoError(t, json.Unmarshal([]byte(out), &breakdown))
		for _, ts := range breakdown {
			assert.Zero(t, ts.Normalized, ts.Name)
		}
	})

	t.Run("answers not an object", func(t *testing.T) {
		list := writeFile(t, "list.json", `["A"]`)
		_, err := execute(t, "score", "--table", tablePath, list)
		assert.ErrorIs(t, err, domain.ErrInvalidAnswers)
	})

	t.Run("missing table", func(t *testing.T) {
		_, err := execute(t, "score", "--table", "nope.json", answers)
		assert.Error(t, err)
	})
}
