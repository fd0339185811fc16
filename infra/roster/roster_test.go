package roster

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/groupbalance/core/model"
)

func write(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

var want = []model.Entry{{ID: "Ada", Score: 91.5}, {ID: "Ben", Score: 72}, {ID: "Cy", Score: 80}}

func TestLoadCSVWithHeader(t *testing.T) {
	path := write(t, "class.csv", "Name,AVG\nAda,91.5\nBen, 72\nCy,80,extra\n")
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadCSVWithoutHeader(t *testing.T) {
	got, err := ReadCSV(strings.NewReader("Ada,91.5\nBen,72\nCy,80\n"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("id,score\nAda,abc\n"))
	assert.Error(t, err)
	_, err = ReadCSV(strings.NewReader("Ada\n"))
	assert.Error(t, err)
	_, err = ReadCSV(strings.NewReader("Ada,NaN\n"))
	assert.Error(t, err)
}

func TestLoadYAML(t *testing.T) {
	path := write(t, "class.yaml", `entries:
  - id: Ada
    score: 91.5
  - id: Ben
    score: 72
  - id: Cy
    score: 80
`)
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadJSON(t *testing.T) {
	path := write(t, "class.json", `{"entries":[{"id":"Ada","score":91.5},{"id":"Ben","score":72},{"id":"Cy","score":80}]}`)
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadRejectsMissingScore(t *testing.T) {
	_, err := Load(write(t, "class.yaml", "entries:\n  - id: Ada\n    score: 91.5\n  - id: Ben\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 1: score is missing")

	_, err = Load(write(t, "class.json", `{"entries":[{"id":"Ada"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 0: score is missing")

	got, err := Load(write(t, "zero.json", `{"entries":[{"id":"Ada","score":0}]}`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got[0].Score)
}

func TestLoadEmptyAndUnsupported(t *testing.T) {
	_, err := Load(write(t, "empty.csv", "id,score\n"))
	assert.True(t, errors.Is(err, ErrEmpty))
	_, err = Load(write(t, "class.xlsx", "binary"))
	assert.Error(t, err)
	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
