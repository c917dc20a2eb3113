package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dispatchPayload = `{"data":[
	{"telefone":"5511999990000","campanha":"Natal","template":"promo","status":"pendente","updated_at":"2024-01-15T10:00:05Z"},
	{"phone":"5511999990000","campaign":"Natal","template":"promo","status":"enviado","updated_at":"2024-01-15T10:02:00Z"}
]}`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReconcileStdinJSON(t *testing.T) {
	out, err := execute(t, dispatchPayload, "--entity", "dispatch")
	require.NoError(t, err)

	var snap struct {
		Entity  string           `json:"entity"`
		Input   int              `json:"input"`
		Records []map[string]any `json:"records"`
		Rollups []map[string]any `json:"rollups"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "dispatch", snap.Entity)
	assert.Equal(t, 2, snap.Input)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "sent", snap.Records[0]["sendStatus"])
	require.Len(t, snap.Rollups, 1)
	assert.EqualValues(t, 100, snap.Rollups[0]["progress_ratio"])
}

func TestReconcileFileTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.json")
	require.NoError(t, os.WriteFile(path, []byte(dispatchPayload), 0o600))

	out, err := execute(t, "", "-e", "dispatch", "-f", path, "--format", "table", "--timezone", "America/Sao_Paulo")
	require.NoError(t, err)

	assert.Contains(t, out, "dispatch: 2 input, 0 dropped, 1 reconciled")
	assert.Contains(t, out, "sendStatus")
	assert.Contains(t, out, "15/01/2024 07:02", "dates render in the chosen zone")
}

func TestReconcileErrors(t *testing.T) {
	_, err := execute(t, "[]")
	assert.Error(t, err, "entity is required")

	_, err = execute(t, "[]", "-e", "orders")
	assert.ErrorContains(t, err, "unknown entity")

	_, err = execute(t, "[]", "-e", "dispatch", "--timezone", "Mars/Olympus")
	assert.ErrorContains(t, err, "engine timezone")

	_, err = execute(t, "[]", "-e", "dispatch", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = execute(t, "", "-e", "dispatch", "-f", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read payload")
}
