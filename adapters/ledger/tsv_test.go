package ledger

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decaylab/domain/result"
)

func sampleRow(it int, method result.Method, valid bool, b, tau float64) result.Row {
	row := result.NewRow(it, method, valid)
	row.Values[result.ParamB] = b
	row.Values[result.ParamTau] = tau
	row.Errors[result.ParamB] = 0.1
	row.Errors[result.ParamTau] = 0.05
	return row
}

func TestTSVStore_RoundTrip(t *testing.T) {
	store := NewTSVStore(filepath.Join(t.TempDir(), "results.tsv"))
	ctx := context.Background()

	first := []result.Row{
		sampleRow(0, result.MethodTruth, true, 2.0, 1.0),
		sampleRow(0, result.MethodNoWeights, true, 2.3456789012345, 0.987654321),
	}
	require.NoError(t, store.Append(ctx, first))

	// A second append must not rewrite the header.
	second := []result.Row{sampleRow(1, result.MethodTruth, true, 2.0, 1.0)}
	require.NoError(t, store.Append(ctx, second))

	rows, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, result.MethodNoWeights, rows[1].Method)
	assert.Equal(t, 0, rows[1].Iteration)
	assert.True(t, rows[1].Valid)
	assert.Equal(t, 2.3456789012345, rows[1].Values[result.ParamB])
	assert.Equal(t, 0.987654321, rows[1].Values[result.ParamTau])
	assert.Equal(t, 0.1, rows[1].Errors[result.ParamB])

	assert.Equal(t, 1, rows[2].Iteration)
}

func TestTSVStore_InvalidRowsCarryNaN(t *testing.T) {
	store := NewTSVStore(filepath.Join(t.TempDir(), "results.tsv"))
	ctx := context.Background()

	row := result.NewRow(0, result.MethodQFactor, false)
	row.Values[result.ParamB] = math.NaN()
	row.Values[result.ParamTau] = math.NaN()
	row.Errors[result.ParamB] = math.NaN()
	row.Errors[result.ParamTau] = math.NaN()
	require.NoError(t, store.Append(ctx, []result.Row{row}))

	rows, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Valid)
	assert.True(t, math.IsNaN(rows[0].Values[result.ParamB]))
	assert.True(t, math.IsNaN(rows[0].Errors[result.ParamTau]))
}

func TestTSVStore_LoadMissingFile(t *testing.T) {
	store := NewTSVStore(filepath.Join(t.TempDir(), "absent.tsv"))
	_, err := store.Load(context.Background())
	require.Error(t, err)
}
