package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xavl/bench"
)

func TestCSVSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink := NewCSVSink(dir, "results.csv")
	results := testResults("csv-run")

	require.NoError(t, sink.Save(context.Background(), results))
	loaded, err := ReadCSVBeneath(dir, "results.csv")
	require.NoError(t, err)
	require.Equal(t, results, loaded)

	// Saving again replaces the file.
	require.NoError(t, sink.Save(context.Background(), results[:1]))
	loaded, err = ReadCSVBeneath(dir, "results.csv")
	require.NoError(t, err)
	require.Equal(t, results[:1], loaded)

	data, err := os.ReadFile(filepath.Join(dir, "results.csv"))
	require.NoError(t, err)
	require.Equal(t,
		"run_id,kind,size,trials,avg_path_cost,avg_promotions,avg_inversions,max_path_cost\n"+
			"csv-run,sorted,222,20,221,430.5,0,221\n",
		string(data),
	)
}

func TestCSVSink_Escape(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, NewCSVSink(dir, "../escaped.csv").Save(context.Background(), nil))
	_, err := ReadCSVBeneath(dir, "../escaped.csv")
	require.Error(t, err)
	_, err = ReadCSVBeneath(dir, "missing.csv")
	require.Error(t, err)
}

func TestCSVSink_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, NewCSVSink(t.TempDir(), "x.csv").Save(ctx, nil), context.Canceled)
}

func TestReadCSV_Malformed(t *testing.T) {
	testcases := []struct {
		name string
		data string
		msg  string
	}{
		{"empty", "", "read csv header"},
		{"header", "a,b,c,d,e,f,g,h\n", "column 0"},
		{"fields", strings.Join(csvHeader, ",") + "\nr,sorted,1\n", "read csv"},
		{"number", strings.Join(csvHeader, ",") + "\nr,sorted,x,1,1,1,1,1\n", "csv line 2"},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			_, err := ReadCSV(strings.NewReader(tc.data))
			require.ErrorContains(tt, err, tc.msg)
		})
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []bench.Result{}))
	results, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Empty(t, results)
}
