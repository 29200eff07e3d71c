package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/safeopen"
	"go.uber.org/multierr"

	"github.com/benz9527/xavl/bench"
	"github.com/benz9527/xavl/lib/infra"
)

var _ bench.Sink = (*CSVSink)(nil)

var csvHeader = []string{
	"run_id",
	"kind",
	"size",
	"trials",
	"avg_path_cost",
	"avg_promotions",
	"avg_inversions",
	"max_path_cost",
}

// CSVSink writes the results of a run to Dir/File, replacing the file.
// The file name is resolved beneath Dir and may not escape it.
type CSVSink struct {
	Dir  string
	File string
}

func NewCSVSink(dir, file string) *CSVSink {
	return &CSVSink{Dir: dir, File: file}
}

func (s *CSVSink) Save(ctx context.Context, results []bench.Result) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = os.MkdirAll(s.Dir, 0o755); err != nil {
		return infra.WrapErrorStackWithMessage(err, "[report] csv dir")
	}
	f, err := safeopen.OpenFileBeneath(s.Dir, s.File, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "[report] open csv")
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return WriteCSV(f, results)
}

func WriteCSV(w io.Writer, results []bench.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, res := range results {
		record := []string{
			res.RunID,
			string(res.Kind),
			strconv.Itoa(res.Size),
			strconv.Itoa(res.Trials),
			strconv.FormatFloat(res.AvgPathCost, 'g', -1, 64),
			strconv.FormatFloat(res.AvgPromotions, 'g', -1, 64),
			strconv.FormatFloat(res.AvgInversions, 'g', -1, 64),
			strconv.FormatInt(res.MaxPathCost, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSVBeneath loads a file written by CSVSink.
func ReadCSVBeneath(dir, file string) (_ []bench.Result, err error) {
	f, err := safeopen.OpenBeneath(dir, file)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[report] open csv")
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return ReadCSV(f)
}

var errCSVHeader = errors.New("unexpected csv header")

func ReadCSV(r io.Reader) ([]bench.Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	header, err := cr.Read()
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[report] read csv header")
	}
	for i, name := range csvHeader {
		if header[i] != name {
			return nil, infra.WrapErrorStackWithMessage(errCSVHeader, fmt.Sprintf("[report] column %d is %q", i, header[i]))
		}
	}

	results := make([]bench.Result, 0, 32)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, infra.WrapErrorStackWithMessage(err, "[report] read csv")
		}
		res, err := parseRecord(record)
		if err != nil {
			return nil, infra.WrapErrorStackWithMessage(err, fmt.Sprintf("[report] csv line %d", line))
		}
		results = append(results, res)
	}
	return results, nil
}

func parseRecord(record []string) (res bench.Result, err error) {
	var err2 error
	res.RunID = record[0]
	res.Kind = bench.InputKind(record[1])
	res.Size, err2 = strconv.Atoi(record[2])
	err = multierr.Append(err, err2)
	res.Trials, err2 = strconv.Atoi(record[3])
	err = multierr.Append(err, err2)
	res.AvgPathCost, err2 = strconv.ParseFloat(record[4], 64)
	err = multierr.Append(err, err2)
	res.AvgPromotions, err2 = strconv.ParseFloat(record[5], 64)
	err = multierr.Append(err, err2)
	res.AvgInversions, err2 = strconv.ParseFloat(record[6], 64)
	err = multierr.Append(err, err2)
	res.MaxPathCost, err2 = strconv.ParseInt(record[7], 10, 64)
	err = multierr.Append(err, err2)
	return res, err
}
