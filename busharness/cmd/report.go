package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sarchlab/busharness/datarecording"
	"github.com/sarchlab/busharness/harness"
	"github.com/sarchlab/busharness/tracing"
)

var reportCmd = &cobra.Command{
	Use:   "report <recording.sqlite3>",
	Short: "Summarize the transactions of a recorded run.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		s, err := summarize(cmd.Context(), reader)
		if err != nil {
			return err
		}

		s.print(cmd.OutOrStdout())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

type opSummary struct {
	Count        int
	TotalLatency int64
	MaxLatency   int64
}

type summary struct {
	RunID        string
	Outcome      string
	Transactions int
	Unfinished   int
	PerOp        map[string]*opSummary
}

func summarize(
	ctx context.Context,
	reader datarecording.DataReader,
) (summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	s := summary{PerOp: make(map[string]*opSummary)}

	reader.MapTable(harness.TransactionTableName, harness.TransactionEntry{})
	reader.MapTable(tracing.TaskTableName, tracing.TaskEntry{})
	reader.MapTable(datarecording.RunInfoTableName, datarecording.RunInfo{})

	infos, _, err := reader.Query(ctx, datarecording.RunInfoTableName,
		datarecording.QueryParams{
			Where: "Property = ?",
			Args:  []any{"Outcome"},
		})
	if err != nil {
		return s, err
	}

	for _, row := range infos {
		info := row.(*datarecording.RunInfo)
		s.RunID = info.RunID
		s.Outcome = info.Value
	}

	rows, total, err := reader.Query(ctx, harness.TransactionTableName,
		datarecording.QueryParams{OrderBy: "CompletedAt"})
	if err != nil {
		return s, err
	}

	s.Transactions = total

	for _, row := range rows {
		txn := row.(*harness.TransactionEntry)

		op, found := s.PerOp[txn.Op]
		if !found {
			op = &opSummary{}
			s.PerOp[txn.Op] = op
		}

		latency := txn.CompletedAt - txn.IssuedAt
		op.Count++
		op.TotalLatency += latency
		if latency > op.MaxLatency {
			op.MaxLatency = latency
		}
	}

	tasks, _, err := reader.Query(ctx, tracing.TaskTableName,
		datarecording.QueryParams{})
	if err != nil {
		return s, err
	}

	s.Unfinished = len(tasks) - total

	return s, nil
}

func (s summary) print(w io.Writer) {
	if s.RunID != "" {
		fmt.Fprintf(w, "Run %s: %s\n", s.RunID, s.Outcome)
	}

	fmt.Fprintf(w, "Transactions: %d\n", s.Transactions)

	if s.Unfinished > 0 {
		fmt.Fprintf(w, "Requests without response: %d\n", s.Unfinished)
	}

	ops := make([]string, 0, len(s.PerOp))
	for op := range s.PerOp {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	for _, name := range ops {
		op := s.PerOp[name]
		fmt.Fprintf(w, "%s: %d, average latency %.2f, max latency %d\n",
			name, op.Count,
			float64(op.TotalLatency)/float64(op.Count), op.MaxLatency)
	}
}
