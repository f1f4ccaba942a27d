package runner

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/ugorji/go/codec"
)

// Report is the outcome of a load test.
type Report struct {
	RunID string

	// Nodes are the node accounts, by id.
	Nodes []string

	Before []int
	After  []int
	Delta  []int
	Total  int

	// Rounds is the number of completed rounds and Sent the number of
	// transactions submitted.
	Rounds int
	Sent   int

	// Period is the time budget in seconds.
	Period float64
}

// NewReport computes the per-node deltas and their sum.
func NewReport(nodes []string, before, after []int, rounds, sent int, period time.Duration) *Report {
	r := &Report{
		RunID:  uuid.New().String(),
		Nodes:  nodes,
		Before: before,
		After:  after,
		Delta:  make([]int, len(before)),
		Rounds: rounds,
		Sent:   sent,
		Period: period.Seconds(),
	}
	for i := range before {
		r.Delta[i] = after[i] - before[i]
		r.Total += r.Delta[i]
	}
	return r
}

// Print writes a human readable summary.
func (r *Report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	fmt.Fprintf(tw, "run\t%s\n", r.RunID)
	fmt.Fprintf(tw, "period\t%.0fs\n", r.Period)
	fmt.Fprintf(tw, "rounds\t%d\n", r.Rounds)
	fmt.Fprintf(tw, "sent\t%d\n\n", r.Sent)

	fmt.Fprintln(tw, "node\taccount\tbefore\tafter\tdelta")
	for i := range r.Delta {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n", i, r.Nodes[i], r.Before[i], r.After[i], r.Delta[i])
	}
	fmt.Fprintf(tw, "total\t\t\t\t%d\n", r.Total)

	return tw.Flush()
}

// Marshal encodes the report as canonical JSON.
func (r *Report) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(r); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// ReadReport decodes a report written by WriteFile.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	r := new(Report)
	jh := new(codec.JsonHandle)
	dec := codec.NewDecoder(bytes.NewBuffer(data), jh)
	if err := dec.Decode(r); err != nil {
		return nil, err
	}

	return r, nil
}

// WriteFile writes the JSON encoding of the report to path.
func (r *Report) WriteFile(path string) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
