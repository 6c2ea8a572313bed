package replay

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/erain9/tickbook/pkg/feed"
	"github.com/fatih/color"
)

// Counts tallies what a replay did, summed over iterations
type Counts struct {
	Buys         int
	Sells        int
	Cancels      int
	CancelMisses int
	Rejected     int
	Fills        int
}

// Latency summarises one action kind's latency distribution
type Latency struct {
	Count int64
	Mean  time.Duration
	P50   time.Duration
	P99   time.Duration
	P999  time.Duration
	Max   time.Duration
}

// Report is the outcome of a replay run
type Report struct {
	RunID      string
	Book       string
	Actions    int
	Iterations int
	Counts     Counts
	Traded     uint64
	// Resting is the number of orders left on the book after the last iteration
	Resting  int
	Duration time.Duration

	histograms map[feed.Kind]*hdrhistogram.Histogram
}

func newReport(runID, book string, actions int) *Report {
	return &Report{
		RunID:   runID,
		Book:    book,
		Actions: actions,
		histograms: map[feed.Kind]*hdrhistogram.Histogram{
			feed.KindBuy:    newHistogram(),
			feed.KindSell:   newHistogram(),
			feed.KindCancel: newHistogram(),
		},
	}
}

func (r *Report) add(it *iteration) {
	r.Iterations++
	r.Counts.Buys += it.counts.Buys
	r.Counts.Sells += it.counts.Sells
	r.Counts.Cancels += it.counts.Cancels
	r.Counts.CancelMisses += it.counts.CancelMisses
	r.Counts.Rejected += it.counts.Rejected
	r.Counts.Fills += it.counts.Fills
	r.Traded += it.traded
	r.Resting = it.book.Len()
}

func (r *Report) recordLatency(kind feed.Kind, d time.Duration) {
	h, ok := r.histograms[kind]
	if !ok {
		return
	}
	v := int64(d)
	if v < minLatency {
		v = minLatency
	}
	if v > maxLatency {
		v = maxLatency
	}
	_ = h.RecordValue(v)
}

// Latency returns the latency summary of one action kind
func (r *Report) Latency(kind feed.Kind) Latency {
	h, ok := r.histograms[kind]
	if !ok {
		return Latency{}
	}
	return summarize(h)
}

// Overall returns the latency summary across all action kinds
func (r *Report) Overall() Latency {
	all := newHistogram()
	for _, h := range r.histograms {
		all.Merge(h)
	}
	return summarize(all)
}

func summarize(h *hdrhistogram.Histogram) Latency {
	if h.TotalCount() == 0 {
		return Latency{}
	}
	return Latency{
		Count: h.TotalCount(),
		Mean:  time.Duration(h.Mean()),
		P50:   time.Duration(h.ValueAtQuantile(50)),
		P99:   time.Duration(h.ValueAtQuantile(99)),
		P999:  time.Duration(h.ValueAtQuantile(99.9)),
		Max:   time.Duration(h.Max()),
	}
}

// Throughput returns actions per second over the whole run
func (r *Report) Throughput() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Actions*r.Iterations) / r.Duration.Seconds()
}

// Print writes a human readable summary
func (r *Report) Print(w io.Writer) error {
	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(w, "%s %s (book %s)\n", cyan("Replay"), r.RunID, r.Book)
	fmt.Fprintf(w, "  actions     %d x %d iterations in %v\n", r.Actions, r.Iterations, r.Duration.Round(time.Microsecond))
	fmt.Fprintf(w, "  throughput  %s actions/s\n", green(fmt.Sprintf("%.0f", r.Throughput())))
	fmt.Fprintf(w, "  orders      %d buys, %d sells\n", r.Counts.Buys, r.Counts.Sells)
	fmt.Fprintf(w, "  cancels     %d (%d missed)\n", r.Counts.Cancels, r.Counts.CancelMisses)
	if r.Counts.Rejected > 0 {
		fmt.Fprintf(w, "  rejected    %s\n", red(r.Counts.Rejected))
	}
	fmt.Fprintf(w, "  fills       %d, traded %d, resting %d\n", r.Counts.Fills, r.Traded, r.Resting)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\taction\tcount\tmean\tp50\tp99\tp99.9\tmax\t")
	for _, kind := range []feed.Kind{feed.KindBuy, feed.KindSell, feed.KindCancel} {
		writeLatency(tw, kind.String(), r.Latency(kind))
	}
	writeLatency(tw, "all", r.Overall())
	return tw.Flush()
}

func writeLatency(w io.Writer, name string, l Latency) {
	fmt.Fprintf(w, "\t%s\t%d\t%v\t%v\t%v\t%v\t%v\t\n", name, l.Count, l.Mean, l.P50, l.P99, l.P999, l.Max)
}
