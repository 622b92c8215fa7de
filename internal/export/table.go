package export

import (
	"fmt"
	"io"
	"math"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dgnsrekt/gexbot-analytics/internal/analysis"
	"github.com/dgnsrekt/gexbot-analytics/internal/batch"
	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
	"github.com/dgnsrekt/gexbot-analytics/internal/metrics"
	"github.com/dgnsrekt/gexbot-analytics/internal/move"
)

const notAvailable = "n/a"

type printer struct {
	p *message.Printer
}

func newPrinter() printer {
	return printer{p: message.NewPrinter(language.English)}
}

func (pr printer) amount(v float64) string {
	return pr.p.Sprintf("%.0f", v)
}

func (pr printer) price(v float64) string {
	return pr.p.Sprintf("%.2f", v)
}

func (pr printer) count(v int64) string {
	return pr.p.Sprintf("%d", v)
}

func (pr printer) pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func (pr printer) metric(f metrics.Float, format string) string {
	v := float64(f)
	switch {
	case !f.Defined():
		return notAvailable
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return pr.p.Sprintf(format, v)
}

func (pr printer) level(v *float64) string {
	if v == nil {
		return "none"
	}
	return pr.price(*v)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	return t
}

func writeTable(w io.Writer, v any) error {
	switch t := v.(type) {
	case *analysis.Report:
		return reportTable(w, t)
	case *batch.BatchResult:
		return batchTable(w, t)
	case chain.Summary:
		return chainSummaryTable(w, t)
	case move.ExpectedMove:
		return expectedMoveTable(w, t)
	case move.Move:
		return moveTable(w, t)
	default:
		return fmt.Errorf("%w: no table layout for %T", ErrUnsupportedFormat, v)
	}
}

func reportTable(w io.Writer, r *analysis.Report) error {
	pr := newPrinter()

	title := r.Symbol
	if title == "" {
		title = "chain"
	}
	fmt.Fprintf(w, "Gamma exposure: %s @ %s (%s, %s)\n\n", title, pr.price(r.Spot), r.SignConvention, r.ID)

	m, env := r.Metrics, r.Environment
	t := newTable(w, "Metric", "Value")
	t.AppendBulk([][]string{
		{"Environment", string(env.Environment)},
		{"Strength", pr.metric(env.Strength, "%.4f") + " (" + string(env.StrengthLevel) + ")"},
		{"Gamma flip", pr.level(env.GammaFlipLevel)},
		{"Dominant flip", pr.level(r.Diagnostics.DominantFlipLevel)},
		{"Net gamma", pr.amount(m.TotalNetGamma)},
		{"Call gamma", pr.amount(m.TotalCallGamma)},
		{"Put gamma", pr.amount(m.TotalPutGamma)},
		{"Call/put ratio", pr.metric(m.CallPutGammaRatio, "%.3f")},
		{"Weighted strike", pr.metric(m.GammaWeightedAvgStrike, "%.2f")},
		{"Net std dev", pr.amount(m.NetGammaStdDev)},
		{"Open interest", pr.count(m.TotalOpenInterest)},
		{"Strikes", pr.count(int64(m.StrikeCount))},
		{"Contracts", fmt.Sprintf("%d accepted, %d rejected", r.Accepted, len(r.Rejected))},
	})
	t.Render()
	fmt.Fprintf(w, "%s\n\n", env.Description)

	walls := r.Walls.All()
	if len(walls) > 0 {
		t = newTable(w, "Wall", "Rank", "Strike", "Exposure", "Distance")
		for _, wl := range walls {
			t.Append([]string{
				string(wl.Type),
				fmt.Sprintf("%d", wl.SignificanceRank),
				pr.price(wl.Strike),
				pr.amount(wl.ExposureValue),
				pr.price(wl.DistanceFromSpot),
			})
		}
		t.Render()
		fmt.Fprintln(w)
	}

	if err := expectedMoveTable(w, r.ExpectedMove); err != nil {
		return err
	}
	fmt.Fprintln(w)

	t = newTable(w, "Strike", "Call GEX", "Put GEX", "Net GEX", "OI")
	for _, s := range r.Strikes {
		t.Append([]string{
			pr.price(s.Strike),
			pr.amount(s.CallGammaExposure),
			pr.amount(s.PutGammaExposure),
			pr.amount(s.NetGammaExposure),
			pr.count(s.TotalOpenInterest),
		})
	}
	t.Render()
	return nil
}

func moveTable(w io.Writer, m move.Move) error {
	pr := newPrinter()
	t := newTable(w, "Range", "Lower", "Upper", "Move", "Move %", "Probability")
	t.Append([]string{"1 SD", pr.price(m.Lower1SD), pr.price(m.Upper1SD), pr.price(m.Move1SD), pr.pct(m.MovePct1SD), pr.pct(m.Probability1SD)})
	t.Append([]string{"2 SD", pr.price(m.Lower2SD), pr.price(m.Upper2SD), pr.price(m.Move2SD), pr.pct(m.MovePct2SD), pr.pct(m.Probability2SD)})
	t.Render()
	return nil
}

func expectedMoveTable(w io.Writer, em move.ExpectedMove) error {
	fmt.Fprintf(w, "Expected move: IV %.2f%% over %.1f days (ATM %d of %d contracts, closest strike %.2f)\n",
		em.ImpliedVol*100, em.DaysToExpiry, em.ATM.ATMContracts, em.ATM.TotalContracts, em.ATM.ClosestStrike)
	return moveTable(w, em.Move)
}

func chainSummaryTable(w io.Writer, s chain.Summary) error {
	pr := newPrinter()
	t := newTable(w, "Field", "Value")
	t.AppendBulk([][]string{
		{"Contracts", pr.count(int64(s.Contracts))},
		{"Calls / puts", fmt.Sprintf("%d / %d", s.Calls, s.Puts)},
		{"Unique strikes", pr.count(int64(s.UniqueStrikes))},
		{"Strike range", pr.price(s.MinStrike) + " - " + pr.price(s.MaxStrike)},
		{"Open interest", pr.count(s.OpenInterest)},
		{"Average IV", pr.pct(s.AverageIV * 100)},
	})
	t.Render()

	if len(s.Expiries) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	t = newTable(w, "Expiry", "DTE", "Trading days", "Contracts", "OI")
	for _, e := range s.Expiries {
		expiry := e.ExpiryDate
		if expiry == "" {
			expiry = notAvailable
		}
		t.Append([]string{
			expiry,
			fmt.Sprintf("%.0f", e.DaysToExpiry),
			fmt.Sprintf("%d", e.TradingDays),
			pr.count(int64(e.Contracts)),
			pr.count(e.OpenInterest),
		})
	}
	t.Render()
	return nil
}

func batchTable(w io.Writer, r *batch.BatchResult) error {
	pr := newPrinter()
	t := newTable(w, "Symbol", "Spot", "Environment", "Strength", "Net GEX", "Flip", "Call wall", "Put wall", "1SD move")
	for _, s := range r.Summaries {
		t.Append([]string{
			s.Symbol,
			pr.price(s.Spot),
			s.Environment,
			s.StrengthLevel,
			pr.amount(s.TotalNetGamma),
			pr.level(s.GammaFlipLevel),
			pr.level(s.TopCallWall),
			pr.level(s.TopPutWall),
			pr.pct(s.MovePct1SD),
		})
	}
	t.Render()

	fmt.Fprintf(w, "\n%d files: %d analyzed, %d failed\n", r.Total, r.Success, r.Failed)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  - %s: %s\n", e.Path, e.Error)
	}
	return nil
}
