package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"bond-lifecycle-demo/internal/valuation"
	"bond-lifecycle-demo/internal/workflow"
)

// renderSession prints the current session view: bond snapshot, normalized
// valuation shares, the last oracle quote, and the event timeline.
func renderSession(w io.Writer, sess workflow.Session) error {
	fmt.Fprintf(w, "\n=== %s ===\n", strings.ToUpper(sess.Step.String()))

	if sess.Bond == nil {
		fmt.Fprintln(w, "no bond in session")
		return nil
	}

	bond := sess.Bond.Bond
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Bond\t%s\n", bond.ID)
	fmt.Fprintf(writer, "State\t%s\n", bond.State)
	fmt.Fprintf(writer, "Principal\t%s\n", bond.Principal)
	fmt.Fprintf(writer, "Coupon\t%s%%\n", bond.CouponRate.Percent().StringFixed(2))
	fmt.Fprintf(writer, "Maturity\t%s\n", bond.MaturityDate.UTC().Format("2006-01-02"))
	fmt.Fprintf(writer, "Conversion price\t%s\n", bond.ConversionPrice)
	fmt.Fprintf(writer, "Conversion ratio\t%s\n", bond.ConversionRatio.String())
	writer.Flush()

	if err := renderValuation(w, sess); err != nil {
		return err
	}

	if sess.Price != nil {
		fmt.Fprintf(w, "\nObserved price: %s via %s (%s) at %s\n",
			sess.Price.Price,
			sess.Price.Source,
			sess.Price.Chain,
			sess.Price.Timestamp.UTC().Format(time.RFC3339),
		)
	}

	renderEvents(w, sess)
	return nil
}

func renderValuation(w io.Writer, sess workflow.Session) error {
	figures := sess.Figures()
	if len(figures) == 0 {
		return nil
	}

	shares, err := valuation.Normalize(figures)
	if err != nil {
		// Mixed currencies: show raw figures without proportions rather
		// than computing proportions across incompatible units.
		fmt.Fprintf(w, "\nValuation (proportions unavailable: %v)\n", err)
		for _, f := range figures {
			fmt.Fprintf(w, "  %-20s %s\n", f.Label, f.Value)
		}
		return nil
	}

	fmt.Fprintln(w, "\nValuation")
	for _, share := range shares {
		fmt.Fprintf(w, "  %-20s %16s  %s%% %s\n",
			share.Label,
			share.Value.Amount.StringFixed(2)+" "+share.Value.Currency,
			share.Pct.StringFixed(1),
			bar(share.Pct.IntPart()),
		)
	}
	return nil
}

func renderEvents(w io.Writer, sess workflow.Session) {
	if len(sess.Events) == 0 {
		return
	}

	fmt.Fprintln(w, "\nEvents")
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, ev := range sess.Events {
		fmt.Fprintf(writer, "  %s\t%s\t%s\t%s\n",
			ev.Timestamp.UTC().Format(time.RFC3339),
			ev.Type,
			ev.BondID,
			summarizeData(ev.Data),
		)
	}
	writer.Flush()
}

// summarizeData flattens an event payload to one line. Unrecognised payloads
// are shown as raw JSON, truncated.
func summarizeData(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	flat := strings.Join(strings.Fields(string(data)), " ")
	if len(flat) > 80 {
		return flat[:77] + "..."
	}
	return flat
}

func bar(pct int64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return strings.Repeat("#", int(pct/5))
}
