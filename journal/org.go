package journal

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/template"
	"time"
)

var runOrgFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"factor": func(x float64) string {
		if math.IsInf(x, 1) {
			return "inf"
		}
		return fmt.Sprintf("%.2f", x)
	},
}

var runOrg = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// OrgRun is the data rendered by RunOrgTemplate.
type OrgRun struct {
	RunRecord
	TradeList []TradeRecord
}

// WriteRunOrg renders a run and its trades as an Org-mode document.
func WriteRunOrg(w io.Writer, run RunRecord, trades []TradeRecord) error {
	if err := runOrg.Execute(w, OrgRun{RunRecord: run, TradeList: trades}); err != nil {
		return err
	}
	if len(trades) == 0 {
		return nil
	}
	_, err := io.WriteString(w, "\n"+FormatTradesOrg(trades)+"\n")
	return err
}

// SaveRunOrg writes the Org document for a run to path.
func SaveRunOrg(path string, run RunRecord, trades []TradeRecord) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteRunOrg(fh, run, trades); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

const RunOrgTemplate = `* BACKTEST: {{.Strategy}} {{.Asset}}
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:STRATEGY:    {{.Strategy}}
:ASSET:       {{.Asset}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:BARS:        {{.Bars}}
:START_CAP:   {{printf "%.2f" .InitialCapital}}
:END_CAP:     {{printf "%.2f" .FinalCapital}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" .WinRate}}
:PROFIT_FAC:  {{factor .ProfitFactor}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Configuration
{{- if .Config}}
#+begin_src yaml
{{printf "%s" .Config}}
#+end_src
{{- else}}
# (no configuration recorded)
{{- end}}

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Sharpe Ratio:     *{{printf "%.2f" .SharpeRatio}}*
- Max Drawdown:     *{{printf "%.2f" .MaxDrawdown}} ({{printf "%.2f" .MaxDDPct}}%)*
- Win Rate:         *{{printf "%.2f" .WinRate}}%*
- Avg Win / Loss:   *{{printf "%.2f" .AvgWin}} / {{printf "%.2f" .AvgLoss}}*
- Profit Factor:    *{{factor .ProfitFactor}}*
- Commission:       *{{printf "%.2f" .Commission}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |
{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`

// FormatTradeOrg renders a TradeRecord as an Org-mode block with the facts in
// a PROPERTIES drawer and empty narrative sections.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("** Trade: %s %s (%s)", t.Asset, t.Direction, shortID(t.TradeID))
	open := t.OpenTime.UTC().Format(time.RFC3339)
	close := t.CloseTime.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.TradeID))
	b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", t.RunID))
	b.WriteString(fmt.Sprintf(":ASSET: %s\n", t.Asset))
	b.WriteString(fmt.Sprintf(":DIRECTION: %s\n", t.Direction))
	b.WriteString(fmt.Sprintf(":QUANTITY: %.4f\n", t.Quantity))
	b.WriteString(fmt.Sprintf(":ENTRY_PRICE: %.5f\n", t.EntryPrice))
	b.WriteString(fmt.Sprintf(":EXIT_PRICE: %.5f\n", t.ExitPrice))
	b.WriteString(fmt.Sprintf(":OPEN_TIME: %s\n", open))
	b.WriteString(fmt.Sprintf(":CLOSE_TIME: %s\n", close))
	b.WriteString(fmt.Sprintf(":PNL: %.2f\n", t.PnL))
	b.WriteString(fmt.Sprintf(":PNL_PCT: %.2f\n", t.PnLPercent))
	b.WriteString(fmt.Sprintf(":COMMISSION: %.2f\n", t.Commission))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Execution\n- \n\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
