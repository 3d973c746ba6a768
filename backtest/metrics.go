package backtest

// Summary aggregates a finished run. All fields are derived; computing
// it twice from the same inputs gives the same answer.
type Summary struct {
	TotalPnL    float64
	TotalPnLPct float64

	Trades int
	Wins   int
	Losses int

	WinRate float64 // fraction of trades with pnl > 0; breakeven counts as a loss
	AvgWin  float64
	AvgLoss float64 // mean of losing pnl, stays negative

	MaxDrawdown    float64 // largest peak-to-trough equity drop, absolute
	MaxDrawdownPct float64 // same drop as a fraction of its peak
}

// Summarize reduces a trade log and equity curve to a Summary. It is a
// pure function of its inputs: zero trades yield zero rates rather than
// NaN, and an empty curve yields zero drawdown.
func Summarize(initial, final float64, trades []TradeRecord, equity []EquityPoint) Summary {
	s := Summary{
		TotalPnL: final - initial,
		Trades:   len(trades),
	}
	if initial != 0 {
		s.TotalPnLPct = s.TotalPnL / initial
	}

	var winSum, lossSum float64
	for _, t := range trades {
		if t.PnL > 0 {
			s.Wins++
			winSum += t.PnL
		} else {
			s.Losses++
			lossSum += t.PnL
		}
	}
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades)
	}
	if s.Wins > 0 {
		s.AvgWin = winSum / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = lossSum / float64(s.Losses)
	}

	var peak float64
	for i, p := range equity {
		if i == 0 || p.Equity > peak {
			peak = p.Equity
		}
		dd := peak - p.Equity
		if dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
			if peak != 0 {
				s.MaxDrawdownPct = dd / peak
			}
		}
	}
	return s
}
