package backtest

// Side identifies the held exposure. Exactly one value holds at any
// time: no hedging, no stacking.
type Side int8

const (
	None  Side = 0
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	switch s {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return "NONE"
	}
}
