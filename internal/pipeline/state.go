package pipeline

// State is a pipeline state. Names are used as metric labels.
type State string

const (
	StateReceived      State = "received"
	StateParsed        State = "parsed"
	StatePricingFound  State = "pricing_found"
	StatePriceResolved State = "price_resolved"
	StateDiscountKnown State = "discount_known"
	StateFormatted     State = "formatted"

	StateRepliedWithHint  State = "replied_with_hint"
	StateRepliedNotFound  State = "replied_not_found"
	StateRepliedNoPrice   State = "replied_no_price"
	StateRepliedDataError State = "replied_data_error"
	StateCompleted        State = "completed"
	StateFailed           State = "failed"
)

func (s State) String() string { return string(s) }

// Terminal reports whether no further transition leaves s.
func (s State) Terminal() bool {
	switch s {
	case StateRepliedWithHint, StateRepliedNotFound, StateRepliedNoPrice,
		StateRepliedDataError, StateCompleted, StateFailed:
		return true
	}
	return false
}
