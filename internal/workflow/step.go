package workflow

// Step identifies one of the five demo lifecycle steps. Steps 2-5 depend on
// step 1 having produced an active bond; step 5 additionally depends on the
// price observed in step 4.
type Step int

const (
	StepIssue Step = iota + 1
	StepAccrue
	StepCoupon
	StepObserve
	StepConvert
)

// Steps lists all steps in lifecycle order.
var Steps = []Step{StepIssue, StepAccrue, StepCoupon, StepObserve, StepConvert}

func (s Step) String() string {
	switch s {
	case StepIssue:
		return "issue"
	case StepAccrue:
		return "accrue"
	case StepCoupon:
		return "pay_coupon"
	case StepObserve:
		return "observe_price"
	case StepConvert:
		return "convert"
	default:
		return "unknown"
	}
}

// ParseStep resolves a step name as used on the CLI.
func ParseStep(name string) (Step, bool) {
	for _, s := range Steps {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}
