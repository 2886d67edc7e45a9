package workflow

import "bond-lifecycle-demo/internal/valuation"

// Figures assembles the valuation set for normalized display: present value
// and accrued interest whenever a bond snapshot is held, plus the derived
// conversion value once one has been observed.
func (s Session) Figures() []valuation.Figure {
	if s.Bond == nil {
		return nil
	}

	figures := []valuation.Figure{
		{Label: "Bond Present Value", Value: s.Bond.PresentValue},
		{Label: "Accrued Interest", Value: s.Bond.AccruedInterest},
	}
	if s.ConversionValue != nil {
		figures = append(figures, valuation.Figure{Label: "Conversion Value", Value: *s.ConversionValue})
	}
	return figures
}
