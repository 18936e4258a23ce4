package repay

// InputType names the control that was edited last and is therefore
// authoritative for the repay amount.
type InputType int

const (
	// InputText means the numeric amount field was edited last.
	InputText InputType = iota
	// InputSlider means the percentage slider was edited last.
	InputSlider
)

func (t InputType) String() string {
	switch t {
	case InputSlider:
		return "slider"
	default:
		return "text"
	}
}

// Input keeps the free-text amount and the percentage slider describing one
// logical repay amount in sync. The zero value is not usable; call NewInput.
// Input is owned by a single panel and is not safe for concurrent use.
type Input struct {
	text         string
	percentage   float64
	lastEdited   InputType
	borrowAmount float64
}

// NewInput returns an empty input measured against borrowAmount, expressed in
// human readable token units.
func NewInput(borrowAmount float64) *Input {
	return &Input{borrowAmount: borrowAmount, lastEdited: InputText}
}

// Text returns the amount field exactly as last set.
func (in *Input) Text() string { return in.text }

// Percentage returns the slider position in [0, 100].
func (in *Input) Percentage() float64 { return in.percentage }

// LastEdited returns the authoritative control.
func (in *Input) LastEdited() InputType { return in.lastEdited }

// BorrowAmount returns the current baseline.
func (in *Input) BorrowAmount() float64 { return in.borrowAmount }

// SetText stores text verbatim and moves the slider to match. While the text
// does not parse the slider keeps its previous position.
func (in *Input) SetText(text string) {
	in.text = text
	in.lastEdited = InputText
	in.syncPercentage()
}

// SetPercentage moves the slider, clamped into [0, 100], and rewrites the
// amount field to match.
func (in *Input) SetPercentage(percentage float64) {
	in.percentage = clampPercentage(percentage)
	in.lastEdited = InputSlider
	in.text = ToAmountText(in.percentage, in.borrowAmount)
}

// SetBorrowAmount replaces the baseline and recomputes whichever
// representation is not authoritative.
func (in *Input) SetBorrowAmount(borrowAmount float64) {
	in.borrowAmount = borrowAmount
	switch in.lastEdited {
	case InputSlider:
		in.text = ToAmountText(in.percentage, in.borrowAmount)
	default:
		in.syncPercentage()
	}
}

// Clear empties the amount field and resets the slider.
func (in *Input) Clear() {
	in.text = ""
	in.percentage = 0
	in.lastEdited = InputText
}

func (in *Input) syncPercentage() {
	percentage, err := ToPercentage(in.text, in.borrowAmount)
	if err != nil {
		return
	}
	in.percentage = clampPercentage(percentage)
}

func clampPercentage(p float64) float64 {
	switch {
	case p != p: // NaN
		return 0
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
