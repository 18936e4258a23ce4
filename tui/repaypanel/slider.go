package repaypanel

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sliderMarks are the labelled stops under the percentage slider.
var sliderMarks = []float64{0, 25, 50, 75, 100}

const (
	sliderStep  = 5
	sliderWidth = 41
)

// snapStep moves p by delta slider steps, landing on a multiple of the step.
func snapStep(p float64, delta int) float64 {
	next := math.Round(p/sliderStep)*sliderStep + float64(delta*sliderStep)
	return math.Max(0, math.Min(100, next))
}

func renderSlider(p float64, focused bool) string {
	filled := int(math.Round(p / 100 * float64(sliderWidth-1)))
	var b strings.Builder
	for i := 0; i < sliderWidth; i++ {
		switch {
		case i == filled:
			b.WriteString("●")
		case i < filled:
			b.WriteString("━")
		default:
			b.WriteString("─")
		}
	}
	style := sliderStyle
	if focused {
		style = sliderFocusedStyle
	}
	return style.Render(b.String()) + fmt.Sprintf(" %3.0f%%", p)
}

func renderMarks() string {
	line := []rune(strings.Repeat(" ", sliderWidth+4))
	for _, mark := range sliderMarks {
		label := fmt.Sprintf("%.0f%%", mark)
		pos := int(math.Round(mark / 100 * float64(sliderWidth-1)))
		pos -= len(label) / 2
		if pos < 0 {
			pos = 0
		}
		if pos+len(label) > len(line) {
			pos = len(line) - len(label)
		}
		copy(line[pos:], []rune(label))
	}
	return markStyle.Render(strings.TrimRight(string(line), " "))
}

var (
	sliderStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sliderFocusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	markStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)
