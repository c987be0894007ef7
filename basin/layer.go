package basin

import "github.com/jhiga488/Topographic-Analysis-Kit/grid"

// Kind of an auxiliary layer.
type Kind int

const (
	Continuous  Kind = iota // summarised by mean/std/se/min/max
	Categorical             // summarised by majority class and class fractions
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "continuous"
}

// Layer is an auxiliary grid summarised over every basin under Label.
type Layer struct {
	Label string
	Grid  *grid.Grid
	Kind  Kind
}
