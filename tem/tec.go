package tem

// TEC is one cell of the topologic elevation model: its conditioned
// elevation and the D8 link to its receiver.
type TEC struct {
	Z  float64 // conditioned elevation
	S  float64 // slope to receiver, non-negative
	L  float64 // link length to receiver; 0 at outlets
	ds int
}

func link(z, s, l float64, ds int) TEC {
	if ds < 0 {
		return TEC{Z: z, ds: -1}
	}
	return TEC{Z: z, S: s, L: l, ds: ds}
}

// IsOutlet reports whether the cell drains off the model.
func (c TEC) IsOutlet() bool { return c.ds < 0 }
