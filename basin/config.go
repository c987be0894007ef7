package basin

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/jhiga488/Topographic-Analysis-Kit/grid"
	"github.com/jhiga488/Topographic-Analysis-Kit/ksn"
	"github.com/jhiga488/Topographic-Analysis-Kit/tem"
)

// Clip strategies.
const (
	ClipBasin   = "clip"    // re-derive flow routing on the cropped basin
	ClipSegment = "segment" // restrict the base network to the basin
)

// Concavity estimators.
const (
	ConcavitySlopeArea = "slopearea"
	ConcavityChi       = "chi"
)

// Record stores.
const (
	StoreGob    = "gob"
	StoreSQLite = "sqlite"
	StoreNone   = "none"
)

// Config holds the options of a pipeline run. It is fixed once the pipeline
// is built.
type Config struct {
	ThresholdArea    float64     `yaml:"threshold_area"`    // m²
	SegmentLength    float64     `yaml:"segment_length"`    // m
	RefConcavity     float64     `yaml:"ref_concavity"`     // θref
	KsnMethod        string      `yaml:"ksn_method"`        // quick|trib
	ClipMethod       string      `yaml:"clip_method"`       // clip|segment
	FlowConditioning string      `yaml:"flow_conditioning"` // fill|carve
	InterpFraction   float64     `yaml:"interp_fraction"`   // fill weight of along-stream conditioning
	GradientMethod   string      `yaml:"gradient_method"`
	ConcavityMethod  string      `yaml:"concavity_method"`
	MinTribArea      float64     `yaml:"min_trib_area"` // km²
	ReliefRadii      []float64   `yaml:"relief_radii"`  // m
	ResampleMethod   string      `yaml:"resample_method"`
	SnapRadius       float64     `yaml:"snap_radius"` // m
	HypsometryBins   int         `yaml:"hypsometry_bins"`
	Workers          int         `yaml:"workers"`
	Store            StoreConfig `yaml:"store"`
}

// StoreConfig selects where basin records are persisted.
type StoreConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

// DefaultConfig returns the default pipeline options.
func DefaultConfig() Config {
	return Config{
		ThresholdArea:    1e6,
		SegmentLength:    1000.,
		RefConcavity:     .5,
		KsnMethod:        ksn.QuickMethod,
		ClipMethod:       ClipBasin,
		FlowConditioning: tem.Fill,
		InterpFraction:   .1,
		GradientMethod:   grid.SteepestDescent,
		ConcavityMethod:  ConcavitySlopeArea,
		MinTribArea:      2.5,
		ResampleMethod:   grid.Nearest,
		HypsometryBins:   100,
		Workers:          1,
		Store:            StoreConfig{Kind: StoreNone},
	}
}

// Validate validates the configuration. Zero values of options that must be
// positive are rejected as blank.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.ThresholdArea, validation.Required, validation.Min(0.).Exclusive()),
		validation.Field(&c.SegmentLength, validation.Required, validation.Min(0.).Exclusive()),
		validation.Field(&c.RefConcavity, validation.Min(0.), validation.Max(1.)),
		validation.Field(&c.KsnMethod, validation.Required, validation.In(ksn.QuickMethod, ksn.TribMethod)),
		validation.Field(&c.ClipMethod, validation.Required, validation.In(ClipBasin, ClipSegment)),
		validation.Field(&c.FlowConditioning, validation.Required, validation.In(tem.Fill, tem.Carve)),
		validation.Field(&c.InterpFraction, validation.Min(0.), validation.Max(1.)),
		validation.Field(&c.GradientMethod, validation.Required, validation.In(grid.SteepestDescent, grid.PlaneFit)),
		validation.Field(&c.ConcavityMethod, validation.Required, validation.In(ConcavitySlopeArea, ConcavityChi)),
		validation.Field(&c.MinTribArea, validation.Min(0.)),
		validation.Field(&c.ReliefRadii, validation.Each(validation.Required, validation.Min(0.).Exclusive())),
		validation.Field(&c.ResampleMethod, validation.Required, validation.In(grid.Nearest, grid.Bilinear)),
		validation.Field(&c.SnapRadius, validation.Min(0.)),
		validation.Field(&c.HypsometryBins, validation.Required, validation.Min(2)),
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
	); err != nil {
		return err
	}
	return c.Store.Validate()
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Kind, validation.Required, validation.In(StoreGob, StoreSQLite, StoreNone)),
		validation.Field(&c.Path, validation.When(c.Kind != StoreNone, validation.Required)),
	)
}
