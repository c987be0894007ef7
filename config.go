package tak

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/maseology/mmio"
	"gopkg.in/yaml.v3"

	"github.com/jhiga488/Topographic-Analysis-Kit/basin"
)

// LoadConfig reads pipeline options over the defaults. Files ending in .yaml
// or .yml are YAML with environment variables expanded; anything else is a
// control file of key/value instructions using the same option names.
func LoadConfig(fp string) (basin.Config, error) {
	cfg := basin.DefaultConfig()
	if _, ok := mmio.FileExists(fp); !ok {
		return cfg, fmt.Errorf("config file not found: %s", fp)
	}
	switch strings.ToLower(filepath.Ext(fp)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(fp)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file %s: %w", fp, err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", fp, err)
		}
	default:
		if err := readControl(fp, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func readControl(fp string, cfg *basin.Config) error {
	ins := mmio.NewInstruct(fp)
	stErr := make([]string, 0)
	get := func(k string) (string, bool) {
		if v, ok := ins.Param[k]; ok && len(v) > 0 {
			return strings.TrimSpace(v[0]), true
		}
		return "", false
	}
	flt := func(k string, dst *float64) {
		if s, ok := get(k); ok {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				stErr = append(stErr, fmt.Sprintf("failed to read '%s': %v", k, err))
				return
			}
			*dst = f
		}
	}
	itg := func(k string, dst *int) {
		if s, ok := get(k); ok {
			i, err := strconv.Atoi(s)
			if err != nil {
				stErr = append(stErr, fmt.Sprintf("failed to read '%s': %v", k, err))
				return
			}
			*dst = i
		}
	}
	str := func(k string, dst *string) {
		if s, ok := get(k); ok {
			*dst = strings.ToLower(s)
		}
	}

	flt("threshold_area", &cfg.ThresholdArea)
	flt("segment_length", &cfg.SegmentLength)
	flt("ref_concavity", &cfg.RefConcavity)
	str("ksn_method", &cfg.KsnMethod)
	str("clip_method", &cfg.ClipMethod)
	str("flow_conditioning", &cfg.FlowConditioning)
	flt("interp_fraction", &cfg.InterpFraction)
	str("gradient_method", &cfg.GradientMethod)
	str("concavity_method", &cfg.ConcavityMethod)
	flt("min_trib_area", &cfg.MinTribArea)
	str("resample_method", &cfg.ResampleMethod)
	flt("snap_radius", &cfg.SnapRadius)
	itg("hypsometry_bins", &cfg.HypsometryBins)
	itg("workers", &cfg.Workers)
	str("store_kind", &cfg.Store.Kind)
	if s, ok := get("store_path"); ok {
		cfg.Store.Path = s
	}
	if rr, ok := ins.Param["relief_radii"]; ok {
		cfg.ReliefRadii = cfg.ReliefRadii[:0]
		for _, s := range rr {
			for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					stErr = append(stErr, fmt.Sprintf("failed to read 'relief_radii': %v", err))
					continue
				}
				cfg.ReliefRadii = append(cfg.ReliefRadii, v)
			}
		}
	}
	if len(stErr) > 0 {
		return fmt.Errorf("control file %s:\n  %s", fp, strings.Join(stErr, "\n  "))
	}
	return nil
}
