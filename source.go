package tak

import (
	"fmt"
	"strings"

	"github.com/maseology/mmio"

	"github.com/jhiga488/Topographic-Analysis-Kit/basin"
	"github.com/jhiga488/Topographic-Analysis-Kit/grid"
)

// LoadSource reads the grids of an extraction named in a control file:
//
//	gdeffp  grid definition of the dem
//	demfp   dem raster (float32 .bil)
//	condfp  optional conditioned dem on the same definition
//	layers  label:kind:path[:gdef] entries, kind continuous or categorical;
//	        a layer without its own definition shares the dem's
func LoadSource(fp string) (Source, error) {
	if _, ok := mmio.FileExists(fp); !ok {
		return Source{}, fmt.Errorf("source file not found: %s", fp)
	}
	ins := mmio.NewInstruct(fp)
	get := func(k string) string {
		if v, ok := ins.Param[k]; ok && len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	gdefFP, demFP := get("gdeffp"), get("demfp")
	if gdefFP == "" || demFP == "" {
		return Source{}, fmt.Errorf("source file %s: gdeffp and demfp are required", fp)
	}
	def, err := grid.ReadGDEF(gdefFP)
	if err != nil {
		return Source{}, err
	}
	var src Source
	if src.DEM, err = grid.ReadReal(def, demFP); err != nil {
		return Source{}, err
	}
	if c := get("condfp"); c != "" {
		if src.Conditioned, err = grid.ReadReal(def, c); err != nil {
			return Source{}, err
		}
	}

	stErr := make([]string, 0)
	for _, s := range ins.Param["layers"] {
		for _, e := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
			l, err := readLayer(e, def)
			if err != nil {
				stErr = append(stErr, err.Error())
				continue
			}
			src.Layers = append(src.Layers, l)
		}
	}
	if len(stErr) > 0 {
		return Source{}, fmt.Errorf("source file %s:\n  %s", fp, strings.Join(stErr, "\n  "))
	}
	return src, nil
}

func readLayer(e string, def *grid.Grid) (basin.Layer, error) {
	sp := strings.Split(e, ":")
	if len(sp) < 3 || len(sp) > 4 {
		return basin.Layer{}, fmt.Errorf("failed to read layer '%s': expecting label:kind:path[:gdef]", e)
	}
	var err error
	if len(sp) == 4 {
		if def, err = grid.ReadGDEF(sp[3]); err != nil {
			return basin.Layer{}, fmt.Errorf("failed to read layer '%s': %w", e, err)
		}
	}
	l := basin.Layer{Label: sp[0]}
	switch strings.ToLower(sp[1]) {
	case basin.Continuous.String():
		l.Grid, err = grid.ReadReal(def, sp[2])
	case basin.Categorical.String():
		l.Kind = basin.Categorical
		l.Grid, err = grid.ReadIndex(def, sp[2])
	default:
		return basin.Layer{}, fmt.Errorf("failed to read layer '%s': unknown kind %q", e, sp[1])
	}
	if err != nil {
		return basin.Layer{}, fmt.Errorf("failed to read layer '%s': %w", e, err)
	}
	return l, nil
}
