package grid

import (
	"fmt"

	hgrid "github.com/maseology/goHydro/grid"
	"github.com/maseology/mmio"
)

const nodata = -9999.

// ReadGDEF imports a grid definition file. The returned grid holds no data.
func ReadGDEF(fp string) (*Grid, error) {
	if _, ok := mmio.FileExists(fp); !ok {
		return nil, fmt.Errorf("ReadGDEF: file not found: %s", fp)
	}
	gd, err := hgrid.ReadGDEF(fp, false)
	if err != nil {
		return nil, fmt.Errorf("ReadGDEF: %w", err)
	}
	if gd.Nrow <= 0 || gd.Ncol <= 0 || gd.Cwidth <= 0. {
		return nil, fmt.Errorf("ReadGDEF: invalid dimensions %dx%d, cell size %v", gd.Nrow, gd.Ncol, gd.Cwidth)
	}
	return FromDefinition(gd), nil
}

// ReadReal loads a float32 raster (.bil) laid over the definition of def.
// Cells missing from the file, or at or below -9999, are no-data.
func ReadReal(def *Grid, fp string) (*Grid, error) {
	gd := def.Definition
	if _, ok := mmio.FileExists(fp); !ok {
		return nil, fmt.Errorf("ReadReal: file not found: %s", fp)
	}
	var r hgrid.Real
	r.NewGD32(fp, gd)
	g := FromDefinition(gd)
	for c, v := range r.A {
		if c >= 0 && c < len(g.V) && v > nodata {
			g.V[c] = v
		}
	}
	return g, nil
}

// ReadIndex loads an integer raster of class codes laid over the definition
// of def. Codes are stored as whole floats; absent cells are no-data.
func ReadIndex(def *Grid, fp string) (*Grid, error) {
	gd := def.Definition
	if _, ok := mmio.FileExists(fp); !ok {
		return nil, fmt.Errorf("ReadIndex: file not found: %s", fp)
	}
	var x hgrid.Indx
	x.LoadGDef(gd)
	x.New(fp, false)
	g := FromDefinition(gd)
	for c, v := range x.Values() {
		if c >= 0 && c < len(g.V) && float64(v) > nodata {
			g.V[c] = float64(v)
		}
	}
	return g, nil
}
