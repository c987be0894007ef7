package main

/*
	Topographic Analysis Kit

	this example builds a synthetic, concave-up valley, extracts the basins
	above three pour points and prints their steepness summaries
*/

import (
	"context"
	"fmt"
	"log"
	"math"

	tak "github.com/jhiga488/Topographic-Analysis-Kit"
	"github.com/jhiga488/Topographic-Analysis-Kit/basin"
	"github.com/jhiga488/Topographic-Analysis-Kit/grid"
	"github.com/jhiga488/Topographic-Analysis-Kit/ksn"
)

const (
	nr, nc = 200, 101
	cs     = 30.
	ks     = 80. // channel steepness of the trunk
	theta  = .45 // concavity of the trunk
)

func main() {
	dem := synthetic()

	cfg := basin.DefaultConfig()
	cfg.ThresholdArea = 1e5
	cfg.SegmentLength = 600.
	cfg.KsnMethod = ksn.TribMethod
	cfg.MinTribArea = 1.
	cfg.ReliefRadii = []float64{150.}
	cfg.Workers = 3

	x0, _ := dem.XY(dem.Index(nr-1, nc/2))
	sel, err := basin.ParsePourPoints([][]float64{
		{x0, cs * .5, 1.},
		{x0, cs * 60.5, 2.},
		{x0, cs * 120.5, 3.},
	})
	if err != nil {
		log.Fatalln(err)
	}

	pb := basin.NewProgressBar(len(sel.Points))
	recs, err := tak.Extract(context.Background(), tak.Source{DEM: dem}, cfg, sel, basin.WithObservers(pb))
	pb.Stop()
	if err != nil {
		log.Println(err)
	}

	fmt.Println("\n   id   area km²   θ best   ksn mean    ksn se  method")
	for _, r := range recs {
		fmt.Printf("%5d %10.2f %8.3f %10.2f %9.3f  %s\n", r.ID, r.DrainageArea, r.BestFitConcavity, r.Ksn.Mean, r.Ksn.SE, r.KsnMethod)
	}
}

// synthetic carves a trunk channel of steepness ks down the centre column
// with hillslopes rising 5% to either side.
func synthetic() *grid.Grid {
	g := grid.New(nr, nc, cs, 0., float64(nr)*cs)
	zt := make([]float64, nr)
	for r := nr - 2; r >= 0; r-- {
		a := float64(r+1) * float64(nc) * cs * cs // area draining past row r
		zt[r] = zt[r+1] + ks*math.Pow(a, -theta)*cs
	}
	for i := range g.V {
		r, c := g.RowCol(i)
		g.V[i] = zt[r] + .05*cs*math.Abs(float64(c-nc/2))
	}
	return g
}
