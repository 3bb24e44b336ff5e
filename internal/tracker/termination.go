package tracker

// NoParticlesOnGrids stops the loop once zero particles overlap any grid,
// provided at least one particle has entered a grid at some point. The
// entered guard keeps a population loaded outside every grid from stopping
// the run before it starts.
type NoParticlesOnGrids struct{}

func (NoParticlesOnGrids) Done(f Frame) bool {
	entered := false
	for _, e := range f.Entered {
		if e > 0 {
			entered = true
			break
		}
	}
	return entered && f.OnGridCount() == 0
}

// TimeElapsed stops the loop once the simulation clock reaches Duration
// seconds.
type TimeElapsed struct {
	Duration float64
}

func (c TimeElapsed) Done(f Frame) bool {
	return f.Time >= c.Duration
}
