package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/fieldtrack/internal/config"
	"github.com/san-kum/fieldtrack/internal/export"
	"github.com/san-kum/fieldtrack/internal/grid"
	"github.com/san-kum/fieldtrack/internal/save"
	"github.com/san-kum/fieldtrack/internal/storage"
	"github.com/san-kum/fieldtrack/internal/tracker"
	"github.com/san-kum/fieldtrack/internal/tui"
)

var (
	dataDir    string
	configFile string
	dt         float64
	weighting  string
	live       bool
	outPath    string
	svgPath    string
)

var warnStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#ffaa00"))

func main() {
	rootCmd := &cobra.Command{
		Use:   "fieldtrack",
		Short: "charged-particle tracking through electromagnetic field grids",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fieldtrack", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a tracking scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "scenario config file (yaml)")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "force a fixed timestep (seconds, 0 = adaptive)")
	runCmd.Flags().StringVar(&weighting, "weighting", "", "field weighting (volume averaged | nearest neighbor)")
	runCmd.Flags().BoolVar(&live, "live", false, "show a live progress meter")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scenario presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot kinetic energy and orbit radius over a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export trajectory history",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&outPath, "out", "", "CSV output path (default <run_id>.csv)")
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "also write an x-y trajectory SVG")

	rootCmd.AddCommand(runCmd, presetsCmd, listCmd, plotCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func resolveConfig(args []string) (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	if len(args) == 1 {
		cfg := config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (try `fieldtrack presets`)", args[0])
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

func buildTermination(cfg *config.Config) tracker.TerminationCondition {
	switch cfg.Termination.Kind {
	case "time_elapsed":
		return tracker.TimeElapsed{Duration: cfg.Termination.Duration}
	default:
		return tracker.NoParticlesOnGrids{}
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(args)
	if err != nil {
		return err
	}
	if dt > 0 {
		cfg.Dt = dt
		cfg.DtMin, cfg.DtMax = 0, 0
	}
	if weighting != "" {
		cfg.Weighting = weighting
	}
	w, err := grid.ParseWeighting(cfg.Weighting)
	if err != nil {
		return err
	}

	g, err := grid.NewCube(cfg.Grid.Extent, cfg.Grid.Points)
	if err != nil {
		return err
	}
	for name, value := range cfg.Fields {
		g.SetUniform(name, value)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, snapshotDir, err := st.NewRun(cfg.Scenario)
	if err != nil {
		return err
	}
	saver, err := save.NewDisk(cfg.Save.Interval, snapshotDir)
	if err != nil {
		return err
	}

	trk, err := tracker.New([]grid.Source{g}, buildTermination(cfg), saver, tracker.Config{
		Dt:    cfg.Dt,
		DtMin: cfg.DtMin,
		DtMax: cfg.DtMax,
	})
	if err != nil {
		return err
	}
	for _, warning := range trk.Warnings() {
		fmt.Fprintln(os.Stderr, warnStyle.Render("warning: ")+warning)
	}

	x := make([]r3.Vec, len(cfg.Particles))
	v := make([]r3.Vec, len(cfg.Particles))
	for i, p := range cfg.Particles {
		x[i] = r3.Vec{X: p.Position[0], Y: p.Position[1], Z: p.Position[2]}
		v[i] = r3.Vec{X: p.Velocity[0], Y: p.Velocity[1], Z: p.Velocity[2]}
	}
	species := tracker.Species{Charge: cfg.Species.Charge, Mass: cfg.Species.Mass}
	if err := trk.LoadParticles(x, v, species); err != nil {
		return err
	}

	start := time.Now()
	if live {
		meter := tui.NewMeter(trk.NumParticles())
		trk.AddObserver(meter)
		err = tui.Run(meter, func() error { return trk.Run(w) })
	} else {
		err = trk.Run(w)
	}
	if err != nil {
		return err
	}

	if err := st.WriteMetadata(storage.RunMetadata{
		ID:        runID,
		Scenario:  cfg.Scenario,
		Timestamp: time.Now(),
		Particles: trk.NumParticles(),
		Charge:    species.Charge,
		Mass:      species.Mass,
		Dt:        cfg.Dt,
		Weighting: string(w),
		Steps:     trk.Steps(),
		FinalTime: trk.Time(),
		Warnings:  trk.Warnings(),
	}); err != nil {
		return err
	}

	fmt.Printf("run %s completed: %d steps, t = %.4g s (wall %.2fs)\n",
		runID, trk.Steps(), trk.Time(), time.Since(start).Seconds())
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tPARTICLES\tSTEPS\tFINAL TIME\tWEIGHTING")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.4g s\t%s\n",
			run.ID, run.Scenario, run.Particles, run.Steps, run.FinalTime, run.Weighting)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	snaps, err := st.LoadSnapshots(args[0])
	if err != nil {
		return err
	}
	if len(snaps) < 2 {
		return fmt.Errorf("run %s has too few snapshots to plot", args[0])
	}

	energy := make([]float64, len(snaps))
	radius := make([]float64, len(snaps))
	for si, snap := range snaps {
		n := 0
		for i := range snap.Velocities {
			ke := 0.5 * meta.Mass * r3.Norm2(snap.Velocities[i])
			r := r3.Norm(snap.Positions[i])
			if math.IsNaN(ke) || math.IsNaN(r) {
				continue
			}
			energy[si] += ke
			radius[si] += r
			n++
		}
		if n > 0 {
			energy[si] /= float64(n)
			radius[si] /= float64(n)
		}
	}

	fmt.Println(asciigraph.Plot(energy,
		asciigraph.Height(12),
		asciigraph.Caption("mean kinetic energy (J)")))
	fmt.Println()
	fmt.Println(asciigraph.Plot(radius,
		asciigraph.Height(12),
		asciigraph.Caption("mean distance from origin (m)")))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	out := outPath
	if out == "" {
		out = args[0] + ".csv"
	}
	if err := st.ExportCSV(args[0], out); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)

	if svgPath != "" {
		snaps, err := st.LoadSnapshots(args[0])
		if err != nil {
			return err
		}
		svg := export.TrajectorySVG(snaps, 800, 600)
		if svg == "" {
			return fmt.Errorf("run %s has no drawable trajectory", args[0])
		}
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}
	return nil
}
