// Command tlc is the compiler's command-line entry point: it wires
// pkg/cli's flag parsing to pkg/driver's pipeline, following the shape of
// the teacher's `cmd/gbc/main.go` (flag registration, warning/feature
// group flags, target selection, pipeline invocation, exit code from
// whether anything errored) without its B-dialect/library-search
// specifics, which this language has no equivalent of.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/tlc-lang/tlc/pkg/cli"
	"github.com/tlc-lang/tlc/pkg/config"
	"github.com/tlc-lang/tlc/pkg/diag"
	"github.com/tlc-lang/tlc/pkg/driver"
)

func main() {
	app := cli.NewApp("tlc")
	app.Synopsis = "[options] <input.t|input.th> ..."
	app.Description = "A compiler for a statically-typed, C-family systems language."
	app.Authors = []string{"tlc-lang"}
	app.Repository = "<https://github.com/tlc-lang/tlc>"
	app.Since = 2026

	var (
		target   string
		pedantic bool
	)

	fs := app.FlagSet
	fs.String(&target, "target", "t", "", "Set the QBE backend target (defaults to the host target).", "target")
	fs.Bool(&pedantic, "pedantic", "", false, "Issue every warning the strict reading of the language demands.")

	cfg := config.NewConfig()
	warnings := registerWarningGroup(fs, cfg)
	features := registerFeatureGroup(fs, cfg)

	app.Action = func(inputFiles []string) error {
		if len(inputFiles) == 0 {
			return fmt.Errorf("no input files specified")
		}
		for wt, e := range warnings {
			cfg.SetWarning(wt, *e.Enabled && !*e.Disabled)
		}
		for ft, e := range features {
			cfg.SetFeature(ft, *e.Enabled && !*e.Disabled)
		}
		if pedantic {
			cfg.SetWarning(config.WarnPedantic, true)
		}
		cfg.SetTarget(runtime.GOOS, runtime.GOARCH, target)

		bag := diag.NewBag()
		if err := driver.New(cfg, bag).Compile(inputFiles); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		bag.Emit(os.Stderr)
		if bag.Errored() {
			os.Exit(1)
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// registerWarningGroup exposes every config.Warning as a `-W<name>` /
// `-Wno-<name>` pair, following pkg/cli's FlagGroup convention; there is
// no teacher `SetupFlagGroups` helper to call (the teacher's own
// `cmd/gbc/main.go` references one that does not exist anywhere in its
// tree), so this wiring is authored directly against config.Config's
// Warnings/Features tables. The returned map lets the action callback
// read each toggle's post-Parse state once argv has actually been
// consumed, since Enabled/Disabled only settle during FlagSet.Parse.
func registerWarningGroup(fs *cli.FlagSet, cfg *config.Config) map[config.Warning]cli.FlagGroupEntry {
	entries := make([]cli.FlagGroupEntry, 0, int(config.WarnCount))
	byType := make(map[config.Warning]cli.FlagGroupEntry, int(config.WarnCount))
	for wt := config.Warning(0); wt < config.WarnCount; wt++ {
		info := cfg.Warnings[wt]
		enabled, disabled := new(bool), new(bool)
		*enabled = info.Enabled
		e := cli.FlagGroupEntry{
			Name: info.Name, Prefix: "W", Usage: info.Description,
			Enabled: enabled, Disabled: disabled,
		}
		entries = append(entries, e)
		byType[wt] = e
	}
	fs.AddFlagGroup("Warnings", "Per-warning toggles.", "warning", "Available warnings:", entries)
	return byType
}

func registerFeatureGroup(fs *cli.FlagSet, cfg *config.Config) map[config.Feature]cli.FlagGroupEntry {
	entries := make([]cli.FlagGroupEntry, 0, int(config.FeatCount))
	byType := make(map[config.Feature]cli.FlagGroupEntry, int(config.FeatCount))
	for ft := config.Feature(0); ft < config.FeatCount; ft++ {
		info := cfg.Features[ft]
		enabled, disabled := new(bool), new(bool)
		*enabled = info.Enabled
		e := cli.FlagGroupEntry{
			Name: info.Name, Prefix: "f", Usage: info.Description,
			Enabled: enabled, Disabled: disabled,
		}
		entries = append(entries, e)
		byType[ft] = e
	}
	fs.AddFlagGroup("Features", "Per-feature toggles.", "feature", "Available features:", entries)
	return byType
}
