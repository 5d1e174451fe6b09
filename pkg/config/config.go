// Package config bundles target parameters and warning/feature toggles used
// across the compilation pipeline, following the teacher's Feature/Warning
// table-of-Info idiom.
package config

import (
	"fmt"
	"os"

	"modernc.org/libqbe"
)

// Feature toggles optional strictness behavior; none of these gate the
// source language's grammar (unlike the teacher's B/Bx dialect switches),
// since this language has a single fixed grammar.
type Feature int

const (
	FeatStrictOverload Feature = iota // disallow overload ambiguity resolution shortcuts
	FeatPedanticConversions
	FeatCount
)

// Warning enumerates the diagnostics that can be individually silenced.
type Warning int

const (
	WarnImplicitInt Warning = iota
	WarnNarrowingCast
	WarnUnreachableCase
	WarnShadowedType
	WarnExtra
	WarnPedantic
	WarnCount
)

// Info describes one feature or warning's name, default state, and help
// text (mirrors the teacher's `pkg/config.Info`).
type Info struct {
	Name        string
	Enabled     bool
	Description string
}

// Config bundles everything that varies across a run: target widths and
// feature/warning tables.
type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning

	QbeTarget      string
	TargetArch     string
	PointerWidth   int
	RegisterWidth  int
	IntWidth       int
	LongWidth      int
	ShortWidth     int
	CharWidth      int
	WCharWidth     int
	StackAlignment int
}

// NewConfig builds a Config with every feature/warning at its documented
// default, matching the teacher's `NewConfig`.
func NewConfig() *Config {
	c := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
	}

	features := map[Feature]Info{
		FeatStrictOverload:      {"strict-overload", false, "Treat overload ties as errors even in permissive contexts."},
		FeatPedanticConversions: {"pedantic-conversions", false, "Reject implicit conversions the base language would silently allow."},
	}
	warnings := map[Warning]Info{
		WarnImplicitInt:     {"implicit-int", true, "Warn when an untyped constant is implicitly narrowed to fit its context."},
		WarnNarrowingCast:   {"narrowing-cast", true, "Warn when an explicit cast narrows a value's representable range."},
		WarnUnreachableCase: {"unreachable-case", true, "Warn about switch cases that can never be reached."},
		WarnShadowedType:    {"shadowed-type", true, "Warn when a local declaration shadows a visible type name."},
		WarnExtra:           {"extra", false, "Enable extra miscellaneous warnings."},
		WarnPedantic:        {"pedantic", false, "Issue every warning the strict reading of the language demands."},
	}

	c.Features, c.Warnings = features, warnings
	for ft, info := range features {
		c.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		c.WarningMap[info.Name] = wt
	}
	return c
}

// SetTarget picks pointer/word widths for the chosen QBE target, mirroring
// the teacher's `Config.SetTarget`. Char/wchar/int/short widths are fixed by
// the source language regardless of target (spec §6: "compile-time
// constants of the core"); only pointer/register/long widths and stack
// alignment vary, with long always as wide as a pointer.
func (c *Config) SetTarget(goos, goarch, qbeTarget string) {
	if qbeTarget == "" {
		c.QbeTarget = libqbe.DefaultTarget(goos, goarch)
		fmt.Fprintf(os.Stderr, "tlc: info: no target specified, defaulting to host target '%s'\n", c.QbeTarget)
	} else {
		c.QbeTarget = qbeTarget
	}
	c.TargetArch = goarch

	switch c.QbeTarget {
	case "amd64_sysv", "amd64_apple", "arm64", "arm64_apple", "rv64":
		c.PointerWidth, c.RegisterWidth, c.StackAlignment = 8, 8, 16
	case "arm", "rv32":
		c.PointerWidth, c.RegisterWidth, c.StackAlignment = 4, 4, 8
	default:
		fmt.Fprintf(os.Stderr, "tlc: warning: unrecognized target '%s', defaulting to 64-bit\n", c.QbeTarget)
		c.PointerWidth, c.RegisterWidth, c.StackAlignment = 8, 8, 16
	}

	c.ShortWidth, c.IntWidth, c.LongWidth = 2, 4, c.PointerWidth
	c.CharWidth, c.WCharWidth = 1, 4
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// SetAllWarnings implements -Wall/-Wno-all, skipping WarnPedantic exactly as
// the teacher's SetAllWarnings does.
func (c *Config) SetAllWarnings(enabled bool) {
	for i := Warning(0); i < WarnCount; i++ {
		if i == WarnPedantic && enabled {
			continue
		}
		c.SetWarning(i, enabled)
	}
}
