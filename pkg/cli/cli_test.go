package cli

import "testing"

func TestFlagSetParsesLongAndShort(t *testing.T) {
	fs := NewFlagSet("test")
	var target string
	var verbose bool
	fs.String(&target, "target", "t", "", "target triple", "target")
	fs.Bool(&verbose, "verbose", "v", false, "verbose output")

	if err := fs.Parse([]string{"-t", "arm64", "--verbose", "a.t"}); err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if target != "arm64" {
		t.Errorf("expected target 'arm64', got %q", target)
	}
	if !verbose {
		t.Errorf("expected verbose to be set")
	}
	if got := fs.Args(); len(got) != 1 || got[0] != "a.t" {
		t.Errorf("expected positional args [a.t], got %v", got)
	}
}

func TestFlagSetEqualsForm(t *testing.T) {
	fs := NewFlagSet("test")
	var target string
	fs.String(&target, "target", "t", "", "target triple", "target")

	if err := fs.Parse([]string{"--target=rv64"}); err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if target != "rv64" {
		t.Errorf("expected target 'rv64', got %q", target)
	}
}

func TestFlagSetUnknownFlagErrors(t *testing.T) {
	fs := NewFlagSet("test")
	if err := fs.Parse([]string{"--bogus"}); err == nil {
		t.Fatalf("expected an error for an unknown flag")
	}
}

func TestFlagGroupEnableDisablePair(t *testing.T) {
	fs := NewFlagSet("test")
	enabled, disabled := new(bool), new(bool)
	*enabled, *disabled = true, false
	entries := []FlagGroupEntry{
		{Name: "extra", Prefix: "W", Usage: "extra warnings", Enabled: enabled, Disabled: disabled},
	}
	fs.AddFlagGroup("Warnings", "toggles", "warning", "Available warnings:", entries)

	if err := fs.Parse([]string{"-Wno-extra"}); err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if !*disabled {
		t.Errorf("expected -Wno-extra to set the disabled flag")
	}
}

func TestDoubleDashStopsFlagParsing(t *testing.T) {
	fs := NewFlagSet("test")
	var verbose bool
	fs.Bool(&verbose, "verbose", "v", false, "verbose output")

	if err := fs.Parse([]string{"--", "-v", "file.t"}); err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if verbose {
		t.Errorf("expected -v after -- to be treated as a positional argument")
	}
	if got := fs.Args(); len(got) != 2 || got[0] != "-v" || got[1] != "file.t" {
		t.Errorf("expected positional args [-v file.t], got %v", got)
	}
}
