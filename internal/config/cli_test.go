package config

import (
	"errors"
	"flag"
	"testing"
	"time"
)

func TestParseCLIRequiresConfigFile(t *testing.T) {
	_, err := ParseCLI([]string{"--www-root", "./www"})
	if err == nil {
		t.Fatal("expected an error when --config-file is missing")
	}
}

func TestParseCLIRequiresWWWRoot(t *testing.T) {
	_, err := ParseCLI([]string{"--config-file", "config.json"})
	if err == nil {
		t.Fatal("expected an error when --www-root is missing")
	}
}

func TestParseCLISaveStatePeriodRequiresStateFile(t *testing.T) {
	_, err := ParseCLI([]string{
		"--config-file", "config.json",
		"--www-root", "./www",
		"--save-state-period", "1000",
	})
	if err == nil {
		t.Fatal("expected an error when --save-state-period is set without --state-file")
	}
}

func TestParseCLIAppliesShorthandsAndDurations(t *testing.T) {
	cli, err := ParseCLI([]string{
		"-c", "config.json",
		"-w", "./www",
		"-t", "50",
		"-s", "state.json",
		"-p", "5000",
		"-r",
	})
	if err != nil {
		t.Fatalf("ParseCLI: %v", err)
	}
	if cli.ConfigFile != "config.json" || cli.WWWRoot != "./www" || cli.StateFile != "state.json" {
		t.Fatalf("unexpected string fields: %+v", cli)
	}
	if !cli.RandomizeSpawnPoints {
		t.Fatalf("expected RandomizeSpawnPoints to be true")
	}
	if !cli.HasTickPeriod || cli.TickPeriod != 50*time.Millisecond {
		t.Fatalf("unexpected tick period: has=%v, value=%v", cli.HasTickPeriod, cli.TickPeriod)
	}
	if !cli.HasSaveStatePeriod || cli.SaveStatePeriod != 5*time.Second {
		t.Fatalf("unexpected save-state period: has=%v, value=%v", cli.HasSaveStatePeriod, cli.SaveStatePeriod)
	}
}

func TestParseCLIWithoutOptionalFlagsLeavesThemUnset(t *testing.T) {
	cli, err := ParseCLI([]string{"--config-file", "config.json", "--www-root", "./www"})
	if err != nil {
		t.Fatalf("ParseCLI: %v", err)
	}
	if cli.HasTickPeriod || cli.HasSaveStatePeriod {
		t.Fatalf("expected no tick/save-state period without the corresponding flags: %+v", cli)
	}
}

func TestParseCLIHelpReturnsErrHelp(t *testing.T) {
	_, err := ParseCLI([]string{"--help"})
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("ParseCLI(--help): err = %v, want flag.ErrHelp", err)
	}
}

func TestDatabaseURLRequiresEnvVar(t *testing.T) {
	t.Setenv("GAME_DB_URL", "")
	if _, err := DatabaseURL(); err == nil {
		t.Fatal("expected an error when GAME_DB_URL is unset")
	}

	t.Setenv("GAME_DB_URL", "postgres://example")
	url, err := DatabaseURL()
	if err != nil {
		t.Fatalf("DatabaseURL: %v", err)
	}
	if url != "postgres://example" {
		t.Fatalf("DatabaseURL = %q, want %q", url, "postgres://example")
	}
}
