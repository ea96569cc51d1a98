package config

import (
	"log/slog"
	"os"
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"OCR_LANG", "OCR_PSM_MODES", "CREDITS_MAP_PATHS", "LOG_LEVEL", "R_OFFSET_MIN", "R_OFFSET_MAX"} {
		t.Setenv(key, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg.OCRLanguages, []string{"eng", "fra"}) {
		t.Fatalf("languages=%v", cfg.OCRLanguages)
	}
	if !reflect.DeepEqual(cfg.OCRPageSegModes, []int{6, 4, 3}) {
		t.Fatalf("modes=%v", cfg.OCRPageSegModes)
	}
	if len(cfg.CreditsMapPaths) != 5 || cfg.CreditsFuzzyThreshold != 0.90 {
		t.Fatalf("credits=%v %v", cfg.CreditsMapPaths, cfg.CreditsFuzzyThreshold)
	}
	if cfg.ROffsetMin != -2 || cfg.ROffsetMax != 2 {
		t.Fatalf("offsets=%v %v", cfg.ROffsetMin, cfg.ROffsetMax)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("level=%v", cfg.SlogLevel())
	}
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("OCR_LANG", "fra")
	t.Setenv("OCR_PSM_MODES", "11, 6")
	t.Setenv("CREDITS_MAP_PATHS", "a.csv, b.xlsx")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("R_OFFSET_MIN", "-1.5")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg.OCRLanguages, []string{"fra"}) || !reflect.DeepEqual(cfg.OCRPageSegModes, []int{11, 6}) {
		t.Fatalf("ocr=%v %v", cfg.OCRLanguages, cfg.OCRPageSegModes)
	}
	if !reflect.DeepEqual(cfg.CreditsMapPaths, []string{"a.csv", "b.xlsx"}) {
		t.Fatalf("paths=%v", cfg.CreditsMapPaths)
	}
	if cfg.ROffsetMin != -1.5 || cfg.ROffsetMax != 2 {
		t.Fatalf("offsets=%v %v", cfg.ROffsetMin, cfg.ROffsetMax)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("level=%v", cfg.SlogLevel())
	}
}

func TestLoadBadModesFallBack(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("OCR_PSM_MODES", "6,x")
	cfg, _ := Load()
	if !reflect.DeepEqual(cfg.OCRPageSegModes, []int{6, 4, 3}) {
		t.Fatalf("modes=%v", cfg.OCRPageSegModes)
	}
}

// chdir changes the working directory for the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
