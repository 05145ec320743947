package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
d_model: 64
nhead: 8
dropout: 0.2
weights: /models/en-de.safetensors
log_level: debug
server_address: 0.0.0.0:9000
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DModel == nil || *cfg.DModel != 64 || cfg.NHead == nil || *cfg.NHead != 8 {
		t.Fatalf("unexpected model fields: %+v", cfg)
	}
	if cfg.Dropout == nil || *cfg.Dropout != 0.2 {
		t.Fatalf("dropout = %v", cfg.Dropout)
	}
	if cfg.SrcVocabSize != nil {
		t.Fatal("unset field decoded as non-nil")
	}
	if cfg.Weights != "/models/en-de.safetensors" || cfg.LogLevel != "debug" || cfg.ServerAddress != "0.0.0.0:9000" {
		t.Fatalf("unexpected string fields: %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit config")
	}
	if _, err := LoadConfig(writeConfig(t, "d_model: [1, 2")); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

// TestApplyModelConfigPrecedence mutates the package-level flag variables and
// must not run in parallel.
func TestApplyModelConfigPrecedence(t *testing.T) {
	fileD, fileHeads, fileSeed := int64(64), int64(8), int64(42)
	cfg := Config{DModel: &fileD, NHead: &fileHeads, Seed: &fileSeed, Weights: "from-file.safetensors"}

	cmd := &cli.Command{
		Name:  "probe",
		Flags: modelFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			applyModelConfig(c, cfg)
			return nil
		},
	}
	if err := cmd.Run(context.Background(), []string{"probe", "--d-model", "128", "--weights", "cli.safetensors"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dModel != 128 {
		t.Fatalf("d-model = %d, flag should win", dModel)
	}
	if nHead != 8 || seed != 42 {
		t.Fatalf("nhead=%d seed=%d, config should fill unset flags", nHead, seed)
	}
	if weightsPath != "cli.safetensors" {
		t.Fatalf("weights = %q, flag should win", weightsPath)
	}
	if got := modelConfigFromFlags(); got.DModel != 128 || got.NHead != 8 || got.TgtVocabSize != 15 {
		t.Fatalf("modelConfigFromFlags = %+v", got)
	}
}

func TestApplySamplingConfigPrecedence(t *testing.T) {
	t.Parallel()
	fileTemp, fileTopK, fileSeed := 0.7, int64(5), int64(9)
	cfg := Config{Temperature: &fileTemp, TopK: &fileTopK, SampleSeed: &fileSeed}

	var (
		temp, topP, minP, penalty float64
		topK, sampleSeed          int64
	)
	cmd := &cli.Command{
		Name: "probe",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "temp", Aliases: []string{"temperature", "t"}, Destination: &temp},
			&cli.Int64Flag{Name: "top-k", Destination: &topK},
			&cli.Float64Flag{Name: "top-p", Value: 1, Destination: &topP},
			&cli.Float64Flag{Name: "min-p", Destination: &minP},
			&cli.Float64Flag{Name: "repeat-penalty", Value: 1, Destination: &penalty},
			&cli.Int64Flag{Name: "sample-seed", Destination: &sampleSeed},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			applySamplingConfig(c, cfg, &temp, &topK, &topP, &minP, &penalty, &sampleSeed)
			return nil
		},
	}
	if err := cmd.Run(context.Background(), []string{"probe", "--temperature", "0"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if temp != 0 {
		t.Fatalf("temp = %v, flag alias should win", temp)
	}
	if topK != 5 || sampleSeed != 9 {
		t.Fatalf("top-k=%d seed=%d, config should fill unset flags", topK, sampleSeed)
	}
	if topP != 1 || penalty != 1 {
		t.Fatalf("top-p=%v penalty=%v, defaults should stay", topP, penalty)
	}
}
