package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	// Create temporary config file
	content := `
server:
  port: 9090
  host: "127.0.0.1"

openai:
  apiKey: "test-key"
  visionModel: "gpt-4o"

sampler:
  intervalSeconds: 5.0

pipeline:
  visionFanOut: 4
  timecodeFPS: 30
`

	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Load config
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify loaded values
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}

	if cfg.OpenAI.VisionModel != "gpt-4o" {
		t.Errorf("Expected vision model gpt-4o, got %s", cfg.OpenAI.VisionModel)
	}

	if cfg.Sampler.IntervalSeconds != 5.0 {
		t.Errorf("Expected interval 5.0, got %f", cfg.Sampler.IntervalSeconds)
	}

	if cfg.Pipeline.VisionFanOut != 4 {
		t.Errorf("Expected fan-out 4, got %d", cfg.Pipeline.VisionFanOut)
	}
}

func TestLoadDefaults(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte("server:\n  port: 8081\n")); err != nil {
		t.Fatal(err)
	}
	tmpfile.Close()

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Pipeline.TimecodeFPS != 24 {
		t.Errorf("Expected default timecode fps 24, got %d", cfg.Pipeline.TimecodeFPS)
	}

	if cfg.Pipeline.FallbackLanguage != "en-US" {
		t.Errorf("Expected default fallback language en-US, got %s", cfg.Pipeline.FallbackLanguage)
	}

	if cfg.Sampler.FallbackFPS != 30.0 {
		t.Errorf("Expected default fallback fps 30, got %f", cfg.Sampler.FallbackFPS)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error when loading nonexistent file")
	}
}
