package logging

import (
	"errors"
	"testing"
	"time"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "JSON format to stdout",
			config: Config{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "Console format to stderr",
			config: Config{
				Level:  "debug",
				Format: "console",
				Output: "stderr",
			},
			wantErr: false,
		},
		{
			name: "Invalid log level defaults to info",
			config: Config{
				Level:  "invalid",
				Format: "json",
				Output: "stdout",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewLogger() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("Expected non-nil logger")
			}
		})
	}
}

func TestLoggerContextHelpers(t *testing.T) {
	logger, err := NewDefaultLogger()
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	// Each helper must return a usable child logger.
	if logger.WithJobID("job-1") == nil {
		t.Error("WithJobID returned nil")
	}
	if logger.WithRecordID("rec-1") == nil {
		t.Error("WithRecordID returned nil")
	}
	if logger.WithWorkerID("worker-1") == nil {
		t.Error("WithWorkerID returned nil")
	}
	if logger.WithError(errors.New("boom")) == nil {
		t.Error("WithError returned nil")
	}
	if logger.WithField("key", "value") == nil {
		t.Error("WithField returned nil")
	}
}

func TestDomainLogHelpers(t *testing.T) {
	logger, err := NewDefaultLogger()
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	// Must not panic with any combination of inputs.
	logger.LogStageEvent("job-1", "sample", "started", map[string]interface{}{"frames": 10})
	logger.LogStageEvent("job-1", "sample", "completed", nil)
	logger.LogFrameProgress("job-1", 3, 10)
	logger.LogServiceCall("vision", "describe", 120*time.Millisecond, nil)
	logger.LogServiceCall("vision", "describe", 120*time.Millisecond, errors.New("timeout"))
	logger.LogHTTPRequest("GET", "/health", "127.0.0.1", 200, 5*time.Millisecond)
}
