package logger_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"sales-reports/internal/logger"

	"github.com/sirupsen/logrus"
)

func TestNew_LevelAndFormat(t *testing.T) {
	tests := []struct {
		name      string
		opts      logger.Options
		wantLevel logrus.Level
		wantErr   bool
	}{
		{"defaults", logger.Options{}, logrus.InfoLevel, false},
		{"debug text", logger.Options{Level: "debug", Format: "text"}, logrus.DebugLevel, false},
		{"bad level", logger.Options{Level: "chatty"}, 0, true},
		{"bad format", logger.Options{Format: "xml"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := logger.New(tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if log.GetLevel() != tt.wantLevel {
				t.Errorf("level = %v, want %v", log.GetLevel(), tt.wantLevel)
			}
		})
	}
}

func TestNew_JSONFields(t *testing.T) {
	log, err := logger.New(logger.Options{Format: "json"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.WithField("request_id", "req_1").Info("report delivered")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if entry["message"] != "report delivered" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["request_id"] != "req_1" {
		t.Errorf("request_id = %v", entry["request_id"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Errorf("missing timestamp key in %v", entry)
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	log, err := logger.New(logger.Options{File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Warn("written to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !bytes.Contains(data, []byte("written to file")) {
		t.Errorf("log file missing entry: %s", data)
	}
}
