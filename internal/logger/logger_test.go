package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFileOutputLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG"}},
		{"warn", []string{"ERROR", "WARN"}, []string{"INFO", "DEBUG"}},
		{"info", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"debug", []string{"ERROR", "WARN", "INFO", "DEBUG"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.level+".log")
			cfg := FileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1}

			log, err := New(tt.level, cfg, false)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			log.Debug("debug message")
			log.Info("info message", zap.String("run", "abc"))
			log.Warn("warn message")
			log.Error("error message")
			_ = log.Sync()

			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("reading log file: %v", err)
			}
			text := string(content)
			for _, exp := range tt.expected {
				if !strings.Contains(text, `"level":"`+exp+`"`) {
					t.Errorf("expected %s entry in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(text, `"level":"`+exc+`"`) {
					t.Errorf("unexpected %s entry for level %s", exc, tt.level)
				}
			}
		})
	}
}

func TestNewWithoutOutputs(t *testing.T) {
	log, err := New("info", FileConfig{}, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("discarded")
}

func TestInitReplacesGlobal(t *testing.T) {
	defer func() {
		Log = zap.NewNop()
		Sugar = Log.Sugar()
	}()

	path := filepath.Join(t.TempDir(), "primio.log")
	if err := Init("debug", path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Debug("debug line")
	Info("hello")
	Warn("warn line")
	Error("error line")
	Sugar.Debugf("graph: %d resources", 3)
	Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	for _, want := range []string{"debug line", "hello", "warn line", "error line", "graph: 3 resources"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("expected %q in log file", want)
		}
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/primio.log")
	if cfg.Path != "/tmp/primio.log" || cfg.MaxSizeMB != 10 || cfg.MaxBackups != 5 || cfg.MaxAgeDays != 30 || !cfg.Compress {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}
