package console

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecorderDrain(t *testing.T) {
	var r Recorder
	r.Status("one")
	r.Error("two")

	first := r.Drain()
	if len(first) != 2 {
		t.Fatalf("first drain got %d lines, want 2", len(first))
	}
	if first[1].Kind != KindError || first[1].Text != "two" {
		t.Errorf("line 1 = %+v", first[1])
	}

	r.Status("three")
	second := r.Drain()
	if len(second) != 1 || second[0].Text != "three" {
		t.Errorf("second drain = %+v", second)
	}

	if got := len(r.Lines()); got != 3 {
		t.Errorf("Lines() has %d entries, want 3", got)
	}
	if errs := r.Errors(); len(errs) != 1 || errs[0] != "two" {
		t.Errorf("Errors() = %v", errs)
	}
}

func TestTeeAndLogConsole(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var r Recorder
	c := Tee{&r, NewLogConsole(zap.New(core))}

	c.Status("building")
	c.Error("failed")

	if len(r.Lines()) != 2 {
		t.Errorf("recorder got %d lines, want 2", len(r.Lines()))
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("logger got %d entries, want 2", len(entries))
	}
	if entries[0].Level != zap.InfoLevel || entries[0].Message != "building" {
		t.Errorf("entry 0 = %v %q", entries[0].Level, entries[0].Message)
	}
	if entries[1].Level != zap.ErrorLevel || entries[1].Message != "failed" {
		t.Errorf("entry 1 = %v %q", entries[1].Level, entries[1].Message)
	}
}

func TestKindString(t *testing.T) {
	if KindStatus.String() != "status" || KindError.String() != "error" {
		t.Errorf("unexpected kind names %q %q", KindStatus, KindError)
	}
}
