package reimport

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatchReimportsOnSave(t *testing.T) {
	f := newFixture(t, materialRefs, nil)
	runner := NewRunner(f.importer)

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan error, 4)
	stopped := make(chan error, 1)
	go func() {
		stopped <- Watch(ctx, runner, f.request(Options{}), nil, func(_ *Result, err error) {
			select {
			case results <- err:
			default:
			}
		})
	}()

	// Keep saving until the watcher is up and has reacted.
	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()
wait:
	for {
		select {
		case err := <-results:
			if err != nil {
				t.Fatalf("watched import failed: %v", err)
			}
			break wait
		case <-tick.C:
			os.WriteFile(f.scene, []byte("{}"), 0644)
		case <-deadline:
			t.Fatal("no import after saving the scene")
		}
	}

	if _, err := os.Stat(f.output); err != nil {
		t.Errorf("output not written: %v", err)
	}

	cancel()
	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
