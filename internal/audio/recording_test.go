// SPDX-License-Identifier: MIT
package audio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRecorderWriteGrowsWithBlockSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")
	rec, err := NewRecorder(path, 44100, 2, 512)
	if err != nil {
		t.Fatalf("NewRecorder error: %v", err)
	}

	if err := rec.Write(make([]float32, 512*2)); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	// A reconfiguration can hand larger blocks to the same recorder.
	if err := rec.Write(make([]float32, 2048*2)); err != nil {
		t.Fatalf("Write of a larger block error: %v", err)
	}

	if err := rec.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat error: %v", err)
	}
	if info.Size() == 0 {
		t.Error("recording file is empty")
	}
}

func TestRecorderCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")
	rec, err := NewRecorder(path, 44100, 2, 256)
	if err != nil {
		t.Fatalf("NewRecorder error: %v", err)
	}

	if err := rec.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
	// Writes after close are dropped, not failed.
	if err := rec.Write(make([]float32, 256*2)); err != nil {
		t.Errorf("Write after close error: %v", err)
	}
}
