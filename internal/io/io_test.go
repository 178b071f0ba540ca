package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "releases.json")
	ctx := context.Background()

	if err := WriteFileAtomic(ctx, path, []byte(`[1]`)); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(ctx, path, []byte(`[1,2]`)); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[1,2]` {
		t.Errorf("content = %s", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
	if FileSize(path) != 5 {
		t.Errorf("FileSize = %d", FileSize(path))
	}
	if FileSize(filepath.Join(dir, "missing")) != -1 {
		t.Error("FileSize of a missing file should be -1")
	}
}

func TestWriteFileAtomic_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "x.json")
	if err := WriteFileAtomic(ctx, path, []byte("x")); err == nil {
		t.Error("expected error for cancelled context")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("nothing should be written after cancellation")
	}
}

func TestImageService_PrepareCover(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 200))
	for x := 0; x < 300; x++ {
		src.Set(x, x%200, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	svc := NewImageService()
	tests := []struct {
		name          string
		maxSize       int
		width, height int
	}{
		{"shrink", 150, 150, 100},
		{"already small", 500, 300, 200},
		{"convert only", 0, 300, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := svc.PrepareCover(context.Background(), buf.Bytes(), tt.maxSize)
			if err != nil {
				t.Fatalf("PrepareCover: %v", err)
			}
			cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
			if err != nil {
				t.Fatal(err)
			}
			if format != "jpeg" {
				t.Errorf("format = %s, want jpeg", format)
			}
			if cfg.Width != tt.width || cfg.Height != tt.height {
				t.Errorf("size = %dx%d, want %dx%d", cfg.Width, cfg.Height, tt.width, tt.height)
			}
		})
	}
}

func TestImageService_InvalidData(t *testing.T) {
	if _, err := NewImageService().PrepareCover(context.Background(), []byte("not an image"), 100); err == nil {
		t.Error("expected decode error")
	}
}
