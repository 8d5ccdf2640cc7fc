package commands

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bryanchriswhite/surfacecap/internal/encode"
	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{"66", 66, true},
		{"0x3a00007", 0x3a00007, true},
		{"-1", 0, false},
		{"0x1ffffffff", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, err := parseID(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("parseID(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestParsePoint(t *testing.T) {
	x, y, err := parsePoint("-1920, 40")
	if err != nil || x != -1920 || y != 40 {
		t.Fatalf("expected -1920,40, got %d,%d %v", x, y, err)
	}
	for _, bad := range []string{"", "10", "a,b", "1,2,3"} {
		if _, _, err := parsePoint(bad); err == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestWriteDescriptors(t *testing.T) {
	monitors := []surface.Descriptor{{
		ID: 66, Kind: surface.KindMonitor, Name: "DP-1",
		Width: 1280, Height: 720, ScaleFactor: 1.5, Frequency: 60, IsPrimary: true,
	}}

	var buf bytes.Buffer
	if err := writeDescriptors(&buf, "table", monitors, printMonitorsTable); err != nil {
		t.Fatalf("table: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "DP-1") || !strings.Contains(out, "1920x1080") {
		t.Fatalf("expected name and physical size in table, got:\n%s", out)
	}

	buf.Reset()
	if err := writeDescriptors(&buf, "json", monitors, printMonitorsTable); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(buf.String(), `"scale_factor": 1.5`) {
		t.Fatalf("unexpected json:\n%s", buf.String())
	}

	if err := writeDescriptors(&buf, "xml", monitors, printMonitorsTable); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}
	if got := truncate("ééééé", 3); got != "éé…" {
		t.Fatalf("expected rune-aware truncation, got %q", got)
	}
}

func TestWriteImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	dir := t.TempDir()

	path := filepath.Join(dir, "ok.png")
	if err := writeImage(path, encode.Options{Format: encode.PNG}, img); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Fatalf("expected a png file: %v", err)
	}

	bad := filepath.Join(dir, "bad.gif")
	if err := writeImage(bad, encode.Options{Format: "gif"}, img); err == nil {
		t.Fatalf("expected unsupported format to fail")
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Fatalf("expected partial file to be removed, got %v", err)
	}

	if err := writeImage(filepath.Join(dir, "missing", "x.png"), encode.Options{}, img); err == nil {
		t.Fatalf("expected missing directory to fail")
	}
}
