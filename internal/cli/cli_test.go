package cli

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/menta2k/photobooth/internal/config"
)

// testEnv writes a config whose storage and output live in a temp dir and
// whose countdown ticks every millisecond.
func testEnv(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Session.TickIntervalMs = 1
	cfg.Session.FlashMs = 1
	cfg.Storage.Dir = filepath.Join(dir, "data")
	cfg.Export.OutputDir = filepath.Join(dir, "out")
	cfg.Logging.Level = "error"

	path := filepath.Join(dir, "config.json")
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatal(err)
	}
	return path, dir
}

func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestFramesListAndShow(t *testing.T) {
	cfg, _ := testEnv(t)

	out, err := run(t, cfg, "frames", "list")
	if err != nil {
		t.Fatalf("frames list failed: %v", err)
	}
	for _, id := range []string{"classic-single", "film-strip-vertical", "duo-horizontal", "quad-collage"} {
		if !strings.Contains(out, id) {
			t.Errorf("list output missing %s:\n%s", id, out)
		}
	}

	out, err = run(t, cfg, "frames", "show", "film-strip-vertical")
	if err != nil {
		t.Fatalf("frames show failed: %v", err)
	}
	if !strings.Contains(out, "aspectRatio: 0.5625") {
		t.Errorf("unexpected template:\n%s", out)
	}

	if _, err := run(t, cfg, "frames", "show", "missing"); err == nil {
		t.Error("Expected error for unknown frame")
	}
}

func TestFramesImportAndRemove(t *testing.T) {
	cfg, dir := testEnv(t)

	tmpl := filepath.Join(dir, "duo.yaml")
	os.WriteFile(tmpl, []byte(`id: custom-duo
name: Custom Duo
aspectRatio: 2
className: bg-pink-200
slots:
  - {x: 0, y: 0, width: 50, height: 100}
  - {x: 50, y: 0, width: 50, height: 100}
`), 0644)

	if _, err := run(t, cfg, "frames", "import", tmpl); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	out, _ := run(t, cfg, "frames", "list")
	if !strings.Contains(out, "custom-duo") {
		t.Errorf("imported frame not listed:\n%s", out)
	}

	out, err := run(t, cfg, "frames", "remove", "classic-single")
	if err != nil || !strings.Contains(out, "nothing removed") {
		t.Errorf("built-in removal should be a no-op, got %q %v", out, err)
	}
	if _, err := run(t, cfg, "frames", "remove", "custom-duo"); err != nil {
		t.Fatal(err)
	}
	out, _ = run(t, cfg, "frames", "list")
	if strings.Contains(out, "custom-duo") {
		t.Error("removed frame still listed")
	}
}

func TestFramesCreate(t *testing.T) {
	cfg, dir := testEnv(t)
	bg := filepath.Join(dir, "hearts.png")
	writePNG(t, bg, 80, 60, color.NRGBA{255, 0, 128, 255})
	preview := filepath.Join(dir, "slots.png")

	out, err := run(t, cfg, "frames", "create", "--background", bg,
		"--slot", "5,5,40,90", "--slot", "55,5,40,90", "--preview", preview)
	if err != nil {
		t.Fatalf("frames create failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "hearts, 2 slots") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(preview); err != nil {
		t.Errorf("preview not written: %v", err)
	}

	if _, err := run(t, cfg, "frames", "create", "--background", bg, "--slot", "1,2,3"); err == nil {
		t.Error("Expected error for malformed slot")
	}
}

func TestCompose(t *testing.T) {
	cfg, dir := testEnv(t)
	var photos []string
	for i, c := range []color.Color{color.White, color.Black, color.White} {
		p := filepath.Join(dir, "photo"+string(rune('a'+i))+".png")
		writePNG(t, p, 40, 30, c)
		photos = append(photos, p)
	}

	args := append([]string{"compose", "--frame", "film-strip-vertical"}, photos...)
	out, err := run(t, cfg, args...)
	if err != nil {
		t.Fatalf("compose failed: %v\n%s", err, out)
	}
	want := filepath.Join(dir, "out", "Film-Strip-photobooth.png")
	if !strings.Contains(out, want) {
		t.Errorf("unexpected output %q", out)
	}
	f, err := os.Open(want)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 1200 || b.Dy() != 2133 {
		t.Errorf("Expected 1200x2133, got %v", b)
	}
}

func TestBooth(t *testing.T) {
	cfg, dir := testEnv(t)
	camera := filepath.Join(dir, "camera")
	os.MkdirAll(camera, 0755)
	writePNG(t, filepath.Join(camera, "1.png"), 64, 48, color.White)
	writePNG(t, filepath.Join(camera, "2.png"), 64, 48, color.Black)

	preview := filepath.Join(dir, "live.png")
	out, err := run(t, cfg, "booth", "--camera", camera, "--frame", "duo-horizontal",
		"--retake", "1", "--preview", preview, "--zoom", "0.5")
	if err != nil {
		t.Fatalf("booth failed: %v\n%s", err, out)
	}
	for _, want := range []string{"3... 2... 1... *click*", "photo 2 captured", "retaking photo 1", "(50%)", "Side-by-Side-photobooth.png"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBoothWithoutCamera(t *testing.T) {
	cfg, dir := testEnv(t)
	out, err := run(t, cfg, "booth", "--camera", filepath.Join(dir, "empty"))
	if err == nil {
		t.Fatal("Expected camera error")
	}
	if !strings.Contains(out, "Could not access the camera") {
		t.Errorf("Expected inline camera message, got %q", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photobooth.json")

	if _, err := run(t, path, "config", "init"); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := run(t, path, "config", "init"); err == nil {
		t.Error("Expected error when config exists")
	}
	if _, err := run(t, path, "config", "init", "--force"); err != nil {
		t.Errorf("forced init failed: %v", err)
	}

	out, err := run(t, path, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"countdown": 3`) {
		t.Errorf("unexpected config:\n%s", out)
	}
}
