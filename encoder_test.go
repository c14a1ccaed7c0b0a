package gifencoder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"testing"
)

func TestDelayForFPS(t *testing.T) {
	tests := []struct {
		fps  int
		want int
	}{
		{10, 100},
		{3, 333},
		{30, 33},
		{0, 100},
		{-5, 100},
	}
	for _, tt := range tests {
		if got := DelayForFPS(tt.fps); got != tt.want {
			t.Errorf("DelayForFPS(%d) = %d, want %d", tt.fps, got, tt.want)
		}
	}
}

func TestDelayCentis(t *testing.T) {
	cs, err := delayCentis(500)
	if err != nil || cs != 50 { // 500ms / 10 = 50
		t.Errorf("Expected delay 50, got %d (%v)", cs, err)
	}
	cs, err = delayCentis(15)
	if err != nil || cs != 2 {
		t.Errorf("Expected 15ms to round to 2, got %d (%v)", cs, err)
	}
	if _, err := delayCentis(655350); err != nil {
		t.Errorf("Expected the largest delay to be accepted, got %v", err)
	}
	if _, err := delayCentis(700000); !errors.Is(err, ErrDelayRange) {
		t.Errorf("Expected ErrDelayRange for 700000ms, got %v", err)
	}
	if _, err := delayCentis(-1); !errors.Is(err, ErrDelayRange) {
		t.Errorf("Expected ErrDelayRange for a negative delay, got %v", err)
	}
}

func TestByteArray(t *testing.T) {
	ba := NewByteArray()

	// Test writing single bytes
	for i := 0; i < 10; i++ {
		ba.WriteByte(byte(i))
	}

	data := ba.GetData()
	if len(data) != 10 {
		t.Errorf("Expected length 10, got %d", len(data))
	}

	for i := 0; i < 10; i++ {
		if data[i] != byte(i) {
			t.Errorf("Expected byte %d at index %d, got %d", i, i, data[i])
		}
	}
}

func TestByteArrayMultiplePages(t *testing.T) {
	ba := NewByteArray()

	// Write more than one page
	numBytes := ba.pageSize*2 + 100
	for i := 0; i < numBytes; i++ {
		ba.WriteByte(byte(i % 256))
	}

	data := ba.GetData()
	if len(data) != numBytes {
		t.Errorf("Expected length %d, got %d", numBytes, len(data))
	}
	if ba.Len() != numBytes {
		t.Errorf("Len() = %d, want %d", ba.Len(), numBytes)
	}
	for i, b := range data {
		if b != byte(i%256) {
			t.Fatalf("Expected byte %d at index %d, got %d", byte(i%256), i, b)
		}
	}
}

func TestByteArrayWriteTo(t *testing.T) {
	ba := NewByteArray()
	chunk := bytes.Repeat([]byte{1, 2, 3}, 3000)
	ba.WriteBytes(chunk)
	ba.WriteUTFBytes("GIF89a")

	var buf bytes.Buffer
	n, err := ba.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if int(n) != len(chunk)+6 {
		t.Errorf("WriteTo wrote %d bytes, want %d", n, len(chunk)+6)
	}
	if !bytes.Equal(buf.Bytes(), ba.GetData()) {
		t.Error("WriteTo output differs from GetData")
	}
	if !bytes.HasSuffix(buf.Bytes(), []byte("GIF89a")) {
		t.Error("Expected data to end with the last write")
	}
}

func TestEncodeSimpleGIF(t *testing.T) {
	// Create a simple 10x10 red image
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}

	data, err := EncodeGIF([]image.Image{img}, nil)
	if err != nil {
		t.Fatalf("EncodeGIF failed: %v", err)
	}

	// Check GIF header
	if len(data) < 6 {
		t.Fatal("GIF data too short")
	}
	if string(data[0:6]) != "GIF89a" {
		t.Errorf("Invalid GIF header: %s", string(data[0:6]))
	}

	// Check trailer
	if data[len(data)-1] != 0x3b {
		t.Error("Missing GIF trailer")
	}

	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	r, gr, b, _ := g.Image[0].At(5, 5).RGBA()
	if r>>8 != 255 || gr>>8 != 0 || b>>8 != 0 {
		t.Errorf("Expected red pixel, got %d,%d,%d", r>>8, gr>>8, b>>8)
	}
	if g.Delay[0] != 10 {
		t.Errorf("Expected default delay of 10cs, got %d", g.Delay[0])
	}
}

func TestEncodeMultiFrameGIF(t *testing.T) {
	frames := make([]image.Image, 3)
	colors := []color.RGBA{
		{255, 0, 0, 255}, // Red
		{0, 255, 0, 255}, // Green
		{0, 0, 255, 255}, // Blue
	}

	for i := 0; i < 3; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 20, 20))
		for y := 0; y < 20; y++ {
			for x := 0; x < 20; x++ {
				img.Set(x, y, colors[i])
			}
		}
		frames[i] = img
	}

	delays := []int{100, 200, 300}
	gifData, err := EncodeGIF(frames, delays)
	if err != nil {
		t.Fatalf("EncodeGIF failed: %v", err)
	}

	// Verify GIF structure
	if string(gifData[0:6]) != "GIF89a" {
		t.Error("Invalid GIF header")
	}
	g, err := gif.DecodeAll(bytes.NewReader(gifData))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(g.Image) != 3 {
		t.Fatalf("Expected 3 frames, got %d", len(g.Image))
	}
	for i, want := range []int{10, 20, 30} {
		if g.Delay[i] != want {
			t.Errorf("Frame %d: expected delay %d, got %d", i, want, g.Delay[i])
		}
		r, gr, b, _ := g.Image[i].At(10, 10).RGBA()
		c := colors[i]
		if byte(r>>8) != c.R || byte(gr>>8) != c.G || byte(b>>8) != c.B {
			t.Errorf("Frame %d: expected %v, got %d,%d,%d", i, c, r>>8, gr>>8, b>>8)
		}
	}
}

func TestEncodeGIFNoImages(t *testing.T) {
	if _, err := EncodeGIF(nil, nil); err == nil {
		t.Error("Expected an error for an empty image list")
	}
}

func TestLZWEncoder(t *testing.T) {
	// Create simple test data
	pixels := make([]byte, 100)
	for i := range pixels {
		pixels[i] = byte(i % 10)
	}

	encoder := NewLZWEncoder(10, 10, pixels, 8)
	out := NewByteArray()
	encoder.Encode(out)

	data := out.GetData()
	if len(data) == 0 {
		t.Error("LZW encoder produced no output")
	}

	// Check initial code size
	if data[0] != 8 {
		t.Errorf("Expected initial code size 8, got %d", data[0])
	}
}

// Benchmark tests
func BenchmarkNeuQuant(b *testing.B) {
	pixels := make([]byte, 100*100*3)
	for i := range pixels {
		pixels[i] = byte(i % 256)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		nq := NewNeuQuant(pixels, 10)
		nq.BuildColormap()
	}
}

func BenchmarkEncodeFrame(b *testing.B) {
	frame := &Frame{Pixels: gradientRGBA(100, 100), Delay: 10}
	cfg := &frameConfig{width: 100, height: 100, quality: 10, first: true, last: true}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := encodeFrame(frame, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

// Integration test - creates actual GIF file
func TestCreateActualGIF(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Create animated GIF with gradient
	frames := make([]image.Image, 10)
	for f := 0; f < 10; f++ {
		img := image.NewRGBA(image.Rect(0, 0, 50, 50))
		for y := 0; y < 50; y++ {
			for x := 0; x < 50; x++ {
				r := uint8((x + f*5) % 256)
				g := uint8((y + f*5) % 256)
				b := uint8(200)
				img.Set(x, y, color.RGBA{r, g, b, 255})
			}
		}
		frames[f] = img
	}

	delays := make([]int, 10)
	for i := range delays {
		delays[i] = 100
	}

	gifData, err := EncodeGIF(frames, delays)
	if err != nil {
		t.Fatalf("EncodeGIF failed: %v", err)
	}

	// Save to file
	filename := filepath.Join(t.TempDir(), "test_output.gif")
	err = os.WriteFile(filename, gifData, 0644)
	if err != nil {
		t.Fatalf("Failed to write GIF file: %v", err)
	}

	f, err := os.Open(filename)
	if err != nil {
		t.Fatalf("Failed to open GIF file: %v", err)
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("Failed to decode GIF file: %v", err)
	}
	if len(g.Image) != 10 {
		t.Errorf("Expected 10 frames, got %d", len(g.Image))
	}

	t.Logf("Created test GIF: %s (%d bytes)", filename, len(gifData))
}

func TestTransparentColor(t *testing.T) {
	r, err := NewRenderer(Options{Width: 10, Height: 10})
	if err != nil {
		t.Fatal(err)
	}
	white := color.RGBA{255, 255, 255, 255}
	if err := r.AddFrame(solidRGBA(10, 10, white), FrameOptions{Delay: 100, Transparent: &white}); err != nil {
		t.Fatalf("AddFrame with transparent color failed: %v", err)
	}

	data, err := r.Render(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	info := walkGIF(t, data)
	if info.transparent[0] != 0 {
		t.Errorf("Expected transparent index 0, got %d", info.transparent[0])
	}
	if info.disposals[0] != 2 {
		t.Errorf("Expected disposal 2 with transparency, got %d", info.disposals[0])
	}
}

func TestEncodeWithOptions(t *testing.T) {
	// Create test frames
	frames := make([]image.Image, 3)
	for i := 0; i < 3; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 20, 20))
		for y := 0; y < 20; y++ {
			for x := 0; x < 20; x++ {
				img.Set(x, y, color.RGBA{uint8(i * 85), 0, 0, 255})
			}
		}
		frames[i] = img
	}

	opts := EncodeOptions{
		Width:         20,
		Height:        20,
		Repeat:        3,
		Quality:       1,
		Dither:        "FloydSteinberg-serpentine",
		GlobalPalette: true,
		Delays:        []int{100, 100, 100},
	}

	gifData, err := EncodeGIFWithOptions(frames, opts)
	if err != nil {
		t.Fatalf("EncodeGIFWithOptions failed: %v", err)
	}

	info := walkGIF(t, gifData)
	if info.globalTable == 0 || info.netscape != 1 || info.loopCount != 3 {
		t.Errorf("Unexpected structure: gct=%d netscape=%d loop=%d", info.globalTable, info.netscape, info.loopCount)
	}

	opts.Dither = "Bayer"
	if _, err := EncodeGIFWithOptions(frames, opts); !errors.Is(err, ErrUnknownDither) {
		t.Errorf("Expected ErrUnknownDither, got %v", err)
	}
}

func TestEncodeWithOptionsResizes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 10))
	gifData, err := EncodeGIFWithOptions([]image.Image{img}, EncodeOptions{Width: 20, Height: 20})
	if err != nil {
		t.Fatal(err)
	}
	g, err := gif.DecodeAll(bytes.NewReader(gifData))
	if err != nil {
		t.Fatal(err)
	}
	if g.Config.Width != 20 || g.Config.Height != 20 {
		t.Errorf("Expected a 20x20 screen, got %dx%d", g.Config.Width, g.Config.Height)
	}
}
