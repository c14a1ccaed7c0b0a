// Package project loads GIF project manifests: a JSON file naming the input
// images and the settings used to render them.
//
//	{
//	  "width": 320, "height": 240, "fps": 12,
//	  "dither": "FloydSteinberg-serpentine", "repeat": 0,
//	  "effects": {"contrast": 10, "grain": 25, "seed": 7},
//	  "frames": [
//	    "intro/*.png",
//	    {"path": "logo.png", "delay": 1500, "transparent": "#ffffff", "disposal": "background"}
//	  ]
//	}
//
// Frame paths are relative to the manifest and may contain * and ? in their
// last element.
package project

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	gifencoder "github.com/ManInM00N/memegif"
	"github.com/tidwall/gjson"
	"github.com/tidwall/match"
)

// ErrInvalid is returned for manifests that cannot be rendered.
var ErrInvalid = errors.New("project: invalid manifest")

// Manifest is a parsed project.
type Manifest struct {
	Width  int // 0 takes the size of the first frame
	Height int
	FPS    int

	Quality       int
	Dither        string
	Quantizer     string
	Repeat        int
	GlobalPalette bool
	Workers       int

	Effects *gifencoder.Effects
	Frames  []Frame
}

// Frame is one input image.
type Frame struct {
	Path        string
	Delay       int // milliseconds, 0 derives it from FPS
	Transparent *color.RGBA
	Disposal    gifencoder.Disposal
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a manifest. Frame paths are resolved against dir.
func Parse(data []byte, dir string) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalid)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: top level must be an object", ErrInvalid)
	}

	m := &Manifest{
		Width:         int(doc.Get("width").Int()),
		Height:        int(doc.Get("height").Int()),
		FPS:           int(doc.Get("fps").Int()),
		Quality:       int(doc.Get("quality").Int()),
		Dither:        doc.Get("dither").String(),
		Quantizer:     doc.Get("quantizer").String(),
		Repeat:        int(doc.Get("repeat").Int()),
		GlobalPalette: doc.Get("globalPalette").Bool(),
		Workers:       int(doc.Get("workers").Int()),
	}
	if v := doc.Get("loop"); v.Type == gjson.False {
		m.Repeat = -1
	}
	if m.Width < 0 || m.Height < 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalid, m.Width, m.Height)
	}
	if m.FPS < 0 {
		return nil, fmt.Errorf("%w: fps %d", ErrInvalid, m.FPS)
	}

	if e := doc.Get("effects"); e.Exists() {
		if !e.IsObject() {
			return nil, fmt.Errorf("%w: effects must be an object", ErrInvalid)
		}
		m.Effects = &gifencoder.Effects{
			Blur:       float32(e.Get("blur").Float()),
			Contrast:   float32(e.Get("contrast").Float()),
			Saturation: float32(e.Get("saturation").Float()),
			Brightness: float32(e.Get("brightness").Float()),
			Grain:      float32(e.Get("grain").Float()),
			Seed:       e.Get("seed").Int(),
		}
	}

	frames := doc.Get("frames")
	if !frames.IsArray() {
		return nil, fmt.Errorf("%w: frames must be an array", ErrInvalid)
	}
	for i, v := range frames.Array() {
		if err := m.addFrameValue(dir, v); err != nil {
			return nil, fmt.Errorf("frames[%d]: %w", i, err)
		}
	}
	if len(m.Frames) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrInvalid)
	}
	return m, nil
}

func (m *Manifest) addFrameValue(dir string, v gjson.Result) error {
	if v.Type == gjson.String {
		return m.AddFrames(dir, v.Str, Frame{})
	}
	if !v.IsObject() {
		return fmt.Errorf("%w: want a path or an object", ErrInvalid)
	}

	path := v.Get("path").String()
	if path == "" {
		path = v.Get("glob").String()
	}
	if path == "" {
		return fmt.Errorf("%w: missing path", ErrInvalid)
	}

	tmpl := Frame{Delay: int(v.Get("delay").Int())}
	if tmpl.Delay < 0 {
		return fmt.Errorf("%w: delay %d", ErrInvalid, tmpl.Delay)
	}
	if t := v.Get("transparent"); t.Exists() {
		c, err := ParseColor(t.String())
		if err != nil {
			return err
		}
		tmpl.Transparent = &c
	}
	d, err := ParseDisposal(v.Get("disposal").String())
	if err != nil {
		return err
	}
	tmpl.Disposal = d
	return m.AddFrames(dir, path, tmpl)
}

// AddFrames appends one frame per file matching pattern, sorted by name,
// each a copy of tmpl. A pattern without wildcards names a single file
// that need not exist yet.
func (m *Manifest) AddFrames(dir, pattern string, tmpl Frame) error {
	paths, err := Expand(dir, pattern)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("%w: %q matches no files", ErrInvalid, pattern)
	}
	for _, p := range paths {
		f := tmpl
		f.Path = p
		m.Frames = append(m.Frames, f)
	}
	return nil
}

// Expand resolves pattern against dir. Wildcards are only honoured in the
// last path element.
func Expand(dir, pattern string) ([]string, error) {
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(dir, pattern)
	}
	parent, base := filepath.Split(pattern)
	if !match.IsPattern(base) {
		return []string{pattern}, nil
	}
	if parent == "" {
		parent = "."
	}

	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !match.Match(e.Name(), base) {
			continue
		}
		paths = append(paths, filepath.Join(parent, e.Name()))
	}
	return paths, nil
}

// Delay returns the delay of frame i in milliseconds.
func (m *Manifest) Delay(i int) int {
	if d := m.Frames[i].Delay; d > 0 {
		return d
	}
	return gifencoder.DelayForFPS(m.FPS)
}

// Options returns renderer options for the manifest. Width and Height are
// copied as is.
func (m *Manifest) Options() (gifencoder.Options, error) {
	dither, err := gifencoder.ParseDither(m.Dither)
	if err != nil {
		return gifencoder.Options{}, err
	}
	q, err := gifencoder.ParseQuantizer(m.Quantizer)
	if err != nil {
		return gifencoder.Options{}, err
	}
	return gifencoder.Options{
		Width:         m.Width,
		Height:        m.Height,
		Quality:       m.Quality,
		Dither:        dither,
		Repeat:        m.Repeat,
		GlobalPalette: m.GlobalPalette,
		Quantizer:     q,
		Workers:       m.Workers,
	}, nil
}

// FrameOptions returns the options frame i is added with.
func (m *Manifest) FrameOptions(i int) gifencoder.FrameOptions {
	f := m.Frames[i]
	return gifencoder.FrameOptions{
		Delay:       m.Delay(i),
		Transparent: f.Transparent,
		Disposal:    f.Disposal,
		Effects:     m.Effects,
	}
}

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: colour %q", ErrInvalid, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: colour %q", ErrInvalid, s)
	}
	return color.RGBA{byte(v >> 16), byte(v >> 8), byte(v), 0xff}, nil
}

// ParseDisposal maps "", "auto", "unspecified", "none", "background" and
// "previous" to a Disposal.
func ParseDisposal(s string) (gifencoder.Disposal, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return gifencoder.DisposalAuto, nil
	case "unspecified":
		return gifencoder.DisposalUnspecified, nil
	case "none", "keep":
		return gifencoder.DisposalNone, nil
	case "background":
		return gifencoder.DisposalBackground, nil
	case "previous":
		return gifencoder.DisposalPrevious, nil
	}
	return 0, fmt.Errorf("%w: disposal %q", ErrInvalid, s)
}
