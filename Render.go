package gifencoder

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const defaultQuality = 10

// Options configure a Renderer.
type Options struct {
	Width  int
	Height int

	// Quality is the NeuQuant sampling factor, 1 (best) to 30 (fastest).
	// Zero selects 10.
	Quality int
	Dither  Dither

	// Repeat is the loop count: -1 omits the loop extension so the
	// animation plays once, 0 loops forever, n loops n extra times.
	Repeat int

	// GlobalPalette shares one palette between all frames. It is Palette
	// when given, otherwise learned from the first frame.
	GlobalPalette bool
	Palette       []byte

	Quantizer Quantizer

	// Workers bounds how many frames are encoded at once. Zero selects
	// GOMAXPROCS.
	Workers int

	// Progress is called from the rendering goroutine after each frame
	// completes with the fraction of frames done.
	Progress func(float64)

	Logger *slog.Logger
}

// FrameOptions describe one frame passed to AddFrame or AddImage.
type FrameOptions struct {
	Delay       int // milliseconds
	Transparent *color.RGBA
	Disposal    Disposal
	Effects     *Effects // AddImage only
}

// Renderer collects frames and renders them into a GIF89a stream.
// A Renderer is not safe for concurrent use.
type Renderer struct {
	opts    Options
	palette *Palette
	frames  []*Frame
	log     *slog.Logger
}

// NewRenderer validates opts and returns an empty Renderer.
func NewRenderer(opts Options) (*Renderer, error) {
	if opts.Width < 0 || opts.Height < 0 || opts.Width > math.MaxUint16 || opts.Height > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, opts.Width, opts.Height)
	}
	if !opts.Dither.Kernel.valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownDither, opts.Dither.Kernel)
	}
	if opts.Quantizer != QuantizerNeuQuant && opts.Quantizer != QuantizerMedianCut {
		return nil, fmt.Errorf("%w: %v", ErrUnknownQuantizer, opts.Quantizer)
	}
	if opts.Quality == 0 {
		opts.Quality = defaultQuality
	}
	opts.Quality = min(max(opts.Quality, minSampleFac), maxSampleFac)
	if opts.Repeat < -1 || opts.Repeat > math.MaxUint16 {
		return nil, fmt.Errorf("gifencoder: repeat count %d out of range", opts.Repeat)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	r := &Renderer{opts: opts, log: opts.Logger}
	if r.log == nil {
		r.log = slog.Default()
	}
	if opts.Palette != nil {
		p, err := NewPalette(opts.Palette)
		if err != nil {
			return nil, err
		}
		r.palette = p
		r.opts.GlobalPalette = true
	}
	return r, nil
}

// Len returns the number of queued frames.
func (r *Renderer) Len() int {
	return len(r.frames)
}

// AddFrame queues a width*height RGBA buffer. The buffer is copied.
func (r *Renderer) AddFrame(pixels []byte, opts FrameOptions) error {
	if want := r.opts.Width * r.opts.Height * 4; len(pixels) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(pixels), want)
	}
	delay, err := delayCentis(opts.Delay)
	if err != nil {
		return err
	}
	if !opts.Disposal.valid() {
		return fmt.Errorf("%w: %d", ErrDisposal, opts.Disposal)
	}

	f := &Frame{
		Pixels:   make([]byte, len(pixels)),
		Delay:    delay,
		Disposal: opts.Disposal,
	}
	copy(f.Pixels, pixels)
	if opts.Transparent != nil {
		t := *opts.Transparent
		f.Transparent = &t
	}
	r.frames = append(r.frames, f)
	return nil
}

// AddImage applies opts.Effects to img, fits it onto a black canvas of the
// renderer's size and queues the result.
func (r *Renderer) AddImage(img image.Image, opts FrameOptions) error {
	if opts.Effects != nil {
		img = opts.Effects.Apply(img)
	}
	canvas := Fit(img, r.opts.Width, r.opts.Height, color.Black)
	return r.AddFrame(canvas.Pix, opts)
}

// RemoveFrame drops the frame at index i.
func (r *Renderer) RemoveFrame(i int) error {
	if i < 0 || i >= len(r.frames) {
		return fmt.Errorf("%w: %d", ErrFrameIndex, i)
	}
	r.frames = append(r.frames[:i], r.frames[i+1:]...)
	return nil
}

// MoveFrame moves the frame at from so that it ends up at index to.
func (r *Renderer) MoveFrame(from, to int) error {
	if from < 0 || from >= len(r.frames) {
		return fmt.Errorf("%w: %d", ErrFrameIndex, from)
	}
	if to < 0 || to >= len(r.frames) {
		return fmt.Errorf("%w: %d", ErrFrameIndex, to)
	}
	f := r.frames[from]
	r.frames = append(r.frames[:from], r.frames[from+1:]...)
	r.frames = append(r.frames[:to], append([]*Frame{f}, r.frames[to:]...)...)
	return nil
}

// Render encodes all queued frames and returns the finished GIF. Frames are
// encoded concurrently and joined in the order they were added. If ctx is
// cancelled or any frame fails, nothing is returned.
func (r *Renderer) Render(ctx context.Context) ([]byte, error) {
	out, err := r.render(ctx)
	if err != nil {
		return nil, err
	}
	return out.GetData(), nil
}

// RenderTo renders like Render and writes the result to w.
func (r *Renderer) RenderTo(ctx context.Context, w io.Writer) (int64, error) {
	out, err := r.render(ctx)
	if err != nil {
		return 0, err
	}
	return out.WriteTo(w)
}

func (r *Renderer) render(ctx context.Context) (*ByteArray, error) {
	frames := append([]*Frame(nil), r.frames...)
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	global := r.palette
	if r.opts.GlobalPalette && global == nil {
		pixels := rgbPixels(frames[0].Pixels, r.opts.Width*r.opts.Height)
		global = buildPalette(pixels, r.opts.Width, r.opts.Height, r.opts.Quality, r.opts.Quantizer)
	}

	segments := make([][]byte, len(frames))
	done := make(chan int, len(frames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	waitc := make(chan error, 1)
	go func() {
		for i := range frames {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				seg, err := encodeFrame(frames[i], r.frameConfig(i, len(frames), global))
				if err != nil {
					return fmt.Errorf("frame %d: %w", i, err)
				}
				segments[i] = seg
				done <- i
				return nil
			})
		}
		waitc <- g.Wait()
	}()

	completed := 0
	report := func(i int) {
		completed++
		r.log.Debug("frame encoded", "index", i, "bytes", len(segments[i]))
		if r.opts.Progress != nil {
			r.opts.Progress(float64(completed) / float64(len(frames)))
		}
	}

	var werr error
wait:
	for {
		select {
		case i := <-done:
			report(i)
		case werr = <-waitc:
			break wait
		}
	}
	if werr != nil {
		return nil, werr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for len(done) > 0 {
		report(<-done)
	}

	out := NewByteArray()
	for _, seg := range segments {
		out.WriteBytes(seg)
	}
	r.log.Debug("render finished", "frames", len(frames), "bytes", out.Len())
	return out, nil
}

func (r *Renderer) frameConfig(i, n int, global *Palette) *frameConfig {
	return &frameConfig{
		width:     r.opts.Width,
		height:    r.opts.Height,
		quality:   r.opts.Quality,
		dither:    r.opts.Dither,
		quantizer: r.opts.Quantizer,
		global:    global,
		repeat:    r.opts.Repeat,
		first:     i == 0,
		last:      i == n-1,
	}
}

// Job is a render running in the background, see Renderer.Start.
type Job struct {
	progress chan float64
	done     chan struct{}
	data     []byte
	err      error
}

// Start renders in a new goroutine. Progress values are delivered on
// Job.Progress, which is closed when the render ends. The renderer must not
// be modified until Wait returns.
func (r *Renderer) Start(ctx context.Context) *Job {
	j := &Job{
		progress: make(chan float64, len(r.frames)),
		done:     make(chan struct{}),
	}
	user := r.opts.Progress
	go func() {
		defer close(j.done)
		defer close(j.progress)
		rr := *r
		rr.opts.Progress = func(p float64) {
			if user != nil {
				user(p)
			}
			j.progress <- p
		}
		j.data, j.err = rr.Render(ctx)
	}()
	return j
}

// Progress returns the channel of completed-frame fractions.
func (j *Job) Progress() <-chan float64 {
	return j.progress
}

// Wait blocks until the render ends and returns its result.
func (j *Job) Wait() ([]byte, error) {
	<-j.done
	return j.data, j.err
}
