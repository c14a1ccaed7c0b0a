package gifencoder

import (
	"fmt"
	"image/color"
	"math"
)

// Disposal tells a decoder what to do with a frame before drawing the next.
type Disposal int

const (
	// DisposalAuto writes "unspecified", or "restore to background" when the
	// frame has a transparent colour.
	DisposalAuto Disposal = iota
	DisposalUnspecified
	DisposalNone
	DisposalBackground
	DisposalPrevious
)

func (d Disposal) valid() bool {
	return d >= DisposalAuto && d <= DisposalPrevious
}

// Frame is one RGBA frame queued for encoding. It is not modified once
// added to a Renderer.
type Frame struct {
	Pixels      []byte // width*height*4 bytes, row-major RGBA
	Delay       int    // hundredths of a second
	Transparent *color.RGBA
	Disposal    Disposal
}

// delayCentis converts a delay in milliseconds to the GIF's hundredths of a
// second, rejecting values the 16-bit field cannot hold.
func delayCentis(milliseconds int) (int, error) {
	if milliseconds < 0 {
		return 0, fmt.Errorf("%w: %dms is negative", ErrDelayRange, milliseconds)
	}
	cs := int(math.Round(float64(milliseconds) / 10))
	if cs > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %dms exceeds %d centiseconds", ErrDelayRange, milliseconds, math.MaxUint16)
	}
	return cs, nil
}

// frameConfig carries the session settings a frame is encoded with.
type frameConfig struct {
	width     int
	height    int
	quality   int
	dither    Dither
	quantizer Quantizer
	global    *Palette // shared read-only palette in global mode
	repeat    int      // -1 = no loop extension, 0 = forever
	first     bool
	last      bool
}

// frameEncoder serializes one frame. The header, logical screen descriptor,
// global color table and loop extension are written with the first frame,
// the trailer with the last.
type frameEncoder struct {
	cfg   *frameConfig
	frame *Frame

	pixels        []byte // RGB byte array from frame
	indexedPixels []byte // converted frame indexed to palette
	palette       *Palette
	usedEntry     [maxPaletteColors]bool
	colorTab      []byte // table written for this frame
	palSize       int    // color table size (bits-1)
	colorDepth    int    // number of bit planes
	transIndex    int

	out *ByteArray
}

// encodeFrame returns the bytes of f as a self-contained stream segment.
func encodeFrame(f *Frame, cfg *frameConfig) ([]byte, error) {
	fe := &frameEncoder{
		cfg:   cfg,
		frame: f,
		out:   NewByteArray(),
	}
	if err := fe.analyzePixels(); err != nil {
		return nil, err
	}

	if cfg.first {
		fe.writeHeader()
		fe.writeLSD()
		if cfg.global != nil {
			fe.writePalette()
		}
		if cfg.repeat >= 0 {
			fe.writeNetscapeExt()
		}
	}

	fe.writeGraphicCtrlExt()
	fe.writeImageDesc()
	if cfg.global == nil {
		fe.writePalette() // local color table
	}
	fe.writePixels()

	if cfg.last {
		fe.out.WriteByte(0x3b) // gif trailer
	}
	return fe.out.GetData(), nil
}

// rgbPixels extracts n RGB triplets from an RGBA buffer, dropping alpha.
func rgbPixels(rgba []byte, n int) []byte {
	pixels := make([]byte, n*3)
	for i, k := 0, 0; i < n && k+2 < len(rgba); i, k = i+1, k+4 {
		pixels[i*3] = rgba[k]
		pixels[i*3+1] = rgba[k+1]
		pixels[i*3+2] = rgba[k+2]
	}
	return pixels
}

// analyzePixels builds or adopts the palette, maps pixels to it and
// settles the color table written for this frame.
func (fe *frameEncoder) analyzePixels() error {
	cfg := fe.cfg
	if !cfg.dither.Kernel.valid() {
		return fmt.Errorf("%w: %v", ErrUnknownDither, cfg.dither.Kernel)
	}

	fe.pixels = rgbPixels(fe.frame.Pixels, cfg.width*cfg.height)
	fe.palette = cfg.global
	if fe.palette == nil {
		fe.palette = buildPalette(fe.pixels, cfg.width, cfg.height, cfg.quality, cfg.quantizer)
	}

	fe.indexedPixels = make([]byte, cfg.width*cfg.height)
	if taps := kernelTaps[cfg.dither.Kernel]; len(taps) > 0 {
		fe.ditherPixels(taps, cfg.dither.Serpentine)
	} else {
		fe.indexPixels()
	}
	fe.pixels = nil

	if t := fe.frame.Transparent; t != nil {
		fe.transIndex = fe.findClosestUsed(*t)
	}

	if cfg.global != nil {
		fe.colorTab = cfg.global.colors
		fe.palSize = tableBits(cfg.global.Len())
	} else {
		fe.compact()
	}
	fe.colorDepth = fe.palSize + 1
	return nil
}

// indexPixels maps pixels to their nearest palette entry without dithering.
func (fe *frameEncoder) indexPixels() {
	for j, k := 0, 0; j < len(fe.indexedPixels); j, k = j+1, k+3 {
		index := fe.palette.Lookup(fe.pixels[k], fe.pixels[k+1], fe.pixels[k+2])
		fe.usedEntry[index] = true
		fe.indexedPixels[j] = byte(index)
	}
}

// findClosestUsed returns the used palette entry closest to c, so a
// transparent colour never lands on a slot the frame does not reference.
func (fe *frameEncoder) findClosestUsed(c color.RGBA) int {
	best := -1
	dmin := 256 * 256 * 256
	for i := 0; i < fe.palette.Len(); i++ {
		if !fe.usedEntry[i] {
			continue
		}
		r, g, b := fe.palette.rgb(i)
		dr, dg, db := int(c.R)-r, int(c.G)-g, int(c.B)-b
		if d := dr*dr + dg*dg + db*db; d < dmin {
			dmin = d
			best = i
		}
	}
	if best < 0 {
		return fe.palette.Lookup(c.R, c.G, c.B)
	}
	return best
}

// compact rewrites the frame against only the palette entries it uses, in
// order of first use.
func (fe *frameEncoder) compact() {
	var remap [maxPaletteColors]int
	for i := range remap {
		remap[i] = -1
	}

	fe.colorTab = make([]byte, 0, maxPaletteColors*3)
	next := 0
	for j, index := range fe.indexedPixels {
		if remap[index] < 0 {
			remap[index] = next
			next++
			r, g, b := fe.palette.rgb(int(index))
			fe.colorTab = append(fe.colorTab, byte(r), byte(g), byte(b))
		}
		fe.indexedPixels[j] = byte(remap[index])
	}

	if fe.transIndex >= 0 && fe.transIndex < len(remap) && remap[fe.transIndex] >= 0 {
		fe.transIndex = remap[fe.transIndex]
	} else {
		fe.transIndex = 0
	}
	fe.palSize = tableBits(next)
}

func (fe *frameEncoder) writeHeader() {
	fe.out.WriteUTFBytes("GIF89a")
}

// writeLSD writes the Logical Screen Descriptor
func (fe *frameEncoder) writeLSD() {
	fe.writeShort(fe.cfg.width)
	fe.writeShort(fe.cfg.height)

	packed := 0x70 // 2-4 : color resolution = 7
	if fe.cfg.global != nil {
		packed |= 0x80 | // 1 : global color table flag
			fe.palSize // 6-8 : gct size
	}
	fe.out.WriteByte(byte(packed))

	fe.out.WriteByte(0) // background color index
	fe.out.WriteByte(0) // pixel aspect ratio - assume 1:1
}

// writeNetscapeExt writes the application extension carrying the loop count
func (fe *frameEncoder) writeNetscapeExt() {
	fe.out.WriteByte(0x21)              // extension introducer
	fe.out.WriteByte(0xff)              // app extension label
	fe.out.WriteByte(11)                // block size
	fe.out.WriteUTFBytes("NETSCAPE2.0") // app id + auth code
	fe.out.WriteByte(3)                 // sub-block size
	fe.out.WriteByte(1)                 // loop sub-block id
	fe.writeShort(fe.cfg.repeat)        // loop count (extra iterations, 0=repeat forever)
	fe.out.WriteByte(0)                 // block terminator
}

// writeGraphicCtrlExt writes the Graphic Control Extension
func (fe *frameEncoder) writeGraphicCtrlExt() {
	fe.out.WriteByte(0x21) // extension introducer
	fe.out.WriteByte(0xf9) // GCE label
	fe.out.WriteByte(4)    // data block size

	transp := 0
	disp := 0 // dispose = no action
	if fe.frame.Transparent != nil {
		transp = 1
		disp = 2 // force clear if using transparent color
	}
	if fe.frame.Disposal != DisposalAuto {
		disp = int(fe.frame.Disposal) - 1
	}

	fe.out.WriteByte(byte(
		0 | // 1:3 reserved
			disp<<2 | // 4:6 disposal
			0 | // 7 user input - 0 = none
			transp, // 8 transparency flag
	))

	fe.writeShort(fe.frame.Delay)         // delay x 1/100 sec
	fe.out.WriteByte(byte(fe.transIndex)) // transparent color index
	fe.out.WriteByte(0)                   // block terminator
}

// writeImageDesc writes the Image Descriptor
func (fe *frameEncoder) writeImageDesc() {
	fe.out.WriteByte(0x2c) // image separator
	fe.writeShort(0)       // image position x,y = 0,0
	fe.writeShort(0)
	fe.writeShort(fe.cfg.width)
	fe.writeShort(fe.cfg.height)

	if fe.cfg.global != nil {
		fe.out.WriteByte(0) // no LCT, the GCT applies
		return
	}
	fe.out.WriteByte(byte(
		0x80 | // 1 local color table 1=yes
			0 | // 2 interlace - 0=no
			0 | // 3 sorted - 0=no
			0 | // 4-5 reserved
			fe.palSize, // 6-8 size of color table
	))
}

// writePalette writes the color table padded to 2^(palSize+1) entries
func (fe *frameEncoder) writePalette() {
	fe.out.WriteBytes(fe.colorTab)
	n := 3*(1<<(fe.palSize+1)) - len(fe.colorTab)
	for i := 0; i < n; i++ {
		fe.out.WriteByte(0)
	}
}

// writeShort writes a 16-bit value in little-endian order
func (fe *frameEncoder) writeShort(value int) {
	fe.out.WriteByte(byte(value & 0xff))
	fe.out.WriteByte(byte((value >> 8) & 0xff))
}

func (fe *frameEncoder) writePixels() {
	enc := NewLZWEncoder(fe.cfg.width, fe.cfg.height, fe.indexedPixels, fe.colorDepth)
	enc.Encode(fe.out)
}
