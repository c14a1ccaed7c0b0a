package gifencoder

const (
	eof   = -1
	bits  = 12
	hsize = 5003 // 80% occupancy

	maxMaxCode  = 1 << bits
	packetLimit = 254
)

var masks = [...]int{
	0x0000, 0x0001, 0x0003, 0x0007, 0x000F, 0x001F,
	0x003F, 0x007F, 0x00FF, 0x01FF, 0x03FF, 0x07FF,
	0x0FFF, 0x1FFF, 0x3FFF, 0x7FFF, 0xFFFF,
}

// LZWEncoder compresses an indexed pixel buffer into GIF image data:
// the minimum code size byte, length-prefixed sub-blocks, and a zero-length
// terminator.
type LZWEncoder struct {
	width        int
	height       int
	pixels       []byte
	initCodeSize int

	remaining int
	curPixel  int

	out *ByteArray

	htab    [hsize]int
	codetab [hsize]int

	initBits  int
	nBits     int
	maxcode   int
	clearCode int
	eofCode   int
	freeEnt   int
	clearFlg  bool

	curAccum int
	curBits  int

	accum  [256]byte
	aCount int
}

// NewLZWEncoder creates an encoder for width*height indices of colorDepth
// bits each. Depths below 2 are raised to 2 as GIF requires.
func NewLZWEncoder(width, height int, pixels []byte, colorDepth int) *LZWEncoder {
	initCodeSize := colorDepth
	if initCodeSize < 2 {
		initCodeSize = 2
	}
	return &LZWEncoder{
		width:        width,
		height:       height,
		pixels:       pixels,
		initCodeSize: initCodeSize,
	}
}

// Encode writes the compressed image data to out.
func (enc *LZWEncoder) Encode(out *ByteArray) {
	out.WriteByte(byte(enc.initCodeSize))
	enc.out = out
	enc.remaining = enc.width * enc.height
	if enc.remaining > len(enc.pixels) {
		enc.remaining = len(enc.pixels)
	}
	enc.curPixel = 0
	enc.compress(enc.initCodeSize + 1)
	out.WriteByte(0) // block terminator
	enc.out = nil
}

func (enc *LZWEncoder) nextPixel() int {
	if enc.remaining == 0 {
		return eof
	}
	enc.remaining--
	pix := enc.pixels[enc.curPixel]
	enc.curPixel++
	return int(pix)
}

func (enc *LZWEncoder) compress(initBits int) {
	enc.initBits = initBits
	enc.clearFlg = false
	enc.nBits = initBits
	enc.maxcode = maxCode(enc.nBits)
	enc.clearCode = 1 << (initBits - 1)
	enc.eofCode = enc.clearCode + 1
	enc.freeEnt = enc.clearCode + 2
	enc.aCount = 0
	enc.curAccum = 0
	enc.curBits = 0

	hshift := 0
	for fcode := hsize; fcode < 65536; fcode *= 2 {
		hshift++
	}
	hshift = 8 - hshift // set hash code range bound

	enc.clearHash()
	enc.output(enc.clearCode)

	ent := enc.nextPixel()
	if ent == eof {
		enc.output(enc.eofCode)
		return
	}

outer:
	for {
		c := enc.nextPixel()
		if c == eof {
			break
		}

		fcode := (c << bits) + ent
		i := (c << hshift) ^ ent // xor hashing

		if enc.htab[i] == fcode {
			ent = enc.codetab[i]
			continue
		}
		if enc.htab[i] >= 0 { // non-empty slot, secondary hash (after G. Knott)
			disp := hsize - i
			if i == 0 {
				disp = 1
			}
			for {
				if i -= disp; i < 0 {
					i += hsize
				}
				if enc.htab[i] == fcode {
					ent = enc.codetab[i]
					continue outer
				}
				if enc.htab[i] < 0 {
					break
				}
			}
		}

		enc.output(ent)
		ent = c
		if enc.freeEnt < maxMaxCode {
			enc.codetab[i] = enc.freeEnt
			enc.freeEnt++
			enc.htab[i] = fcode
		} else {
			enc.clearBlock()
		}
	}

	enc.output(ent)
	enc.output(enc.eofCode)
}

func (enc *LZWEncoder) clearHash() {
	for i := range enc.htab {
		enc.htab[i] = -1
	}
}

// clearBlock resets the table and emits a clear code.
func (enc *LZWEncoder) clearBlock() {
	enc.clearHash()
	enc.freeEnt = enc.clearCode + 2
	enc.clearFlg = true
	enc.output(enc.clearCode)
}

func (enc *LZWEncoder) output(code int) {
	enc.curAccum &= masks[enc.curBits]
	if enc.curBits > 0 {
		enc.curAccum |= code << enc.curBits
	} else {
		enc.curAccum = code
	}
	enc.curBits += enc.nBits

	for enc.curBits >= 8 {
		enc.charOut(byte(enc.curAccum))
		enc.curAccum >>= 8
		enc.curBits -= 8
	}

	// If the next entry is going to be too big for the code size,
	// then increase it, if possible.
	if enc.freeEnt > enc.maxcode || enc.clearFlg {
		if enc.clearFlg {
			enc.nBits = enc.initBits
			enc.maxcode = maxCode(enc.nBits)
			enc.clearFlg = false
		} else {
			enc.nBits++
			if enc.nBits == bits {
				enc.maxcode = maxMaxCode
			} else {
				enc.maxcode = maxCode(enc.nBits)
			}
		}
	}

	if code == enc.eofCode {
		for enc.curBits > 0 {
			enc.charOut(byte(enc.curAccum))
			enc.curAccum >>= 8
			enc.curBits -= 8
		}
		enc.flushChar()
	}
}

// charOut buffers one byte and flushes a packet once it holds packetLimit.
func (enc *LZWEncoder) charOut(c byte) {
	enc.accum[enc.aCount] = c
	enc.aCount++
	if enc.aCount >= packetLimit {
		enc.flushChar()
	}
}

func (enc *LZWEncoder) flushChar() {
	if enc.aCount > 0 {
		enc.out.WriteByte(byte(enc.aCount))
		enc.out.WriteBytes(enc.accum[:enc.aCount])
		enc.aCount = 0
	}
}

func maxCode(nBits int) int {
	return (1 << nBits) - 1
}
