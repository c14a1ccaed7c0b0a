package gifencoder

import (
	"bytes"
	"compress/lzw"
	"encoding/binary"
	"image/color"
	"io"
	"testing"
)

// gifInfo is what walkGIF found in a stream.
type gifInfo struct {
	width, height int
	globalTable   int // entries, 0 when absent
	netscape      int
	loopCount     int
	gce           int
	images        int
	trailer       bool

	delays       []int
	disposals    []int
	transparent  []int // -1 when the frame has none
	localTables  []int // entries, 0 when absent
	minCodeSizes []int
	imageData    [][]byte // sub-blocks joined
}

// walkGIF checks the block structure of data and records what it saw.
func walkGIF(t *testing.T, data []byte) *gifInfo {
	t.Helper()
	p := 0
	need := func(n int) []byte {
		t.Helper()
		if p+n > len(data) {
			t.Fatalf("stream truncated at %d, need %d more bytes", p, n)
		}
		b := data[p : p+n]
		p += n
		return b
	}
	subBlocks := func() []byte {
		var out []byte
		for {
			n := int(need(1)[0])
			if n == 0 {
				return out
			}
			out = append(out, need(n)...)
		}
	}

	if sig := string(need(6)); sig != "GIF89a" {
		t.Fatalf("bad signature %q", sig)
	}
	lsd := need(7)
	info := &gifInfo{
		width:  int(binary.LittleEndian.Uint16(lsd[0:2])),
		height: int(binary.LittleEndian.Uint16(lsd[2:4])),
	}
	if lsd[4]&0x80 != 0 {
		info.globalTable = 1 << (lsd[4]&7 + 1)
		need(3 * info.globalTable)
	}

	for {
		switch b := need(1)[0]; b {
		case 0x21:
			switch label := need(1)[0]; label {
			case 0xf9:
				blk := subBlocks()
				if len(blk) != 4 {
					t.Fatalf("graphic control extension has %d bytes", len(blk))
				}
				info.gce++
				info.disposals = append(info.disposals, int(blk[0]>>2&7))
				info.delays = append(info.delays, int(binary.LittleEndian.Uint16(blk[1:3])))
				if blk[0]&1 != 0 {
					info.transparent = append(info.transparent, int(blk[3]))
				} else {
					info.transparent = append(info.transparent, -1)
				}
			case 0xff:
				blk := subBlocks()
				if len(blk) >= 14 && string(blk[:11]) == "NETSCAPE2.0" {
					info.netscape++
					info.loopCount = int(binary.LittleEndian.Uint16(blk[12:14]))
				}
			default:
				subBlocks()
			}
		case 0x2c:
			desc := need(9)
			if w := int(binary.LittleEndian.Uint16(desc[4:6])); w != info.width {
				t.Errorf("image width %d, screen width %d", w, info.width)
			}
			info.images++
			lct := 0
			if desc[8]&0x80 != 0 {
				lct = 1 << (desc[8]&7 + 1)
				need(3 * lct)
			}
			info.localTables = append(info.localTables, lct)
			info.minCodeSizes = append(info.minCodeSizes, int(need(1)[0]))
			info.imageData = append(info.imageData, subBlocks())
		case 0x3b:
			info.trailer = p == len(data)
			return info
		default:
			t.Fatalf("unexpected block 0x%02x at offset %d", b, p-1)
		}
	}
}

// decodeLZW inflates GIF image data that has already been joined from its
// sub-blocks.
func decodeLZW(t *testing.T, litWidth int, data []byte) []byte {
	t.Helper()
	r := lzw.NewReader(bytes.NewReader(data), lzw.LSB, litWidth)
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("lzw decode: %v", err)
	}
	return out
}

// solidRGBA returns a w*h RGBA buffer filled with c.
func solidRGBA(w, h int, c color.RGBA) []byte {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
	return pix
}

// gradientRGBA returns a w*h RGBA buffer with a red/green gradient.
func gradientRGBA(w, h int) []byte {
	pix := make([]byte, 0, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix = append(pix, byte(x*255/max(w-1, 1)), byte(y*255/max(h-1, 1)), 128, 255)
		}
	}
	return pix
}
