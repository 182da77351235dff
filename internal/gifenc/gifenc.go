// Package gifenc writes GIF89a structural blocks one at a time, so a caller
// can emit a file incrementally instead of encoding it in one shot the way
// image/gif does. Pixel data is indexed into the global color table; image
// data is LZW-compressed with the same stdlib coder image/gif uses.
package gifenc

import (
	"bytes"
	"compress/lzw"
)

// Disposal is the graphic control disposal method.
type Disposal byte

const (
	// DisposalNone leaves disposal unspecified.
	DisposalNone Disposal = 0
	// DisposalKeep instructs viewers to keep the previous frame's pixels
	// wherever the next frame is transparent.
	DisposalKeep Disposal = 1
)

// GraphicControl carries the fields of a graphic control extension.
type GraphicControl struct {
	Disposal         Disposal
	DelayCS          uint16
	TransparentIndex uint8
	HasTransparency  bool
}

// Encoder appends GIF blocks to a byte buffer. Each method writes exactly
// one structural unit; concatenating everything written between Header and
// Trailer yields a complete file.
type Encoder struct {
	buf *bytes.Buffer
}

func NewEncoder(buf *bytes.Buffer) *Encoder {
	return &Encoder{buf: buf}
}

func (e *Encoder) u16(v uint16) {
	e.buf.WriteByte(byte(v))
	e.buf.WriteByte(byte(v >> 8))
}

// Header writes the GIF89a signature.
func (e *Encoder) Header() {
	e.buf.WriteString("GIF89a")
}

// LogicalScreenDesc writes the screen descriptor announcing a global color
// table of 1<<paletteBits entries.
func (e *Encoder) LogicalScreenDesc(width, height, paletteBits int) {
	e.u16(uint16(width))
	e.u16(uint16(height))
	packed := byte(0x80) | byte(paletteBits-1)<<4 | byte(paletteBits-1)
	e.buf.WriteByte(packed)
	e.buf.WriteByte(0) // background color index
	e.buf.WriteByte(0) // pixel aspect ratio
}

// GlobalColorTable writes the palette as packed RGB triples, zero-padded to
// the 1<<paletteBits entries declared by the screen descriptor.
func (e *Encoder) GlobalColorTable(rgb []byte, paletteBits int) {
	e.buf.Write(rgb)
	if pad := 3<<paletteBits - len(rgb); pad > 0 {
		e.buf.Write(make([]byte, pad))
	}
}

// LoopForever writes the Netscape application extension with an infinite
// loop count.
func (e *Encoder) LoopForever() {
	e.buf.WriteByte(0x21) // extension introducer
	e.buf.WriteByte(0xff) // application extension
	e.buf.WriteByte(11)
	e.buf.WriteString("NETSCAPE2.0")
	e.buf.WriteByte(3)
	e.buf.WriteByte(1)
	e.u16(0) // 0 = loop forever
	e.buf.WriteByte(0)
}

// Comment writes a comment extension. Long comments span multiple
// sub-blocks.
func (e *Encoder) Comment(text []byte) {
	e.buf.WriteByte(0x21)
	e.buf.WriteByte(0xfe)
	for len(text) > 0 {
		n := len(text)
		if n > 255 {
			n = 255
		}
		e.buf.WriteByte(byte(n))
		e.buf.Write(text[:n])
		text = text[n:]
	}
	e.buf.WriteByte(0)
}

// GraphicControl writes a graphic control extension.
func (e *Encoder) GraphicControl(gc GraphicControl) {
	e.buf.WriteByte(0x21)
	e.buf.WriteByte(0xf9)
	e.buf.WriteByte(4)
	packed := byte(gc.Disposal) << 2
	if gc.HasTransparency {
		packed |= 1
	}
	e.buf.WriteByte(packed)
	e.u16(gc.DelayCS)
	e.buf.WriteByte(gc.TransparentIndex)
	e.buf.WriteByte(0)
}

// ImageDesc writes an image descriptor for a sub-image at (left, top). No
// local color table, no interlacing.
func (e *Encoder) ImageDesc(left, top, width, height int) {
	e.buf.WriteByte(0x2c)
	e.u16(uint16(left))
	e.u16(uint16(top))
	e.u16(uint16(width))
	e.u16(uint16(height))
	e.buf.WriteByte(0)
}

// ImageData LZW-compresses pix (palette indices, row-major, no padding) and
// writes it as a minimum-code-size byte followed by 255-byte sub-blocks and
// a block terminator.
func (e *Encoder) ImageData(pix []byte, paletteBits int) {
	litWidth := paletteBits
	if litWidth < 2 {
		litWidth = 2
	}
	e.buf.WriteByte(byte(litWidth))
	bw := &blockWriter{buf: e.buf}
	lw := lzw.NewWriter(bw, lzw.LSB, litWidth)
	// Writes to a bytes.Buffer cannot fail.
	_, _ = lw.Write(pix)
	_ = lw.Close()
	bw.flush()
	e.buf.WriteByte(0)
}

// Trailer writes the file terminator.
func (e *Encoder) Trailer() {
	e.buf.WriteByte(0x3b)
}

// blockWriter splits a byte stream into GIF data sub-blocks of at most 255
// bytes.
type blockWriter struct {
	buf   *bytes.Buffer
	block [255]byte
	n     int
}

func (w *blockWriter) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		n := copy(w.block[w.n:], p)
		w.n += n
		p = p[n:]
		if w.n == len(w.block) {
			w.flush()
		}
	}
	return total, nil
}

func (w *blockWriter) flush() {
	if w.n == 0 {
		return
	}
	w.buf.WriteByte(byte(w.n))
	w.buf.Write(w.block[:w.n])
	w.n = 0
}
