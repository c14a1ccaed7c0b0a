package gifencoder

import "io"

const defaultPageSize = 4096

// ByteArray is an append-only byte sink that grows in fixed-size pages.
// The zero value is not usable, create one with NewByteArray.
type ByteArray struct {
	pages    [][]byte
	page     int
	cursor   int
	pageSize int
}

// NewByteArray creates a new ByteArray with the default page size
func NewByteArray() *ByteArray {
	ba := &ByteArray{
		page:     -1,
		pageSize: defaultPageSize,
	}
	ba.newPage()
	return ba
}

func (ba *ByteArray) newPage() {
	ba.page++
	ba.pages = append(ba.pages, make([]byte, ba.pageSize))
	ba.cursor = 0
}

// WriteByte appends a single byte. It never fails.
func (ba *ByteArray) WriteByte(val byte) error {
	if ba.cursor >= ba.pageSize {
		ba.newPage()
	}
	ba.pages[ba.page][ba.cursor] = val
	ba.cursor++
	return nil
}

// Write appends p and always reports len(p) bytes written.
func (ba *ByteArray) Write(p []byte) (int, error) {
	ba.WriteBytes(p)
	return len(p), nil
}

// WriteBytes appends data, spilling into new pages as needed.
func (ba *ByteArray) WriteBytes(data []byte) {
	for len(data) > 0 {
		if ba.cursor >= ba.pageSize {
			ba.newPage()
		}
		n := copy(ba.pages[ba.page][ba.cursor:], data)
		ba.cursor += n
		data = data[n:]
	}
}

// WriteUTFBytes writes one byte per character of s. Only meant for ASCII
// identifiers such as "GIF89a" and "NETSCAPE2.0".
func (ba *ByteArray) WriteUTFBytes(s string) {
	for i := 0; i < len(s); i++ {
		ba.WriteByte(s[i])
	}
}

// Len returns the number of bytes written so far.
func (ba *ByteArray) Len() int {
	return ba.page*ba.pageSize + ba.cursor
}

// GetData returns all written data as a single byte slice
func (ba *ByteArray) GetData() []byte {
	data := make([]byte, 0, ba.Len())
	for i, page := range ba.pages {
		if i < ba.page {
			data = append(data, page...)
		} else {
			data = append(data, page[:ba.cursor]...)
		}
	}
	return data
}

// WriteTo writes the pages to w in order.
func (ba *ByteArray) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, page := range ba.pages {
		if i == ba.page {
			page = page[:ba.cursor]
		}
		n, err := w.Write(page)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
