package hcert

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

// zlibMagic is the first byte of a zlib stream using deflate with a 32K window
const zlibMagic = 0x78

// ErrTooManyBytesRead is returned when a payload inflates past the configured limit
var ErrTooManyBytesRead = errors.New("too many bytes read")

// Decompress is the zlib stage of the chain. Payloads without a zlib header pass through as is.
// Inflating stops once more than maxBytes would be produced.
func Decompress(input []byte, maxBytes int64, result DecodeResult) ([]byte, DecodeResult) {
	if len(input) < 2 || input[0] != zlibMagic {
		result.ZlibDecoded = true
		return input, result
	}
	out, err := Inflate(input, maxBytes)
	if err != nil {
		return nil, result.withError(err.Error())
	}
	result.ZlibDecoded = true
	return out, result
}

// Inflate decompresses a zlib stream, failing with ErrTooManyBytesRead past maxBytes
func Inflate(input []byte, maxBytes int64) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, errors.Wrap(err, "opening zlib stream")
	}
	defer func() { _ = r.Close() }()

	// read one byte past the limit to tell "exactly at the limit" from "over it"
	out, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "inflating zlib stream")
	}
	if int64(len(out)) > maxBytes {
		return nil, ErrTooManyBytesRead
	}
	return out, nil
}

// Deflate compresses data as a zlib stream
func Deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err = w.Write(data); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
