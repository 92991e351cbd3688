// Package tensorio implements the fixed-format tensor persistence described
// in spec.md §6: an 8-byte ASCII magic, a dtype/ndim header, the shape and
// stride vectors, and the raw little-endian element buffer. Grounded on
// model/tensor_encoder.go's encoding/binary byte-level style (the teacher's
// own protobuf-based zmf format cannot express this fixed header — see
// DESIGN.md).
package tensorio

import (
	"encoding/binary"
	"io"

	"github.com/zerfoo/gotensor/numeric"
	"github.com/zerfoo/gotensor/tensor"
	"github.com/zerfoo/gotensor/tensorerr"
)

// magic is the fixed 8-byte ASCII header identifying a gotensor file.
const magic = "C-TENSOR"

// headerSize is the fixed byte length of the magic + dtype + ndim + buffer_elems header.
const headerSize = 8 + 4 + 4 + 8

// dtypeCode maps numeric.DType to the wire-format dtype tag spec.md §6
// fixes at exactly 4 values (0=I32, 1=F32, 2=F64, 3=I64).
func dtypeCode(dt numeric.DType) (uint32, error) {
	switch dt {
	case numeric.I32:
		return 0, nil
	case numeric.F32:
		return 1, nil
	case numeric.F64:
		return 2, nil
	case numeric.I64:
		return 3, nil
	default:
		return 0, tensorerr.New(tensorerr.InvalidDtype, "unsupported dtype %v for persistence", dt)
	}
}

func dtypeFromCode(code uint32) (numeric.DType, error) {
	switch code {
	case 0:
		return numeric.I32, nil
	case 1:
		return numeric.F32, nil
	case 2:
		return numeric.F64, nil
	case 3:
		return numeric.I64, nil
	default:
		return 0, tensorerr.New(tensorerr.FileFormatError, "unrecognized dtype code %d", code)
	}
}

// Save writes a in the fixed format to w: header, shape, byte strides, then
// raw little-endian element bytes (always row-major contiguous, regardless
// of a's own strides).
func Save(w io.Writer, a *tensor.Array) error {
	code, err := dtypeCode(a.DType())
	if err != nil {
		return err
	}

	shape := a.Shape()
	ndim := len(shape)
	itemSize := a.DType().ItemSize()

	header := make([]byte, headerSize)
	copy(header[0:8], magic)
	binary.LittleEndian.PutUint32(header[8:12], code)
	binary.LittleEndian.PutUint32(header[12:16], uint32(ndim)) //nolint:gosec // ndim bounded by MaxNDim
	binary.LittleEndian.PutUint64(header[16:24], uint64(a.TotalSize()))

	if _, err := w.Write(header); err != nil {
		return tensorerr.New(tensorerr.FileWriteFailure, "writing header: %v", err)
	}

	rowMajorStrides := contiguousByteStrides(shape, itemSize)

	if err := writeUint64Vec(w, shape); err != nil {
		return err
	}

	if err := writeUint64Vec(w, rowMajorStrides); err != nil {
		return err
	}

	buf, err := a.ToLittleEndianBytes()
	if err != nil {
		return err
	}

	if _, err := w.Write(buf); err != nil {
		return tensorerr.New(tensorerr.FileWriteFailure, "writing element buffer: %v", err)
	}

	return nil
}

// contiguousByteStrides computes the byte strides a freshly allocated,
// row-major array of shape would carry (spec.md §3's stride invariant),
// which is what Save always writes since ToLittleEndianBytes copies to
// contiguous order first.
func contiguousByteStrides(shape []int, itemSize int) []int {
	strides := make([]int, len(shape))
	stride := itemSize

	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}

	return strides
}

func writeUint64Vec(w io.Writer, vals []int) error {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(v)) //nolint:gosec // shape/stride values are non-negative
	}

	if _, err := w.Write(buf); err != nil {
		return tensorerr.New(tensorerr.FileWriteFailure, "writing vector: %v", err)
	}

	return nil
}

func readUint64Vec(r io.Reader, n int) ([]int, error) {
	buf := make([]byte, 8*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, tensorerr.New(tensorerr.FileReadFailure, "reading vector: %v", err)
	}

	out := make([]int, n)
	for i := range out {
		out[i] = int(binary.LittleEndian.Uint64(buf[i*8:]))
	}

	return out, nil
}

// Load reconstructs an Array from r, the inverse of Save. The returned
// Array's strides are always the contiguous row-major strides the stored
// buffer was written in; the on-disk stride vector is read but not
// otherwise trusted, since Save never persists a non-contiguous view.
func Load(r io.Reader) (*tensor.Array, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, tensorerr.New(tensorerr.FileReadFailure, "reading header: %v", err)
	}

	if string(header[0:8]) != magic {
		return nil, tensorerr.New(tensorerr.FileFormatError, "bad magic %q", header[0:8])
	}

	dt, err := dtypeFromCode(binary.LittleEndian.Uint32(header[8:12]))
	if err != nil {
		return nil, err
	}

	ndim := int(binary.LittleEndian.Uint32(header[12:16]))
	bufferElems := binary.LittleEndian.Uint64(header[16:24])

	shape, err := readUint64Vec(r, ndim)
	if err != nil {
		return nil, err
	}

	// Byte strides are part of the wire format but Load always reconstructs a
	// fresh contiguous Array (spec.md §3: arrays own their buffer exclusively),
	// so they are read only to advance past them and validated for length.
	if _, err := readUint64Vec(r, ndim); err != nil {
		return nil, err
	}

	itemSize := dt.ItemSize()
	buf := make([]byte, int(bufferElems)*itemSize) //nolint:gosec // bufferElems bounded by file size in practice

	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, tensorerr.New(tensorerr.FileReadFailure, "reading element buffer: %v", err)
	}

	return tensor.FromLittleEndianBytes(dt, shape, buf)
}
