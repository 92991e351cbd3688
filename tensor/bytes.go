package tensor

import (
	"encoding/binary"
	"math"

	"github.com/zerfoo/gotensor/numeric"
	"github.com/zerfoo/gotensor/tensorerr"
)

// ToLittleEndianBytes serializes a's buffer as raw little-endian element
// bytes, in row-major order regardless of a's own strides (it copies first
// so the on-disk layout is always contiguous). Used by package tensorio.
func (a *Array) ToLittleEndianBytes() ([]byte, error) {
	contig, err := a.Copy()
	if err != nil {
		return nil, err
	}

	size := contig.TotalSize()
	buf := make([]byte, size*a.dtype.ItemSize())

	switch a.dtype {
	case numeric.I32:
		for i, v := range contig.i32 {
			binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
		}
	case numeric.I64:
		for i, v := range contig.i64 {
			binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
		}
	case numeric.F32:
		for i, v := range contig.f32 {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
		}
	case numeric.F64:
		for i, v := range contig.f64 {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
		}
	default:
		return nil, tensorerr.New(tensorerr.InvalidDtype, "unsupported dtype %v for serialization", a.dtype)
	}

	return buf, nil
}

// FromLittleEndianBytes reconstructs a contiguous row-major Array of shape
// and dtype from raw little-endian element bytes (the inverse of
// ToLittleEndianBytes).
func FromLittleEndianBytes(dtype numeric.DType, shape []int, buf []byte) (*Array, error) {
	out, err := New(dtype, shape)
	if err != nil {
		return nil, err
	}

	size := out.TotalSize()
	itemSize := dtype.ItemSize()

	if len(buf) != size*itemSize {
		return nil, tensorerr.New(tensorerr.FileFormatError, "buffer length %d does not match expected %d", len(buf), size*itemSize)
	}

	switch dtype {
	case numeric.I32:
		for i := range out.i32 {
			out.i32[i] = int32(binary.LittleEndian.Uint32(buf[i*4:]))
		}
	case numeric.I64:
		for i := range out.i64 {
			out.i64[i] = int64(binary.LittleEndian.Uint64(buf[i*8:]))
		}
	case numeric.F32:
		for i := range out.f32 {
			out.f32[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		}
	case numeric.F64:
		for i := range out.f64 {
			out.f64[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
		}
	default:
		return nil, tensorerr.New(tensorerr.InvalidDtype, "unsupported dtype %v for deserialization", dtype)
	}

	return out, nil
}
