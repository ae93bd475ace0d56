package core

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
)

// SampleHeader precedes an encoded sample array.
type SampleHeader struct {
	Magic    uint32 // "BFLD" magic number
	Version  uint16 // format version
	Reserved uint16
	Count    uint32 // number of float64 samples
	Checksum uint32 // IEEE CRC32 of the sample bytes
}

const (
	SampleMagic      = 0x444C4642 // "BFLD" in little endian
	SampleVersion    = 1
	SampleHeaderSize = 16 // sizeof(SampleHeader)
)

// Serialization errors
var (
	ErrShortBuffer = errors.New("data too short for header")
	ErrBadMagic    = errors.New("invalid magic number")
	ErrBadVersion  = errors.New("unsupported format version")
	ErrChecksum    = errors.New("checksum mismatch")
)

// EncodeSamples writes values as little-endian float64 behind a
// SampleHeader.
func EncodeSamples(values []float64) []byte {
	body := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(body[8*i:], math.Float64bits(v))
	}

	header := SampleHeader{
		Magic:    SampleMagic,
		Version:  SampleVersion,
		Count:    uint32(len(values)),
		Checksum: crc32.ChecksumIEEE(body),
	}

	buffer := bytes.NewBuffer(make([]byte, 0, SampleHeaderSize+len(body)))
	// Writes to a bytes.Buffer cannot fail.
	_ = binary.Write(buffer, binary.LittleEndian, header)
	buffer.Write(body)
	return buffer.Bytes()
}

// DecodeSamples reads an array written by EncodeSamples and verifies its
// checksum.
func DecodeSamples(data []byte) ([]float64, error) {
	if len(data) < SampleHeaderSize {
		return nil, ErrShortBuffer
	}

	var header SampleHeader
	if err := binary.Read(bytes.NewReader(data[:SampleHeaderSize]), binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	if header.Magic != SampleMagic {
		return nil, fmt.Errorf("%w: %#x", ErrBadMagic, header.Magic)
	}
	if header.Version != SampleVersion {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, header.Version)
	}

	body := data[SampleHeaderSize:]
	if uint64(len(body)) != 8*uint64(header.Count) {
		return nil, fmt.Errorf("%w: %d bytes for %d samples", ErrShortBuffer, len(body), header.Count)
	}
	if crc32.ChecksumIEEE(body) != header.Checksum {
		return nil, ErrChecksum
	}

	values := make([]float64, header.Count)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(body[8*i:]))
	}
	return values, nil
}
