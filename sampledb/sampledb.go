// Package sampledb accumulates radiance samples per pixel.
//
// A SampleDB can be written to disk and read back, so a render can be resumed
// to collect more samples.
package sampledb

import (
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"row-major/pathtracer/vmath/vec3"
)

const dataLayoutVersion = 1

type SampleDB struct {
	RowSize, ColSize int

	// RadianceSums holds three channels per pixel, row-major.
	RadianceSums []float64
	SampleCounts []float64
}

type Sample struct {
	RadianceSum vec3.T
	SampleCount float64
}

// Mean is the estimated radiance of the pixel.  A pixel with no samples is
// black.
func (s Sample) Mean() vec3.T {
	if s.SampleCount == 0 {
		return vec3.T{}
	}
	return vec3.DivVS(s.RadianceSum, s.SampleCount)
}

func New(rowSize, colSize int) *SampleDB {
	s := &SampleDB{}
	s.Resize(rowSize, colSize)
	return s
}

func (s *SampleDB) Resize(rowSize, colSize int) {
	s.RowSize = rowSize
	s.ColSize = colSize

	s.RadianceSums = make([]float64, rowSize*colSize*3)
	s.SampleCounts = make([]float64, rowSize*colSize)
}

func (s *SampleDB) RecordSample(r, c int, radiance vec3.T) {
	idx := r*s.ColSize + c
	s.RadianceSums[idx*3+0] += radiance[0]
	s.RadianceSums[idx*3+1] += radiance[1]
	s.RadianceSums[idx*3+2] += radiance[2]
	s.SampleCounts[idx] += 1
}

func (s *SampleDB) ReadSample(r, c int) Sample {
	idx := r*s.ColSize + c
	return Sample{
		RadianceSum: vec3.T{
			s.RadianceSums[idx*3+0],
			s.RadianceSums[idx*3+1],
			s.RadianceSums[idx*3+2],
		},
		SampleCount: s.SampleCounts[idx],
	}
}

// TotalSamples counts samples in rows [rowSrc, rowLim).
func (s *SampleDB) TotalSamples(rowSrc, rowLim int) int {
	total := 0
	for i := rowSrc * s.ColSize; i < rowLim*s.ColSize; i++ {
		total += int(s.SampleCounts[i])
	}
	return total
}

func (s *SampleDB) Cut(rowSrc, rowLim, colSrc, colLim int) *SampleDB {
	dst := New(rowLim-rowSrc, colLim-colSrc)

	dstIndex := 0
	for r := rowSrc; r < rowLim; r++ {
		for c := colSrc; c < colLim; c++ {
			srcIndex := r*s.ColSize + c

			copy(dst.RadianceSums[dstIndex*3:dstIndex*3+3], s.RadianceSums[srcIndex*3:srcIndex*3+3])
			dst.SampleCounts[dstIndex] = s.SampleCounts[srcIndex]

			dstIndex++
		}
	}

	return dst
}

func (s *SampleDB) Paste(src *SampleDB, rowSrc, colSrc int) {
	for r := 0; r < src.RowSize; r++ {
		for c := 0; c < src.ColSize; c++ {
			dstIndex := (r+rowSrc)*s.ColSize + (c + colSrc)
			srcIndex := r*src.ColSize + c

			copy(s.RadianceSums[dstIndex*3:dstIndex*3+3], src.RadianceSums[srcIndex*3:srcIndex*3+3])
			s.SampleCounts[dstIndex] = src.SampleCounts[srcIndex]
		}
	}
}

func headerInt(hdr *structpb.Struct, key string) (int, error) {
	v, ok := hdr.GetFields()[key]
	if !ok {
		return 0, fmt.Errorf("header is missing %q", key)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("header field %q is not a number", key)
	}
	return int(n.NumberValue), nil
}

func ReadSampleDB(in io.Reader) (*SampleDB, error) {
	// Read header length.
	var headerLength uint64
	if err := binary.Read(in, binary.LittleEndian, &headerLength); err != nil {
		return nil, fmt.Errorf("while reading header length: %w", err)
	}

	headerBytes := make([]byte, int(headerLength))
	if _, err := io.ReadFull(in, headerBytes); err != nil {
		return nil, fmt.Errorf("while reading header bytes: %w", err)
	}

	hdr := &structpb.Struct{}
	if err := proto.Unmarshal(headerBytes, hdr); err != nil {
		return nil, fmt.Errorf("while unmarshaling header: %w", err)
	}

	version, err := headerInt(hdr, "dataLayoutVersion")
	if err != nil {
		return nil, err
	}
	if version != dataLayoutVersion {
		return nil, fmt.Errorf("bad data layout version: %v", version)
	}

	rowSize, err := headerInt(hdr, "rowSize")
	if err != nil {
		return nil, err
	}
	colSize, err := headerInt(hdr, "colSize")
	if err != nil {
		return nil, err
	}
	if rowSize < 0 || colSize < 0 {
		return nil, fmt.Errorf("bad dimensions %dx%d", rowSize, colSize)
	}

	s := New(rowSize, colSize)

	zipReader, err := zlib.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("while opening zip reader: %w", err)
	}
	defer zipReader.Close()

	if err := binary.Read(zipReader, binary.LittleEndian, s.RadianceSums); err != nil {
		return nil, fmt.Errorf("while reading radiance sums: %w", err)
	}

	if err := binary.Read(zipReader, binary.LittleEndian, s.SampleCounts); err != nil {
		return nil, fmt.Errorf("while reading sample counts: %w", err)
	}

	return s, nil
}

func ReadSampleDBFromFile(name string) (*SampleDB, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("while opening file: %w", err)
	}
	defer f.Close()

	return ReadSampleDB(f)
}

func WriteSampleDB(s *SampleDB, w io.Writer) error {
	hdr, err := structpb.NewStruct(map[string]interface{}{
		"rowSize":           s.RowSize,
		"colSize":           s.ColSize,
		"dataLayoutVersion": dataLayoutVersion,
	})
	if err != nil {
		return fmt.Errorf("while building header: %w", err)
	}

	hdrBytes, err := proto.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("while marshaling header: %w", err)
	}

	headerLengthBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(headerLengthBytes, uint64(len(hdrBytes)))
	if _, err := w.Write(headerLengthBytes); err != nil {
		return fmt.Errorf("while writing header length: %w", err)
	}

	if _, err := w.Write(hdrBytes); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	zipWriter := zlib.NewWriter(w)

	if err := binary.Write(zipWriter, binary.LittleEndian, s.RadianceSums); err != nil {
		return fmt.Errorf("while writing radiance sums: %w", err)
	}

	if err := binary.Write(zipWriter, binary.LittleEndian, s.SampleCounts); err != nil {
		return fmt.Errorf("while writing sample counts: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("while closing zip writer: %w", err)
	}

	return nil
}

// WriteSampleDBToFile writes to name.tmp, then renames it over name.
func WriteSampleDBToFile(s *SampleDB, name string) error {
	tmpName := name + ".tmp"
	f, err := os.Create(tmpName)
	if err != nil {
		return fmt.Errorf("while creating file: %w", err)
	}

	if err := WriteSampleDB(s, f); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("while closing file: %w", err)
	}

	if err := os.Rename(tmpName, name); err != nil {
		return fmt.Errorf("while renaming checkpoint into place: %w", err)
	}

	return nil
}
