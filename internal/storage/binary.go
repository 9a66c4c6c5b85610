package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxDumpElements bounds counts read from a file header.
const maxDumpElements = 1 << 30

// WriteParticles writes a little-endian uint64 count followed by x, y, z
// float64 triples.
func WriteParticles(w io.Writer, positions []r3.Vec) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(positions))); err != nil {
		return err
	}
	buf := make([]byte, 24)
	for _, p := range positions {
		binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(p.Y))
		binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(p.Z))
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func ReadParticles(r io.Reader) ([]r3.Vec, error) {
	br := bufio.NewReader(r)
	var n uint64
	if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n > maxDumpElements {
		return nil, fmt.Errorf("particle count %d: %w", n, dynamo.ErrInvalidArgument)
	}
	raw := make([]float64, 3*n)
	if err := binary.Read(br, binary.LittleEndian, raw); err != nil {
		return nil, err
	}
	out := make([]r3.Vec, n)
	for i := range out {
		out[i] = r3.Vec{X: raw[3*i], Y: raw[3*i+1], Z: raw[3*i+2]}
	}
	return out, nil
}

// GridDump is a scalar grid as stored on disk.
type GridDump struct {
	Resolution grid.Size3
	Spacing    r3.Vec
	Origin     r3.Vec
	// Data holds the samples with i varying fastest.
	Data []float64
}

type gridHeader struct {
	Resolution [3]uint64
	Spacing    [3]float64
	Origin     [3]float64
}

// WriteGrid writes the header of g followed by its samples.
func WriteGrid(w io.Writer, g *grid.ScalarGrid) error {
	res := g.DataSize()
	h, o := g.GridSpacing(), g.DataOrigin()
	hdr := gridHeader{
		Resolution: [3]uint64{uint64(res.X), uint64(res.Y), uint64(res.Z)},
		Spacing:    [3]float64{h.X, h.Y, h.Z},
		Origin:     [3]float64{o.X, o.Y, o.Z},
	}
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, hdr); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, g.Data().Data()); err != nil {
		return err
	}
	return bw.Flush()
}

func ReadGrid(r io.Reader) (*GridDump, error) {
	br := bufio.NewReader(r)
	var hdr gridHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	n := uint64(1)
	for _, size := range hdr.Resolution {
		if size != 0 && n > maxDumpElements/size {
			return nil, fmt.Errorf("grid of %v samples: %w", hdr.Resolution, dynamo.ErrInvalidResolution)
		}
		n *= size
	}
	d := &GridDump{
		Resolution: grid.Size3{X: int(hdr.Resolution[0]), Y: int(hdr.Resolution[1]), Z: int(hdr.Resolution[2])},
		Spacing:    r3.Vec{X: hdr.Spacing[0], Y: hdr.Spacing[1], Z: hdr.Spacing[2]},
		Origin:     r3.Vec{X: hdr.Origin[0], Y: hdr.Origin[1], Z: hdr.Origin[2]},
		Data:       make([]float64, n),
	}
	if err := binary.Read(br, binary.LittleEndian, d.Data); err != nil {
		return nil, err
	}
	return d, nil
}

// At returns sample (i, j, k).
func (d *GridDump) At(i, j, k int) float64 {
	return d.Data[i+d.Resolution.X*(j+d.Resolution.Y*k)]
}

func ParticlesPath(dir string, frame int) string {
	return filepath.Join(dir, fmt.Sprintf("particles_%06d.bin", frame))
}

func GridPath(dir, name string, frame int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%06d.bin", name, frame))
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteParticles stores a particle dump for frame in the run directory.
func (r *Run) WriteParticles(frame int, positions []r3.Vec) error {
	return writeFile(ParticlesPath(r.dir, frame), func(w io.Writer) error {
		return WriteParticles(w, positions)
	})
}

// WriteGrid stores a named grid dump for frame in the run directory.
func (r *Run) WriteGrid(frame int, name string, g *grid.ScalarGrid) error {
	return writeFile(GridPath(r.dir, name, frame), func(w io.Writer) error {
		return WriteGrid(w, g)
	})
}
