// Package npz loads the Mel filter bank and positional embedding table from
// the compressed numeric archives the pipeline treats as opaque, externally
// supplied assets (spec §6). An .npz archive is a plain zip of .npy members,
// so the zip container is read with the standard library and each member's
// numpy payload is decoded with the npyio ecosystem reader rather than
// hand-rolling a numpy parser.
package npz

import (
	"archive/zip"
	"fmt"
	"sort"

	"github.com/sbinet/npyio"
)

// Matrix is a flat row-major float32 buffer plus its original shape.
type Matrix struct {
	Data  []float32
	Shape []int
}

// LoadFirst reads the first array stored (by name order) in the archive at
// path and returns it as a flat row-major float32 matrix. Both the Mel
// filter bank and the positional embedding table are shipped as
// single-member archives (spec §6), so "first member" is the entire
// contract implementers need.
func LoadFirst(path string) (Matrix, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return Matrix{}, fmt.Errorf("npz: open %s: %w", path, err)
	}
	defer zr.Close()

	if len(zr.File) == 0 {
		return Matrix{}, fmt.Errorf("npz: %s: archive has no members", path)
	}

	files := append([]*zip.File(nil), zr.File...)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	f, err := files[0].Open()
	if err != nil {
		return Matrix{}, fmt.Errorf("npz: %s: open member %q: %w", path, files[0].Name, err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return Matrix{}, fmt.Errorf("npz: %s: member %q: %w", path, files[0].Name, err)
	}

	shape := append([]int(nil), r.Header.Descr.Shape...)
	n := 1
	for _, d := range shape {
		n *= d
	}
	data := make([]float32, n)
	if err := r.Read(&data); err != nil {
		return Matrix{}, fmt.Errorf("npz: %s: member %q: decode: %w", path, files[0].Name, err)
	}

	return Matrix{Data: data, Shape: shape}, nil
}
