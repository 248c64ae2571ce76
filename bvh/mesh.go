package bvh

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/lmontaut/coal/spatialmath"
)

// MeshModel is a hierarchy over the triangles of a mesh.
type MeshModel = Model[*spatialmath.Triangle]

// BoxModel is a hierarchy whose leaves hold oriented boxes.
type BoxModel = Model[*spatialmath.Box]

// jsonMesh is the on-disk layout of a JSON mesh file.
type jsonMesh struct {
	Vertices [][3]float64 `json:"vertices"`
	Faces    [][]int      `json:"faces"`
}

// NewMeshModel builds a hierarchy over triangles.
func NewMeshModel(triangles []*spatialmath.Triangle, opts ...BuildOption) (*MeshModel, error) {
	return NewModel(triangles, opts...)
}

// LoadMeshFile reads a mesh from a .ply or .json file and builds a hierarchy over its triangles.
func LoadMeshFile(path string, opts ...BuildOption) (*MeshModel, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	var triangles []*spatialmath.Triangle
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".ply":
		triangles, err = ReadPLY(f)
	case ".json":
		triangles, err = ReadJSONMesh(f)
	default:
		return nil, errors.Errorf("unsupported mesh file extension %q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading mesh %q", path)
	}
	return NewMeshModel(triangles, opts...)
}

// ReadPLY parses the vertex and face elements of an ascii PLY stream into triangles.
// Polygonal faces are split into a triangle fan.
func ReadPLY(r io.Reader) ([]*spatialmath.Triangle, error) {
	ply, err := parsePLY(r)
	if err != nil {
		return nil, err
	}

	plyVertices := ply.Elements("vertex")
	vertices := make([]r3.Vector, 0, len(plyVertices))
	for i, v := range plyVertices {
		x, errX := cast.ToFloat64E(v["x"])
		y, errY := cast.ToFloat64E(v["y"])
		z, errZ := cast.ToFloat64E(v["z"])
		if errX != nil || errY != nil || errZ != nil {
			return nil, errors.Errorf("vertex %d has non numeric coordinates", i)
		}
		vertices = append(vertices, r3.Vector{X: x, Y: y, Z: z})
	}

	plyFaces := ply.Elements("face")
	faces := make([][]int, 0, len(plyFaces))
	for i, f := range plyFaces {
		raw, ok := f["vertex_indices"]
		if !ok {
			raw = f["vertex_index"]
		}
		idx, err := cast.ToIntSliceE(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "face %d", i)
		}
		faces = append(faces, idx)
	}
	return triangulate(vertices, faces)
}

// parsePLY converts the parser's panics on malformed input into errors.
func parsePLY(r io.Reader) (ply *goply.Ply, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ply = nil
			err = errors.Errorf("parsing ply: %v", rec)
		}
	}()
	return goply.New(r), nil
}

// ReadJSONMesh parses a mesh of the form {"vertices": [[x, y, z], ...], "faces": [[i, j, k], ...]}.
func ReadJSONMesh(r io.Reader) ([]*spatialmath.Triangle, error) {
	var mesh jsonMesh
	if err := json.NewDecoder(r).Decode(&mesh); err != nil {
		return nil, errors.Wrap(err, "parsing json mesh")
	}
	vertices := lo.Map(mesh.Vertices, func(v [3]float64, _ int) r3.Vector {
		return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
	})
	return triangulate(vertices, mesh.Faces)
}

func triangulate(vertices []r3.Vector, faces [][]int) ([]*spatialmath.Triangle, error) {
	triangles := make([]*spatialmath.Triangle, 0, len(faces))
	for i, face := range faces {
		if len(face) < 3 {
			return nil, errors.Errorf("face %d has %d vertices, need at least 3", i, len(face))
		}
		if lo.SomeBy(face, func(idx int) bool { return idx < 0 || idx >= len(vertices) }) {
			return nil, errors.Errorf("face %d references a vertex outside [0, %d)", i, len(vertices))
		}
		for j := 1; j+1 < len(face); j++ {
			triangles = append(triangles, spatialmath.NewTriangle(vertices[face[0]], vertices[face[j]], vertices[face[j+1]]))
		}
	}
	return triangles, nil
}
