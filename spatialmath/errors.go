package spatialmath

import "github.com/pkg/errors"

func newBadGeometryDimensionsError(kind string, dims interface{}) error {
	return errors.Errorf("dimensions of %s must be non-negative, got %v", kind, dims)
}
