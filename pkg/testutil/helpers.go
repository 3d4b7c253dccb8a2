// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/okushnir/fincalc/internal/projection"
)

// FindProjection finds a projection by calculator name in the results slice.
// Returns a pointer to the projection if found, nil otherwise.
func FindProjection(projections []projection.Projection, name string) *projection.Projection {
	for i := range projections {
		if projections[i].Name == name {
			return &projections[i]
		}
	}
	return nil
}
