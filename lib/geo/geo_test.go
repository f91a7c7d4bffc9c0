package geo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistanceMiles(t *testing.T) {
	sacramento := Coordinate{Latitude: 38.5816, Longitude: -121.4944}
	fresno := Coordinate{Latitude: 36.7378, Longitude: -119.7871}

	dist := DistanceMiles(sacramento, fresno)
	// straight-line distance is about 170 miles
	require.InDelta(t, 170, dist, 10)

	require.Zero(t, DistanceMiles(sacramento, sacramento))
	// symmetric
	require.InDelta(t, dist, DistanceMiles(fresno, sacramento), 1e-9)
}
