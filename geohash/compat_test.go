package geohash_test

import (
	"testing"

	mmgeohash "github.com/mmcloughlin/geohash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geocell/geohash"
)

// Interior points well away from cell edges, so both implementations agree
// regardless of how they round.
var referencePoints = []geohash.Coord{
	{X: 112.5584, Y: 37.8324},
	{X: -120.6623, Y: 35.3003},
	{X: 116.39772, Y: 39.90323},
	{X: 2.294481, Y: 48.85837},
	{X: -74.044502, Y: 40.689247},
	{X: 151.215297, Y: -33.856784},
	{X: -43.210487, Y: -22.951916},
	{X: 37.355627, Y: -3.067425},
}

func TestEncodeMatchesReference(t *testing.T) {
	for _, c := range referencePoints {
		for length := 1; length <= 10; length++ {
			got, err := geohash.Encode(c, length)
			require.NoError(t, err)
			assert.Equal(t, mmgeohash.EncodeWithPrecision(c.Y, c.X, uint(length)), got, "%v len %d", c, length)
		}
	}
}

func TestDecodeBboxMatchesReference(t *testing.T) {
	for _, c := range referencePoints {
		hash := mmgeohash.EncodeWithPrecision(c.Y, c.X, 9)

		got, err := geohash.DecodeBbox(hash)
		require.NoError(t, err)

		box := mmgeohash.BoundingBox(hash)
		assert.InDelta(t, box.MinLng, got.Min.X, 1e-9)
		assert.InDelta(t, box.MaxLng, got.Max.X, 1e-9)
		assert.InDelta(t, box.MinLat, got.Min.Y, 1e-9)
		assert.InDelta(t, box.MaxLat, got.Max.Y, 1e-9)
	}
}

func TestNeighborsMatchReference(t *testing.T) {
	for _, c := range referencePoints {
		hash, err := geohash.Encode(c, 7)
		require.NoError(t, err)

		got, err := geohash.AllNeighbors(hash)
		require.NoError(t, err)
		assert.Equal(t, mmgeohash.Neighbors(hash), got.Slice(), hash)
	}
}
