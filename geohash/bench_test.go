package geohash

import "testing"

func BenchmarkEncode(b *testing.B) {
	c := Coord{X: 112.5584, Y: 37.8324}
	for i := 0; i < b.N; i++ {
		_, _ = Encode(c, MaxLength)
	}
}

func BenchmarkDecode(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _, _, _ = Decode("ww8p1r4t8")
	}
}

func BenchmarkAllNeighbors(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = AllNeighbors("ww8p1r4t8")
	}
}
