package cache

import (
	"math/rand/v2"
	"testing"
)

func BenchmarkCacheGet(b *testing.B) {
	lru, _ := NewLRU[int, int](1000)
	simple, _ := NewSimple[int, int]()

	for name, c := range map[string]Cache[int, int]{"LRU": lru, "Simple": simple} {
		for i := 0; i < 1000; i++ {
			c.Set(i, i)
		}
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				c.Get(i % 1000)
			}
		})
	}
}

func BenchmarkLRUSetWithEviction(b *testing.B) {
	c, _ := NewLRU[int, int](256)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(rand.IntN(4096), i)
	}
}

func BenchmarkLRUParallel(b *testing.B) {
	c, _ := NewLRU[int, int](1000)
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%4 == 0 {
				c.Set(i%2000, i)
			} else {
				c.Get(i % 2000)
			}
			i++
		}
	})
}
