package chipmeta_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/simonhull/chipmeta"
)

// BenchmarkOpen measures the performance of opening a single file.
func BenchmarkOpen(b *testing.B) {
	path := writeFile(b, "bench.nsf", nsfFile("Bench"))

	b.ReportAllocs()
	for b.Loop() {
		if _, err := chipmeta.Open(path); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkOpenBytes measures parsing without file I/O.
func BenchmarkOpenBytes(b *testing.B) {
	data := nsfFile("Bench")

	b.ReportAllocs()
	for b.Loop() {
		if _, err := chipmeta.OpenBytes(data, "bench.nsf"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkOpenMany measures OpenMany scalability.
func BenchmarkOpenMany(b *testing.B) {
	for _, n := range []int{1, 5, 10, 20, 50} {
		b.Run(fmt.Sprintf("%02d_files", n), func(b *testing.B) {
			paths := make([]string, n)
			for i := range paths {
				paths[i] = writeFile(b, fmt.Sprintf("bench%d.nsf", i), nsfFile("Bench"))
			}
			ctx := context.Background()

			b.ReportAllocs()
			for b.Loop() {
				if _, err := chipmeta.OpenMany(ctx, paths...); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkDetectFormat measures format detection performance.
func BenchmarkDetectFormat(b *testing.B) {
	data := nsfFile("Bench")
	reader := bytes.NewReader(data)

	b.ReportAllocs()
	for b.Loop() {
		if _, err := chipmeta.DetectFormat(reader, int64(len(data)), "bench.nsf"); err != nil {
			b.Fatal(err)
		}
	}
}
