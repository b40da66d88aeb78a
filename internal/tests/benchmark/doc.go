// Package benchmark provides performance benchmarks for branchweb.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Run only the key store at a larger scale:
//
//	go test -bench=BenchmarkKeyStore -benchmem -benchtime=10s ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
