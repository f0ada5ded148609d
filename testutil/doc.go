// Package testutil provides seeded workload generators for tests.
//
// This package is intended for use in tests and benchmarks only.
//
//	rng := testutil.NewRNG(42)
//	ords := rng.ZipfOrdinals(10_000, 64, 1.2) // skewed bucket assignment
//	docs := rng.Documents(10_000, 8)
//	want := testutil.Counts(ords)
package testutil
