// Package testutil provides testing utilities for alignedalloc.
//
// This package is intended for use in tests, benchmarks and workload runs.
// It provides a deterministic random source, byte patterns that detect lost
// or shifted payloads, and a backend that relocates buffers to awkward
// addresses.
//
// # Random Requests
//
//	rng := testutil.NewRNG(seed)
//	size := rng.Size(1, 1<<16)
//	alignment := rng.Alignment(4096) // power of two in [1, 4096]
//
// # Payload Verification
//
//	testutil.FillPattern(buf, seed)
//	if i := testutil.CheckPattern(buf[:n], seed); i >= 0 { ... } // first bad byte
//
// # Relocating Backend
//
//	b := testutil.NewSkewedBackend(backend.NewHeap(), 24)
//	// every Resize moves the buffer 24 bytes past an aligned address
package testutil
