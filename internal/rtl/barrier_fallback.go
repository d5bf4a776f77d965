//go:build !(linux && cgo)

package rtl

// sfence and mfence are no-ops outside linux+cgo builds: the fence
// primitives only matter when sampling a real compiled RTL artifact across
// a genuine memory boundary; the pure-Go StubModel has no such boundary.
func sfence() {}
func mfence() {}
