//go:build linux && cgo

package rtl

/*
#include <stdint.h>

// x86-64 store fence to ensure all prior stores are globally visible
static inline void sfence_impl(void) {
    __asm__ __volatile__("sfence" ::: "memory");
}

// x86-64 full memory fence to ensure all prior memory operations are complete
static inline void mfence_impl(void) {
    __asm__ __volatile__("mfence" ::: "memory");
}
*/
import "C"

// sfence issues a store fence (x86 SFENCE instruction), used before the
// responder samples ic_l2_req_* so any host-side writes from the previous
// cycle's response are visible before reading the next request.
func sfence() {
	C.sfence_impl()
}

// mfence issues a full memory fence (x86 MFENCE instruction), bracketing
// the pre- and post-tick sampling the I$-L2 handshake requires (§9): the RTL
// evaluates valid/ready signals mid-cycle, so both sampling points must
// observe a consistent view of the handshake state.
func mfence() {
	C.mfence_impl()
}
