package assuan

import (
	"io"
	"runtime"
)

// secretBuffer is the heap-allocated counterpart of ResponseLine used by
// SecretData. Unlike ResponseLine's inline array, its backing storage is a
// separately allocated slice so that it can be scrubbed and reclaimed
// independently of the struct that references it (spec.md §4.4/§9 "Zero-on-
// drop for secrets").
//
// Destroy must be called once the secret is no longer needed; a finalizer
// is also registered as a backstop for callers that forget, so that the
// backing array is still zeroed before the allocator reclaims it even on a
// panic or an early return that skips an explicit Destroy call.
type secretBuffer struct {
	buf  []byte
	size int
}

func newSecretBuffer() *secretBuffer {
	sb := &secretBuffer{buf: make([]byte, responseLineCapacity)}
	runtime.SetFinalizer(sb, (*secretBuffer).scrub)
	return sb
}

func (sb *secretBuffer) append(s string) error {
	n, err := escapeInto(sb.buf, sb.size, s)
	if err != nil {
		return err
	}
	sb.size = n
	return nil
}

func (sb *secretBuffer) write(out io.Writer) error {
	if _, err := out.Write(sb.buf[:sb.size]); err != nil {
		return err
	}
	_, err := out.Write([]byte{'\n'})
	return err
}

// scrub overwrites every byte of the backing array with zero. It is safe to
// call more than once. The compiler has no basis to eliminate these stores:
// they target a heap slice reachable from sb, and runtime.KeepAlive below
// pins sb live through the final store.
func (sb *secretBuffer) scrub() {
	for i := range sb.buf {
		sb.buf[i] = 0
	}
	sb.size = 0
	runtime.KeepAlive(sb)
}

// destroy scrubs the buffer immediately and deregisters the finalizer,
// since the scrub has already happened.
func (sb *secretBuffer) destroy() {
	sb.scrub()
	runtime.SetFinalizer(sb, nil)
}
