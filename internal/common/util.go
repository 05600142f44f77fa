package common

// WipeByteArray zeroes a sensitive buffer, e.g. a password, once it is no
// longer needed. Safe on nil.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
