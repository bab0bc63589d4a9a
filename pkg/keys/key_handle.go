package keys

import "fmt"

const redacted = "[redacted]"

// KeyHandle is an opaque reference to a key held by the key service.
// Its value can only be handed back to the key service; every printable form is redacted.
type KeyHandle struct {
	value string
}

// NewKeyHandle wraps a handle issued by the identity service.
func NewKeyHandle(value string) KeyHandle {
	return KeyHandle{value: value}
}

// IsZero reports whether the handle is missing.
func (k KeyHandle) IsZero() bool {
	return k.value == ""
}

func (k KeyHandle) String() string {
	return "KeyHandle(" + redacted + ")"
}

func (k KeyHandle) GoString() string {
	return k.String()
}

// Format redacts the handle for every verb, including %d and %x.
func (k KeyHandle) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(k.String()))
}

func (k KeyHandle) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

func (k KeyHandle) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}
