package assert

import (
	"fmt"
)

// Length panics when value is not exactly expected bytes long
func Length(name, value string, expected int) {
	if len(value) != expected {
		msg := fmt.Sprintf("assert.Length %s: expected %d actual %d", name, expected, len(value))
		panic(msg)
	}
}
