//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cottand/typeguard/guard"
)

func main() {
	js.Global().Set("DescribeAnnotation", guard.DescribeAnnotation)
	js.Global().Set("CheckSignatures", guard.CheckSignatures)

	// wait indefinitely so that Go does not terminate execution
	// and the function remains available
	<-make(chan struct{})
}
