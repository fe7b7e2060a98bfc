package main

import (
	"errors"

	"github.com/informatter/nilox/compiler"
)

// isCompileError reports whether err originated from the compile
// phase rather than the VM, which is what decides between the 65
// and 70 exit codes.
func isCompileError(err error) bool {
	var compileErr compiler.CompileError
	return errors.As(err, &compileErr)
}
