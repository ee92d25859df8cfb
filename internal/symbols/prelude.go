package symbols

// Builtin module functions visible in every unit. Their signatures are fixed
// and known to the type checker.
const (
	BuiltinPrint  = "print"
	BuiltinPanic  = "panic"
	BuiltinAssert = "assert"
)

var builtinFunctions = []string{BuiltinPrint, BuiltinPanic, BuiltinAssert}

// BuiltinFunctions returns the names of the builtin module functions.
func BuiltinFunctions() []string {
	out := make([]string, len(builtinFunctions))
	copy(out, builtinFunctions)
	return out
}
