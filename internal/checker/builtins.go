package checker

import (
	"golang.org/x/text/unicode/norm"
)

// builtinNames is dir(builtins) of CPython 3.12.
var builtinNames = []string{
	"ArithmeticError", "AssertionError", "AttributeError", "BaseException", "BaseExceptionGroup",
	"BlockingIOError", "BrokenPipeError", "BufferError", "BytesWarning", "ChildProcessError",
	"ConnectionAbortedError", "ConnectionError", "ConnectionRefusedError", "ConnectionResetError",
	"DeprecationWarning", "EOFError", "Ellipsis", "EncodingWarning", "EnvironmentError",
	"Exception", "ExceptionGroup", "False", "FileExistsError", "FileNotFoundError",
	"FloatingPointError", "FutureWarning", "GeneratorExit", "IOError", "ImportError",
	"ImportWarning", "IndentationError", "IndexError", "InterruptedError", "IsADirectoryError",
	"KeyError", "KeyboardInterrupt", "LookupError", "MemoryError", "ModuleNotFoundError",
	"NameError", "None", "NotADirectoryError", "NotImplemented", "NotImplementedError", "OSError",
	"OverflowError", "PendingDeprecationWarning", "PermissionError", "ProcessLookupError",
	"RecursionError", "ReferenceError", "ResourceWarning", "RuntimeError", "RuntimeWarning",
	"StopAsyncIteration", "StopIteration", "SyntaxError", "SyntaxWarning", "SystemError",
	"SystemExit", "TabError", "TimeoutError", "True", "TypeError", "UnboundLocalError",
	"UnicodeDecodeError", "UnicodeEncodeError", "UnicodeError", "UnicodeTranslateError",
	"UnicodeWarning", "UserWarning", "ValueError", "Warning", "ZeroDivisionError",
	"__build_class__", "__debug__", "__doc__", "__import__", "__loader__", "__name__",
	"__package__", "__spec__", "abs", "aiter", "all", "anext", "any", "ascii", "bin", "bool",
	"breakpoint", "bytearray", "bytes", "callable", "chr", "classmethod", "compile", "complex",
	"copyright", "credits", "delattr", "dict", "dir", "divmod", "enumerate", "eval", "exec",
	"exit", "filter", "float", "format", "frozenset", "getattr", "globals", "hasattr", "hash",
	"help", "hex", "id", "input", "int", "isinstance", "issubclass", "iter", "len", "license",
	"list", "locals", "map", "max", "memoryview", "min", "next", "object", "oct", "open", "ord",
	"pow", "print", "property", "quit", "range", "repr", "reversed", "round", "set", "setattr",
	"slice", "sorted", "staticmethod", "str", "sum", "super", "tuple", "type", "vars", "zip",
}

// magicGlobals exist in every module namespace without being builtins.
var magicGlobals = []string{"__file__", "__builtins__", "__annotations__", "WindowsError"}

// classMagicNames are bound implicitly inside a class body.
var classMagicNames = map[string]struct{}{
	"__module__":   {},
	"__qualname__": {},
}

// futureFeatures is __future__.all_feature_names.
var futureFeatures = map[string]struct{}{
	"nested_scopes":    {},
	"generators":       {},
	"division":         {},
	"absolute_import":  {},
	"with_statement":   {},
	"print_function":   {},
	"unicode_literals": {},
	"barry_as_FLUFL":   {},
	"generator_stop":   {},
	"annotations":      {},
}

// BuiltinNames returns a copy of the default builtin names.
func BuiltinNames() []string {
	out := make([]string, 0, len(builtinNames)+len(magicGlobals))
	out = append(out, builtinNames...)
	return append(out, magicGlobals...)
}

// builtinSet unions the defaults with extra names. Extra names are NFKC
// normalised the way the interpreter normalises identifiers.
func builtinSet(extra []string) []string {
	seen := make(map[string]struct{}, len(builtinNames)+len(magicGlobals)+len(extra))
	out := make([]string, 0, len(builtinNames)+len(magicGlobals)+len(extra))
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, name := range builtinNames {
		add(name)
	}
	for _, name := range magicGlobals {
		add(name)
	}
	for _, name := range extra {
		add(norm.NFKC.String(name))
	}
	return out
}
