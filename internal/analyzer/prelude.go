package analyzer

import "github.com/phobologic/crateview/internal/model"

// sysrootCrates are the crates of the standard distribution.
var sysrootCrates = map[string]bool{
	"std":        true,
	"core":       true,
	"alloc":      true,
	"proc_macro": true,
	"test":       true,
}

var primitives = map[string]bool{
	"bool": true, "char": true, "str": true,
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true, "isize": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true, "usize": true,
	"f32": true, "f64": true,
}

type preludeEntry struct {
	path []string
	kind model.Kind
}

// prelude holds the names every module sees without an import.
var prelude = map[string]preludeEntry{
	"Option":       {[]string{"std", "option", "Option"}, model.Enum},
	"Some":         {[]string{"std", "option", "Option"}, model.Enum},
	"None":         {[]string{"std", "option", "Option"}, model.Enum},
	"Result":       {[]string{"std", "result", "Result"}, model.Enum},
	"Ok":           {[]string{"std", "result", "Result"}, model.Enum},
	"Err":          {[]string{"std", "result", "Result"}, model.Enum},
	"Vec":          {[]string{"std", "vec", "Vec"}, model.Struct},
	"String":       {[]string{"std", "string", "String"}, model.Struct},
	"Box":          {[]string{"std", "boxed", "Box"}, model.Struct},
	"ToString":     {[]string{"std", "string", "ToString"}, model.Trait},
	"ToOwned":      {[]string{"std", "borrow", "ToOwned"}, model.Trait},
	"Clone":        {[]string{"std", "clone", "Clone"}, model.Trait},
	"Copy":         {[]string{"std", "marker", "Copy"}, model.Trait},
	"Send":         {[]string{"std", "marker", "Send"}, model.Trait},
	"Sync":         {[]string{"std", "marker", "Sync"}, model.Trait},
	"Sized":        {[]string{"std", "marker", "Sized"}, model.Trait},
	"Unpin":        {[]string{"std", "marker", "Unpin"}, model.Trait},
	"Default":      {[]string{"std", "default", "Default"}, model.Trait},
	"Drop":         {[]string{"std", "ops", "Drop"}, model.Trait},
	"Fn":           {[]string{"std", "ops", "Fn"}, model.Trait},
	"FnMut":        {[]string{"std", "ops", "FnMut"}, model.Trait},
	"FnOnce":       {[]string{"std", "ops", "FnOnce"}, model.Trait},
	"Iterator":     {[]string{"std", "iter", "Iterator"}, model.Trait},
	"IntoIterator": {[]string{"std", "iter", "IntoIterator"}, model.Trait},
	"Extend":       {[]string{"std", "iter", "Extend"}, model.Trait},
	"From":         {[]string{"std", "convert", "From"}, model.Trait},
	"Into":         {[]string{"std", "convert", "Into"}, model.Trait},
	"TryFrom":      {[]string{"std", "convert", "TryFrom"}, model.Trait},
	"TryInto":      {[]string{"std", "convert", "TryInto"}, model.Trait},
	"AsRef":        {[]string{"std", "convert", "AsRef"}, model.Trait},
	"AsMut":        {[]string{"std", "convert", "AsMut"}, model.Trait},
	"PartialEq":    {[]string{"std", "cmp", "PartialEq"}, model.Trait},
	"Eq":           {[]string{"std", "cmp", "Eq"}, model.Trait},
	"PartialOrd":   {[]string{"std", "cmp", "PartialOrd"}, model.Trait},
	"Ord":          {[]string{"std", "cmp", "Ord"}, model.Trait},
}

// stdMacros are the macros exported by std.
var stdMacros = map[string]bool{
	"assert": true, "assert_eq": true, "assert_ne": true,
	"debug_assert": true, "debug_assert_eq": true, "debug_assert_ne": true,
	"cfg": true, "column": true, "compile_error": true, "concat": true,
	"dbg": true, "env": true, "eprint": true, "eprintln": true, "file": true,
	"format": true, "format_args": true, "include": true, "include_bytes": true,
	"include_str": true, "line": true, "matches": true, "module_path": true,
	"option_env": true, "panic": true, "print": true, "println": true,
	"stringify": true, "thread_local": true, "todo": true, "unimplemented": true,
	"unreachable": true, "vec": true, "write": true, "writeln": true,
}
