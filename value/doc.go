// Package value implements the dynamically shaped values that scripts read
// and write.
//
// A Value is a closed variant: null, bool, int, float, string, list, map or
// an opaque runtime payload. Lists and maps are reference containers, so
// scripts can mutate accumulator state in place and can also, by mistake,
// build structures that contain themselves.
//
// Three operations exist for the engine that owns script state:
//
//	state := value.CopyMap(template)             // isolated per-bucket copy
//	err := value.EnsureNoSelfReferences(v, "map") // reject cycles
//	plain := value.ToAny(v)                       // hand off to a codec
//
// Values are not safe for concurrent mutation.
package value
