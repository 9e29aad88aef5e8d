// Package handle provides the generation-checked handle table shared by
// the array/string bridge and the object reference registry.
//
// A Handle packs a slot index and the slot's generation. Releasing a
// handle frees the slot for reuse and bumps its generation, so a stale
// handle is always detected:
//
//	table := handle.NewTable(errors.PhaseRegistry)
//	h := table.Insert(tagLocal, obj)
//
//	v, err := table.Get(h)      // ok
//	_, err = table.Release(h)   // ok
//	_, err = table.Release(h)   // DoubleRelease
//	_, err = table.Get(h)       // UseAfterRelease
//
// Handle 0 is reserved and always invalid.
//
// # Observers
//
// Observers see every insert, retag and release, in order, outside the
// table lock. Tests use them to check acquire/release balance and LIFO
// ordering.
package handle
