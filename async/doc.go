// Package async runs a direct-mapped L1 and a CLOCK L2 behind a single
// consumer goroutine fed by many producers.
//
// Producers never touch cache state. Each producer slot owns a pair of
// command buffers: producers append to the pending buffer under the slot's
// spin lock, and the consumer swaps the pending and active buffers under the
// same lock and applies the active batch without holding it.
//
//	c, _ := async.New[uint64, int](store, async.WithProducers(8))
//	defer c.Close()
//
//	p := c.Producer()
//	p.SetAsync(10, 99)
//	var out int
//	p.GetAsync(10, &out)
//	_ = p.Barrier() // out == 99
//
// Commands on one slot apply in submission order. Nothing is ordered across
// slots. The value written through a GetAsync output pointer is valid only
// after a Barrier on the same slot (or on AllSlots) returns.
package async
