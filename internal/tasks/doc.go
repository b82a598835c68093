// Package tasks provides the plumbing that background work runs on.
//
// # Concurrency Limiter
//
// [Limiter] is a counting semaphore bounding in-flight probes and downloads. Explicit user
// requests call [Limiter.Acquire] and wait for a slot; opportunistic prefetches call
// [Limiter.TryAcquire] and give up immediately when every slot is taken. A [Permit] is
// released exactly once no matter how often [Permit.Release] is called.
//
// # Task Registry
//
// [Registry] maps an item id to the [Handle] of its running task. Registering a new handle
// cancels the previous one, so at most one task is active per item. Every handle carries a
// token identifying its generation so late events from a replaced task can be told apart.
//
// # Event Bus
//
// [Bus] is an unbounded multi-producer single-consumer queue of [Event] values. Sends never
// block; once the bus is closed they are dropped. The consumer reads from [Bus.C] or
// [Bus.Next] and sees events in the order they were sent.
//
// # Progress Forwarding
//
// [Forward] relays download progress snapshots from a per-task channel onto the bus at a
// bounded rate, always delivering the final snapshot before returning.
package tasks
