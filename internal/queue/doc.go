// Package queue implements the orchestrator: the single control loop that owns the download queue.
//
// Every mutation of queue and item state happens inside [Orchestrator.Dispatch] (user intents,
// see [Action]) or [Orchestrator.Apply] (asynchronous outcomes delivered on the [tasks.Bus]).
// Both are meant to be called from one goroutine, either the headless [Orchestrator.Run] loop
// or bubbletea's Update. Background work runs in goroutines that only ever talk back through
// the bus:
//
//	Dispatch ─▶ cache lookup ─▶ Limiter permit ─▶ task ─▶ Bus ─▶ Apply ─▶ State
//
// Observers read copies through [Orchestrator.State].
package queue
