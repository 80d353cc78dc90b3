// Package fallfsm owns the temporal fall-confirmation state machine
// that debounces transient risk spikes into a confirmed alarm.
//
// States: Normal → Accumulating → Confirmed. The alarm fires exactly
// once, on the frame the counter first reaches the trigger threshold;
// Confirmed is exited only by an explicit external reset.
//
// Dependency rule: fallfsm depends on nothing else in the repository.
package fallfsm
