// Package events is the reference sink for confirmed fall alarms: an
// append-only sqlite event log. The biomech pipeline has no dependency
// on this package — cmd/fallmon wires the pipeline's alarm edge into it.
package events
