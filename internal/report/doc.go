// Package report summarises a monitoring session after the fact: risk
// percentile statistics and an HTML timeline chart of the composite
// risk index. It consumes the per-frame outputs collected by the caller
// and has no dependency on live pipeline state.
package report
