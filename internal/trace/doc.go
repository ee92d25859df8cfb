// Package trace records what the analysis pipeline is doing.
//
// Events are spans (begin/end pairs) and points. Each carries a Scope:
// driver, unit, pass or function. The configured Level decides which scopes
// reach the output, so `phase` shows pass boundaries only while `debug`
// also logs individual borrow and move decisions.
//
// Tracers are attached to a context.Context with WithTracer and retrieved
// with FromContext; analysis code never checks for nil.
package trace
