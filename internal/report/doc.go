// Package report turns the free-text output of the engine's evaluation tool
// into a model.EvaluationMeasure.
//
// The report is read line by line through four states:
//
//	summary -> header -> detail -> ready
//
// The summary line carries the overall error rate and counts, a line starting
// with "GT" opens the confusion table, and every following line starting with
// "{" is one confusion. The first other line ends the table. Transitions only
// go forward. A malformed summary aborts parsing; a malformed detail line is
// recorded in the message and skipped, keeping the rest of the table.
//
// Parse never returns an error. Problems are encoded in the measure's state
// and message so callers always get the raw output back alongside whatever
// could be salvaged.
package report
