// Package pipeline runs the fetch, process, render and publish steps in
// sequence.
//
// Each step is a Step that receives the current model.Run and adds its
// results to it. A step whose input is missing from the run loads it from
// the file the previous step writes, so every step can also run on its own
// (flightdash fetch, process and generate are single-step pipelines).
//
// The pipeline stops at the first failing step. Finalizers such as
// RecordStep run afterwards whatever the outcome.
package pipeline
