// Package parallel runs independent jobs with bounded concurrency.
//
// Pool collects one Result per submitted job, in submission order, and can
// stop early on the first failure.
package parallel
