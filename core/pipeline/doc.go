// Package pipeline drives a planning run through its steps:
//
//	ingest → rules → demand → solve → audit → kpi → {triage | finalize}
//	triage → {approval_gate | solve}
//	approval_gate → {solve | halt}
//
// The Orchestrator is a state machine over model.PlanState. Every step
// returns a new state and appends to its trace. Loops through triage and the
// approval gate are bounded by Config.MaxIterations solve passes per call.
package pipeline
