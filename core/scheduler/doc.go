// Package scheduler assigns employees to shift windows for every (day, role)
// demand slice. Each slice is an exact covering search that minimises the
// number of people used, then fallback-skill usage, then wage cost, under
// skill, absence, daily, weekly and rest-time constraints.
package scheduler
