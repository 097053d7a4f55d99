package contest

import "expvar"

var (
	metricJoinAttemptsTotal  = expvar.NewInt("contest_join_attempts_total")
	metricJoinCommittedTotal = expvar.NewInt("contest_join_committed_total")
	metricJoinReplayedTotal  = expvar.NewInt("contest_join_replayed_total")
	metricJoinConflictsTotal = expvar.NewInt("contest_join_conflicts_total")
	metricJoinRejectedTotal  = expvar.NewMap("contest_join_rejected_total")
)
