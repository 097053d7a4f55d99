package notify

import "expvar"

var (
	metricMailQueuedTotal       = expvar.NewInt("mail_queued_total")
	metricMailDroppedTotal      = expvar.NewInt("mail_dropped_total")
	metricMailRetryTotal        = expvar.NewInt("mail_retry_total")
	metricMailRetryDroppedTotal = expvar.NewInt("mail_retry_dropped_total")
	metricMailSentTotal         = expvar.NewInt("mail_sent_total")
	metricMailFailedTotal       = expvar.NewInt("mail_failed_total")
	metricMailQueueLen          = expvar.NewInt("mail_queue_len")
)
