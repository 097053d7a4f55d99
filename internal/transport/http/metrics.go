package httptransport

import "expvar"

var (
	metricSchemaRejections = expvar.NewInt("http_schema_rejections_total")
	metricInternalErrors   = expvar.NewInt("http_internal_errors_total")
)
