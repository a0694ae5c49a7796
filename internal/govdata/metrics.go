package govdata

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nregahub_api_pages_fetched_total",
		Help: "Pages successfully fetched from the open-data API.",
	})
	recordsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nregahub_api_records_fetched_total",
		Help: "Raw records received from the open-data API.",
	})
)
