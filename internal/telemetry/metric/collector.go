package metric

import "github.com/prometheus/client_golang/prometheus"

// CountFunc reports a current count at scrape time.
type CountFunc func() int

// Collector reports gauges read from live components on every scrape.
type Collector struct {
	users     CountFunc
	usersDesc *prometheus.Desc
}

// NewCollector creates a collector reading the registered user count from users.
func NewCollector(users CountFunc) *Collector {
	return &Collector{
		users: users,
		usersDesc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "", "users"),
			"Registered users.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.usersDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.usersDesc, prometheus.GaugeValue, float64(c.users()))
}
