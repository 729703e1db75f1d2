/*
Package observability provides monitoring for lineup sessions.

Metrics records scheduler activity in Prometheus collectors. It plugs into a
session through lifecycle hooks:

	m := observability.NewMetrics()
	sess, _ := lineup.New(lineup.WithHooks(m.Hooks()))
	http.Handle("/metrics", m.Handler())
*/
package observability
