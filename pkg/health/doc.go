// Package health serves the liveness and readiness probes.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "redis": redis.Healthcheck(client),
//	}))
//
// Probes answer in plain text by default. JSON is returned for
// ?format=json or an Accept: application/json header:
//
//	{"status":"unhealthy","checks":{"redis":{"status":"unhealthy","error":"...","duration":"1.2ms"}}}
package health
