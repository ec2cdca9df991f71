// Package redis opens the optional Redis connection that backs the session
// table.
//
// The client is created with [Open], which validates the URL, applies pool
// and timeout settings, and pings the server with linear backoff until it
// answers or the attempts run out. [URL] composes a connection URL from the
// REDIS_HOST and REDIS_PORT settings when no full REDIS_URL is configured.
//
//	client, err := redis.Open(ctx, redis.URL("localhost", 6379))
//	if err != nil {
//	    return err
//	}
//	store := session.NewRedisStore(client)
//
// [Healthcheck] plugs into the readiness endpoint and [Shutdown] into the
// server's shutdown hooks.
package redis
