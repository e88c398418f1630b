// Package redis connects to Redis with retries and exposes a health check
// suitable for readiness probes.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	checks = append(checks, redis.Healthcheck(client))
package redis
