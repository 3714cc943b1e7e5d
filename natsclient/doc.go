// Package natsclient wraps a NATS connection with a circuit breaker and the
// JetStream key/value helpers the durable sample cache needs.
//
// After a configurable number of consecutive failures (default 5) the
// circuit opens and calls fail fast with ErrCircuitOpen. It half-opens
// after the current backoff, which doubles on every opening up to the
// maximum backoff.
//
//	client, err := natsclient.NewClient("nats://localhost:4222",
//	    natsclient.WithName("graphbatch"),
//	    natsclient.WithCircuitBreakerThreshold(3),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{Bucket: "SAMPLES"})
//
// CreateKeyValueBucket is get-or-create: concurrent callers racing to create
// the same bucket all end up with it.
//
// TestClient starts a throwaway server with testcontainers for integration
// tests:
//
//	tc := natsclient.NewTestClient(t, natsclient.WithJetStream())
//	bucket, err := tc.Client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{Bucket: "T"})
package natsclient
