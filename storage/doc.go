// Package storage provides the durable record store used by the dataset to
// persist materialized samples, one record per sample index.
//
// Backends:
//
//   - filestore: one file per key in a directory, published with
//     write-to-temp-then-rename
//   - leveldbstore: a goleveldb database
//   - kvstore: a NATS JetStream key/value bucket, first writer wins
//   - memstore: in-process map for tests and throwaway runs
//
// Keys come from IndexKey, which zero-pads the index so lexicographic order
// is index order:
//
//	key := storage.IndexKey(42) // "sample.0000000042"
//	if err := store.Put(ctx, key, record); err != nil {
//	    return err
//	}
//	data, err := store.Get(ctx, key)
//	if storage.IsNotFound(err) {
//	    // build it
//	}
package storage
