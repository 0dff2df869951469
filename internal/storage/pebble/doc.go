// Package pebblestore provides a thin wrapper around Pebble with an fsync
// policy, batches and prefix scans. Lodge uses it for the session catalog.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./catalog",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	b := db.NewBatch()
//	_ = b.Set([]byte("k"), []byte("v"), nil)
//	_ = db.CommitBatch(context.Background(), b)
//	b.Close()
//
//	_ = db.ScanPrefix([]byte("k"), false, func(k, v []byte) bool { return true })
package pebblestore
