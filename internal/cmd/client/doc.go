// Package client contains the read-side and maintenance Cobra commands for
// Lodge.
//
// The commands work directly on a storage directory and need no running
// process. They resolve the directory and the catalog location through a
// ConfigFunc supplied by the embedding binary.
//
// Usage
//
//	lodge ls
//	lodge cat                          # newest file
//	lodge cat 1726833600.123.log
//	lodge grep --expr 'level == "ERROR"' -H
//	lodge rotate --max 5
//	lodge sessions --all
//
// Notes
//
//   - rotate takes the directory lock first and refuses to run while
//     another process owns the directory.
//   - sessions reads the Pebble catalog, which is exclusive: it fails while
//     a capture process is running against the same catalog.
package client
