// Package catalog records log storage sessions in Pebble.
//
// # Overview
//
// Every logstore.Store lifetime is one Session: the file it wrote, when it
// started and closed, how many lines and bytes it flushed, and whether
// rotation has since removed its file. The Catalog implements
// logstore.Observer and is passed as Options.Observer.
//
// Keys are lexicographically ordered for range scans:
//   - d/{dir}/s/{started_be8}/{id}  (session record)
//   - f/{path}                      (file -> session key index)
//
// Records are stored as: varint headerLen | header | payload | crc32c(header|payload),
// with a one-byte version header and a JSON payload.
//
//	c, _ := catalog.Open(catalog.Options{DataDir: dir})
//	defer c.Close()
//	store, _ := logstore.Open(logstore.Options{Dir: logs, Observer: c})
//	sessions, _ := c.List(catalog.ListOptions{Dir: logs, Limit: 10})
package catalog
