package catalog

import (
	"encoding/binary"
	"path/filepath"
)

// Keyspace (byte-wise, lexicographically sortable):
//   - d/{dir}/s/{started_be8}/{id}  session record
//   - f/{path}                      session key for a log file

var (
	sep        = byte('/')
	dirPrefix  = []byte("d/")
	sessionSeg = []byte("/s/")
	filePrefix = []byte("f/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// KeySession builds the session key. Sessions of one directory sort by start
// time.
func KeySession(dir string, startedNanos int64, id string) []byte {
	k := KeySessionPrefix(dir)
	k = appendBE8(k, uint64(startedNanos))
	k = append(k, sep)
	k = append(k, id...)
	return k
}

// KeySessionPrefix returns the prefix of every session in dir.
func KeySessionPrefix(dir string) []byte {
	dir = filepath.Clean(dir)
	k := make([]byte, 0, len(dir)+32)
	k = append(k, dirPrefix...)
	k = append(k, dir...)
	k = append(k, sessionSeg...)
	return k
}

// KeyAllSessionsPrefix returns the prefix shared by sessions of all directories.
func KeyAllSessionsPrefix() []byte {
	return append([]byte(nil), dirPrefix...)
}

// KeyFile builds the index key mapping a log file path to its session key.
func KeyFile(path string) []byte {
	path = filepath.Clean(path)
	k := make([]byte, 0, len(path)+2)
	k = append(k, filePrefix...)
	k = append(k, path...)
	return k
}
