package server

//
// RPC definitions.
//

import (
	"os"
	"strconv"
)

// DefaultLimit is the number of rows a query returns when Limit is unset.
const DefaultLimit = 10

type RebuildRequest struct {
	View string
}

type RebuildResponse struct {
	Rows int
}

type QueryRequest struct {
	View string
	Key  string
	// rows to return from the key's position; 0 means DefaultLimit
	Limit int
}

type QueryResponse struct {
	// FindRow result: first row of Key, or where it would be inserted
	Pos   int
	Total int
	// JSON array of at most Limit rows starting at Pos
	Rows []byte
}

// Cook up a unique-ish UNIX-domain socket name
// in /var/tmp, for the view server.
func ViewSock() string {
	s := "/var/tmp/browsercouch-view-"
	s += strconv.Itoa(os.Getuid())
	return s
}
