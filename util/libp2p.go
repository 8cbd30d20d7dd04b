package util

import (
	"strings"

	peerlib "github.com/libp2p/go-libp2p-core/peer"
)

// IDCompare The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
func IDCompare(ida, idb peerlib.ID) int {
	return strings.Compare(ida.String(), idb.String())
}

// IDEqual if 2 peer id are equal
func IDEqual(ida, idb peerlib.ID) bool {
	return ida.String() == idb.String()
}
