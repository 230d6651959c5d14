package longpoll

import "strconv"

// Cursor is the last update frontier the client knows about.
type Cursor int64

// NoCursor asks the server for a full snapshot.
const NoCursor Cursor = -1

func (c Cursor) String() string {
	return strconv.FormatInt(int64(c), 10)
}
