package streaming

import (
	"bytes"

	"github.com/streamhub/streamhub/internal/cursor"
)

// cursorOpen/cursorOffsetSep/cursorClose etc. spell out the canonical byte
// order a record must follow. Splitting them into named constants, rather
// than building the record with encoding/json, is deliberate: clients parse
// these lines incrementally and byte-for-byte compatibility across engine
// implementations (see SEND_BATCH_VIA_OUTPUT_STREAM in internal/toggles)
// depends on never reordering or re-escaping these fragments.
const (
	cursorOpen      = `{"cursor":{"partition":"`
	cursorOffsetSep = `","offset":"`
	cursorClose     = `"}`
	eventsOpen      = `,"events":[`
	eventsClose     = `]`
	recordClose     = `}`
)

// WriteBatch emits exactly one record to sink and flushes it, per §4.1.
// Event byte slices are written verbatim — WriteBatch never validates or
// re-serializes them, the producer is responsible for each element already
// being valid, newline-free JSON. Returns the number of bytes written for
// this record (the bytes-flushed counter in §4.2/§8).
func WriteBatch(sink Sink, cur cursor.Cursor, events [][]byte) (int, error) {
	var buf bytes.Buffer
	buf.WriteString(cursorOpen)
	buf.WriteString(cur.Partition)
	buf.WriteString(cursorOffsetSep)
	buf.WriteString(cur.Offset)
	buf.WriteString(cursorClose)
	if len(events) > 0 {
		buf.WriteString(eventsOpen)
		for i, ev := range events {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(ev)
		}
		buf.WriteString(eventsClose)
	}
	buf.WriteString(recordClose)
	buf.WriteByte('\n')

	n, err := sink.Write(buf.Bytes())
	if err != nil {
		return n, err
	}
	if err := sink.Flush(); err != nil {
		return n, err
	}
	return n, nil
}
