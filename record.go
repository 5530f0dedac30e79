package tn5250

import "bytes"

var recordDelimiter = []byte{IAC, EOR}

// recordBuffer accumulates de-telnet'd payload bytes until a complete
// IAC EOR-delimited record is available. Partial records survive across any
// number of reads; nothing is handed up until the delimiter arrives.
type recordBuffer struct {
	buf []byte
}

func (r *recordBuffer) write(payload []byte) {
	r.buf = append(r.buf, payload...)
}

// next pops the earliest complete record, without its trailing IAC EOR.
// It returns false when no full record has been buffered yet.
func (r *recordBuffer) next() ([]byte, bool) {
	boundary := bytes.Index(r.buf, recordDelimiter)
	if boundary < 0 {
		return nil, false
	}

	record := make([]byte, boundary)
	copy(record, r.buf[:boundary])
	r.buf = r.buf[boundary+len(recordDelimiter):]

	return record, true
}

// pending reports whether any unconsumed bytes remain, complete or not.
func (r *recordBuffer) pending() bool {
	return len(r.buf) > 0
}
