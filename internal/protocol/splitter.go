package protocol

import "bytes"

// Delimiter terminates every frame on the wire. NUL is a private-use byte
// never valid inside a payload.
const Delimiter byte = 0x00

// Splitter turns a raw byte stream into complete frames. A trailing partial
// frame is buffered across calls, so the decoded frame sequence is
// independent of how the stream is chunked.
//
// Splitter is not safe for concurrent use; each connection owns one.
type Splitter struct {
	buf []byte
}

// Split appends chunk to the internal buffer and returns every complete
// frame now available, in arrival order. Empty frames from consecutive
// delimiters are discarded.
func (s *Splitter) Split(chunk []byte) []string {
	s.buf = append(s.buf, chunk...)

	var frames []string
	for {
		i := bytes.IndexByte(s.buf, Delimiter)
		if i < 0 {
			break
		}
		if i > 0 {
			frames = append(frames, string(s.buf[:i]))
		}
		s.buf = s.buf[i+1:]
	}

	if len(s.buf) == 0 {
		s.buf = nil
	}
	return frames
}

// Pending reports how many buffered bytes are waiting for a delimiter.
func (s *Splitter) Pending() int {
	return len(s.buf)
}
