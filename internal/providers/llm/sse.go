package llm

import (
	"bufio"
	"bytes"
	"io"
)

// sseReader parses Server-Sent Events from a provider stream. Only data
// fields matter here; event names, ids, retry hints, and comments are skipped.
type sseReader struct {
	r *bufio.Reader
}

func newSSEReader(r io.Reader) *sseReader {
	return &sseReader{r: bufio.NewReader(r)}
}

// next returns the data payload of the next SSE event, or io.EOF when the
// stream ends. Multi-line data fields are joined with a newline per the SSE
// format.
func (s *sseReader) next() ([]byte, error) {
	var data [][]byte

	for {
		line, err := s.r.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(data) > 0 {
				return bytes.Join(data, []byte("\n")), nil
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Blank line terminates the event.
		if len(line) == 0 {
			if len(data) > 0 {
				return bytes.Join(data, []byte("\n")), nil
			}
			continue
		}

		if rest, ok := bytes.CutPrefix(line, []byte("data:")); ok {
			data = append(data, bytes.TrimPrefix(rest, []byte(" ")))
		}
	}
}
