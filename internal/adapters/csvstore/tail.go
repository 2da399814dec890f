package csvstore

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
)

const defaultBlockSize = 64 << 10

// scanTail returns the first line of f and up to n non-blank lines from its
// end, never overlapping the first line. Lines are returned without their
// terminator, in file order.
func scanTail(f *os.File, n, blockSize int) (head []byte, tail [][]byte, err error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := stat.Size()
	if size == 0 {
		return nil, nil, nil
	}

	head, err = bufio.NewReader(io.NewSectionReader(f, 0, size)).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	headEnd := int64(len(head))
	head = trimEOL(head)

	var (
		pos   = size
		carry []byte
		rev   [][]byte
	)
	for pos > headEnd && len(rev) < n {
		start := pos - int64(blockSize)
		if start < headEnd {
			start = headEnd
		}
		buf := make([]byte, pos-start, int(pos-start)+len(carry))
		if _, err := f.ReadAt(buf, start); err != nil && !errors.Is(err, io.EOF) {
			return nil, nil, err
		}
		buf = append(buf, carry...)

		for len(rev) < n {
			i := bytes.LastIndexByte(buf, '\n')
			if i < 0 {
				break
			}
			if line := trimEOL(buf[i+1:]); len(bytes.TrimSpace(line)) > 0 {
				rev = append(rev, bytes.Clone(line))
			}
			buf = buf[:i]
		}
		carry = bytes.Clone(buf)
		pos = start
	}
	// the block loop stops at the first line boundary, so whatever is left belongs to one line
	if len(rev) < n && pos <= headEnd {
		if line := trimEOL(carry); len(bytes.TrimSpace(line)) > 0 {
			rev = append(rev, line)
		}
	}

	tail = make([][]byte, len(rev))
	for i, line := range rev {
		tail[len(rev)-1-i] = line
	}
	return head, tail, nil
}

func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte{'\n'})
	return bytes.TrimSuffix(line, []byte{'\r'})
}
