package classify

import "bytes"

// ScanChunks is a bufio.SplitFunc that ends a chunk at "\n", "\r\n" or a
// lone "\r". Terminators are not part of the chunk. A trailing unterminated
// chunk is returned at EOF.
func ScanChunks(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	i := bytes.IndexAny(data, "\r\n")
	if i < 0 {
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}

	if data[i] == '\n' {
		return i + 1, data[:i], nil
	}

	// "\r" at the end of the buffer may be the first half of "\r\n".
	if i+1 == len(data) {
		if !atEOF {
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if data[i+1] == '\n' {
		return i + 2, data[:i], nil
	}
	return i + 1, data[:i], nil
}
