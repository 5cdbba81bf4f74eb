package language

// sniffSize is how much of a file is inspected for binary content.
const sniffSize = 512

// IsBinaryContent reports whether data looks binary: a null byte within the first 512 bytes.
func IsBinaryContent(data []byte) bool {
	n := min(len(data), sniffSize)
	for _, b := range data[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}
