package codec

import "encoding/base64"

// legacyID derives a stable id for a record recovered from a legacy text
// line: base64 of the value's first and last 10 characters, stripped to
// alphanumerics. Deliberately a function of content, so re-reading an
// unmodified line yields the same id. Not collision-free, and that is
// acceptable for this use.
func legacyID(value string) string {
	head := value
	if len(head) > 10 {
		head = head[:10]
	}
	tail := value
	if len(tail) > 10 {
		tail = tail[len(tail)-10:]
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(head + tail))
	out := make([]byte, 0, len(encoded))
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			out = append(out, c)
		}
	}
	return string(out)
}
