package sometag

// base85 implements the alphabet used by Python's base64.b85encode /
// b85decode, which differs from both RFC 1924 and Go's stdlib
// encoding/ascii85 (a different 85-character alphabet entirely).
// Saved models must round-trip through the exact byte layout a
// SoMeWeTa-style model file uses, so the standard library's ascii85
// codec cannot substitute here.
const base85Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz" +
	"!#$%&()*+-;<=>?@^_`{|}~"

var base85Decode = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(base85Alphabet); i++ {
		t[base85Alphabet[i]] = int8(i)
	}
	return t
}()

// base85Encode encodes data 4 bytes at a time into groups of 5
// alphabet characters, padding a short final group with zero bytes and
// truncating its encoded output to match, mirroring b85encode's
// handling of inputs not a multiple of 4 bytes.
func base85Encode(data []byte) string {
	out := make([]byte, 0, (len(data)*5+3)/4)
	for i := 0; i < len(data); i += 4 {
		chunk := data[i:min(i+4, len(data))]
		var v uint32
		for j := 0; j < 4; j++ {
			v <<= 8
			if j < len(chunk) {
				v |= uint32(chunk[j])
			}
		}
		var digits [5]byte
		for j := 4; j >= 0; j-- {
			digits[j] = base85Alphabet[v%85]
			v /= 85
		}
		n := 5
		if len(chunk) < 4 {
			n = len(chunk) + 1
		}
		out = append(out, digits[:n]...)
	}
	return string(out)
}

// base85DecodeString inverts base85Encode. It returns ErrModelMismatch
// if s contains a character outside the alphabet; a short final group
// is decoded to len(group)-1 bytes.
func base85DecodeString(s string) ([]byte, error) {
	out := make([]byte, 0, len(s)*4/5)
	for i := 0; i < len(s); i += 5 {
		group := s[i:min(i+5, len(s))]
		var v uint32
		padded := 5 - len(group)
		for j := 0; j < 5; j++ {
			var d int8
			if j < len(group) {
				d = base85Decode[group[j]]
				if d < 0 {
					return nil, ErrModelMismatch
				}
			} else {
				d = 84 // pad with the alphabet's highest digit, as b85decode does
			}
			v = v*85 + uint32(d)
		}
		var b [4]byte
		b[0] = byte(v >> 24)
		b[1] = byte(v >> 16)
		b[2] = byte(v >> 8)
		b[3] = byte(v)
		out = append(out, b[:4-padded]...)
	}
	return out, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
