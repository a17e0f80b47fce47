package hcert

import (
	"strings"

	"github.com/pkg/errors"
)

const base45Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

var base45Values = func() [256]int {
	var table [256]int
	for i := range table {
		table[i] = -1
	}
	for i := 0; i < len(base45Alphabet); i++ {
		table[base45Alphabet[i]] = i
	}
	return table
}()

// DecodeBase45 is the base45 stage of the chain. It returns nil output when the input is not
// valid base45.
func DecodeBase45(input string, result DecodeResult) ([]byte, DecodeResult) {
	decoded, err := Base45Decode(input)
	if err != nil {
		return nil, result.withError(err.Error())
	}
	result.Base45Decoded = true
	return decoded, result
}

// Base45Decode decodes RFC 9285 base45 text
func Base45Decode(input string) ([]byte, error) {
	if len(input) == 0 {
		return nil, errors.New("base45: empty input")
	}
	if len(input)%3 == 1 {
		return nil, errors.Errorf("base45: invalid length %d", len(input))
	}
	out := make([]byte, 0, len(input)/3*2+1)
	for i := 0; i < len(input); i += 3 {
		chunk := input[i:min(i+3, len(input))]
		var n int
		for j := len(chunk) - 1; j >= 0; j-- {
			v := base45Values[chunk[j]]
			if v < 0 {
				return nil, errors.Errorf("base45: invalid character %q at %d", chunk[j], i+j)
			}
			n = n*45 + v
		}
		if len(chunk) == 3 {
			if n > 0xFFFF {
				return nil, errors.Errorf("base45: illegal triplet at %d", i)
			}
			out = append(out, byte(n>>8), byte(n))
			continue
		}
		if n > 0xFF {
			return nil, errors.Errorf("base45: illegal pair at %d", i)
		}
		out = append(out, byte(n))
	}
	return out, nil
}

// Base45Encode encodes bytes as RFC 9285 base45 text
func Base45Encode(input []byte) string {
	var sb strings.Builder
	sb.Grow(len(input)/2*3 + 2)
	for i := 0; i+1 < len(input); i += 2 {
		n := int(input[i])<<8 | int(input[i+1])
		sb.WriteByte(base45Alphabet[n%45])
		sb.WriteByte(base45Alphabet[(n/45)%45])
		sb.WriteByte(base45Alphabet[n/(45*45)])
	}
	if len(input)%2 == 1 {
		n := int(input[len(input)-1])
		sb.WriteByte(base45Alphabet[n%45])
		sb.WriteByte(base45Alphabet[n/45])
	}
	return sb.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
