// Package wire implements the FIX tag=value wire-format primitives shared by
// the parser and the assembler/serializer: SOH framing, BodyLength and
// CheckSum computation, and raw tag scanning. Neither half of the codec
// reimplements these; both import wire.
package wire

import (
	"strconv"
)

// SOH is the FIX field delimiter, byte 0x01.
const SOH = 0x01

// Tags used structurally by the framing algorithm itself, not by any
// particular dictionary.
const (
	TagBeginString = 8
	TagBodyLength  = 9
	TagMsgType     = 35
	TagCheckSum    = 10
)

// RawField is one tag=value pair as scanned off the wire, with the byte
// offset (within the scanned buffer) where the field started.
type RawField struct {
	Tag   int
	Value string
	Start int
}

// ScanField reads a single "tag=value<SOH>" field starting at offset start.
// Returns the field, the offset immediately following its terminating SOH,
// and ok=false if the buffer ends before a complete field is available.
func ScanField(buf []byte, start int) (RawField, int, bool) {
	eq := -1
	for i := start; i < len(buf); i++ {
		if buf[i] == '=' {
			eq = i
			break
		}
		if buf[i] == SOH {
			return RawField{}, start, false
		}
	}
	if eq < 0 {
		return RawField{}, start, false
	}
	soh := -1
	for i := eq + 1; i < len(buf); i++ {
		if buf[i] == SOH {
			soh = i
			break
		}
	}
	if soh < 0 {
		return RawField{}, start, false
	}
	tag, err := strconv.Atoi(string(buf[start:eq]))
	if err != nil {
		return RawField{}, start, false
	}
	return RawField{Tag: tag, Value: string(buf[eq+1 : soh]), Start: start}, soh + 1, true
}

// CheckSum computes the FIX CheckSum(10) value: the sum of all bytes in buf
// modulo 256, formatted as three ASCII digits. buf must cover everything up
// to but not including the "10=" field.
func CheckSum(buf []byte) string {
	var sum int
	for _, b := range buf {
		sum += int(b)
	}
	return formatCheckSum(sum % 256)
}

func formatCheckSum(v int) string {
	const digits = "0123456789"
	return string([]byte{digits[(v/100)%10], digits[(v/10)%10], digits[v%10]})
}

// BodyLength computes the BodyLength(9) value: the number of bytes after the
// SOH terminating field 9 up to and including the SOH preceding field 10.
func BodyLength(buf []byte) int {
	return len(buf)
}

// AppendField writes "tag=value<SOH>" to dst and returns the result.
func AppendField(dst []byte, tag int, value string) []byte {
	dst = strconv.AppendInt(dst, int64(tag), 10)
	dst = append(dst, '=')
	dst = append(dst, value...)
	dst = append(dst, SOH)
	return dst
}
