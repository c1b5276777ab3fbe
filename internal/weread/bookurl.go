package weread

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

const readerBase = "https://weread.qq.com/web/reader/"

// BookURL returns the canonical web reader URL of a book.
func BookURL(bookID string) string {
	return readerBase + encodeBookID(bookID)
}

// encodeBookID computes the obfuscated id the web reader uses in its URLs.
func encodeBookID(bookID string) string {
	digest := md5Hex(bookID)

	code, parts := splitBookID(bookID)

	var b strings.Builder
	b.WriteString(digest[:3])
	b.WriteString(code)
	b.WriteString("2")
	b.WriteString(digest[len(digest)-2:])
	for i, part := range parts {
		fmt.Fprintf(&b, "%02x", len(part))
		b.WriteString(part)
		if i < len(parts)-1 {
			b.WriteString("g")
		}
	}

	result := b.String()
	if len(result) < 20 {
		result += digest[:20-len(result)]
	}
	return result + md5Hex(result)[:3]
}

// splitBookID hex-encodes numeric ids in chunks of nine digits (code "3") and
// any other id rune by rune (code "4").
func splitBookID(bookID string) (string, []string) {
	if isDigits(bookID) {
		var parts []string
		for i := 0; i < len(bookID); i += 9 {
			end := min(i+9, len(bookID))
			n, _ := strconv.ParseInt(bookID[i:end], 10, 64)
			parts = append(parts, strconv.FormatInt(n, 16))
		}
		return "3", parts
	}

	var b strings.Builder
	for _, r := range bookID {
		b.WriteString(strconv.FormatInt(int64(r), 16))
	}
	return "4", []string{b.String()}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
