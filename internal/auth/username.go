package auth

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// usernameSpecials はusernameから取り除く記号と空白のパターン。
var usernameSpecials = regexp.MustCompile("[`~!@#$%^&*()_|+\\-=?;:'\",.<>{}\\[\\]\\\\/\\s]+")

// GenerateUsername は表示名からユニークなusernameを導出する。
// 小文字化して記号と空白を取り除き、タイムスタンプ由来のサフィックスを付ける。
func GenerateUsername(name string) string {
	sanitized := usernameSpecials.ReplaceAllString(strings.ToLower(name), "")
	suffix := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return sanitized + "-" + suffix
}
