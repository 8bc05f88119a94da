package user

import (
	"regexp"

	"github.com/hitoshi/chatman/internal/model"
)

// linkPatterns は対応プラットフォームごとのプロフィールURLパターン。
var linkPatterns = map[string]*regexp.Regexp{
	"youtube":   regexp.MustCompile(`^(https?://)?(www\.)?youtu((\.be)|(be\..{2,5}))/((user)|(channel))/?([a-zA-Z0-9\-_]{1,})`),
	"instagram": regexp.MustCompile(`^(?:(?:http|https)://)?(?:www\.)?(?:instagram\.com|instagr\.am)/([A-Za-z0-9\-_.]+)`),
	"github":    regexp.MustCompile(`^https://github\.com/[a-z\d](?:-?[a-z\d]){0,38}$`),
	"twitter":   regexp.MustCompile(`^https://twitter\.com/[a-zA-Z0-9_]{1,15}$`),
}

// ValidateLinks はプロフィールリンクの各エントリを検証する。
// 未対応のプラットフォーム名、またはパターンに一致しないURLはエラー。
// 空文字列の値はリンク解除の意図として許容する。
func ValidateLinks(links map[string]string) error {
	for platform, url := range links {
		pattern, ok := linkPatterns[platform]
		if !ok {
			return model.NewInvalidLinkError(platform)
		}
		if url == "" {
			continue
		}
		if !pattern.MatchString(url) {
			return model.NewInvalidLinkError(platform)
		}
	}
	return nil
}
