package user

import (
	"fmt"
	"regexp"
	"strconv"
)

// minColorLuminance はプロフィールカラーとして許容する最小輝度。
// これより暗い色はダークテーマ上で視認できないため拒否する。
const minColorLuminance = 40.0

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// IsValidHexColor はcolorが#rrggbb形式かどうかを返す。
func IsValidHexColor(color string) bool {
	return hexColorPattern.MatchString(color)
}

// ColorLuminance は#rrggbb形式のカラーの相対輝度を返す（ITU-R BT.709）。
func ColorLuminance(color string) (float64, error) {
	if !IsValidHexColor(color) {
		return 0, fmt.Errorf("カラーは#rrggbb形式で指定してください: %q", color)
	}

	rgb, err := strconv.ParseUint(color[1:], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("カラーの解析に失敗しました: %w", err)
	}

	r := float64((rgb >> 16) & 0xff)
	g := float64((rgb >> 8) & 0xff)
	b := float64(rgb & 0xff)

	return 0.2126*r + 0.7152*g + 0.0722*b, nil
}

// IsColorTooDark はカラーが許容輝度を下回るかどうかを返す。
func IsColorTooDark(color string) (bool, error) {
	luma, err := ColorLuminance(color)
	if err != nil {
		return false, err
	}
	return luma < minColorLuminance, nil
}
