package utils

import (
	"strings"

	"github.com/gosimple/slug"
)

// Slugify 生成 URL 友好的 slug（店铺内容以土耳其语为主）
// "Step Motor | Sürücü" -> "step-motor-surucu"
func Slugify(s string) string {
	return slug.MakeLang(strings.TrimSpace(s), "tr")
}

// MachineKey 生成属性 key（下划线分隔）
// "Step Motor Gücü" -> "step_motor_gucu"
func MachineKey(s string) string {
	return strings.ReplaceAll(Slugify(s), "-", "_")
}
