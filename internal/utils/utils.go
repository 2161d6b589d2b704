// Package utils содержит утилитарные функции, используемые в разных частях приложения
package utils

import (
	"fmt"
	"time"
)

// FormatDuration форматирует time.Duration в формат HH:MM:SS
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatLastPlayed форматирует время последнего воспроизведения (Unix-миллисекунды)
func FormatLastPlayed(ms int64) string {
	if ms <= 0 {
		return "никогда"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

// FormatVolume форматирует громкость 0..1 в проценты
func FormatVolume(v float64) string {
	return fmt.Sprintf("%d%%", int(v*100+0.5))
}

// TruncateString обрезает строку до указанной длины в символах, добавляя "..." если строка длиннее
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
