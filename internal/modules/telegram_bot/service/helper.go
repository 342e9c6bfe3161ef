package service

import (
	"fmt"
	"time"
)

func onOff(v bool) string {
	if v {
		return "✅"
	}
	return "❌"
}

func f2(v float64) string { // для красивого вывода
	return fmt.Sprintf("%.2f", v)
}

func clock(t time.Time) string {
	if t.IsZero() {
		return "None"
	}
	return t.Local().Format("15:04:05")
}
