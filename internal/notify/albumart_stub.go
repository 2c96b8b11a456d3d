//go:build !linux

package notify

func albumArt(_ string) string { return "" }
