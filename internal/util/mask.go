package util

// MaskToken acorta un token para mostrarlo en logs o en la CLI sin
// filtrar el secreto completo.
func MaskToken(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "…" + s[len(s)-4:]
}
