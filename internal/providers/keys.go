package providers

import (
	"os"
	"strings"
)

// resolveKey looks up PAPERSUM_<VENDOR>_KEY_<ALIAS> first, then the vendor's
// conventional variable.
func resolveKey(vendor, alias, fallbackEnv string) string {
	if alias != "" {
		if v := os.Getenv("PAPERSUM_" + vendor + "_KEY_" + sanitizeEnvToken(alias)); v != "" {
			return v
		}
	}
	return os.Getenv(fallbackEnv)
}

func sanitizeEnvToken(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
