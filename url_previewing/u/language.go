package u

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

// AcceptLanguage returns the configured header value, or one derived from the process locale.
func AcceptLanguage(configured string) string {
	if configured != "" {
		return configured
	}
	return acceptLanguageFromLocale(localeFromEnv())
}

func localeFromEnv() string {
	for _, k := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func acceptLanguageFromLocale(locale string) string {
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale == "" || locale == "C" || locale == "POSIX" {
		return "en"
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return "en"
	}
	full := strings.ToLower(tag.String())
	base, _ := tag.Base()
	if full == base.String() {
		return full
	}
	return full + ", " + base.String() + ";q=0.9"
}
