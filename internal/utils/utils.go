package utils

import "strings"

// Sanitize rewrites defanged URL notation into something a URL parser can
// attempt. The replacements run in a fixed order so a later rule never sees
// the output of an earlier one:
//
//	"[.]" -> "."
//	"["   -> "%5B"
//	"]"   -> "%5D"
//
// Nothing else is escaped.
func Sanitize(raw string) string {
	s := strings.ReplaceAll(raw, "[.]", ".")
	s = strings.ReplaceAll(s, "[", "%5B")
	return strings.ReplaceAll(s, "]", "%5D")
}

var defanger = strings.NewReplacer(
	"http://", "hxxp://",
	"https://", "hxxps://",
	".", "[.]",
)

// Defang renders a URL safe for logs and reports: dots become "[.]" and the
// http(s) scheme becomes hxxp(s). Sanitize undoes the dot rewrite.
//
//	Defang("https://evil.example/login") == "hxxps://evil[.]example/login"
func Defang(raw string) string {
	return defanger.Replace(raw)
}
