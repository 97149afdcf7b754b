package logger

import (
	"net/url"
	"regexp"
	"strings"
)

const masked = "***"

var secretKeys = []string{"password", "secret", "token", "dsn", "database_url"}

// userinfo matches "user:pass@" inside a URL.
var userinfo = regexp.MustCompile(`://([^:/@\s]+):([^@/\s]+)@`)

func redactValue(key, val string) string {
	key = strings.ToLower(key)
	for _, k := range secretKeys {
		if strings.Contains(key, k) {
			if strings.Contains(val, "://") {
				return RedactDSN(val)
			}
			return masked
		}
	}
	return userinfo.ReplaceAllString(val, "://$1:"+masked+"@")
}

// RedactDSN masks the password of a connection URL.
// "postgres://app:s3cret@db:5432/x" → "postgres://app:***@db:5432/x"
func RedactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return userinfo.ReplaceAllString(dsn, "://$1:"+masked+"@")
	}
	if _, ok := u.User.Password(); !ok {
		return dsn
	}
	u.User = url.UserPassword(u.User.Username(), masked)
	return u.String()
}
