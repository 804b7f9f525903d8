package keys

import (
	"fmt"
	"strings"
)

const (
	// PfxHealthCheck is used for prefixing health check redis key
	PfxHealthCheck = "healthcheck"
	// PfxOrderLock is used for prefixing per-order lock keys
	PfxOrderLock = "orderLock"
	// PfxOrderView is used for prefixing cached order views
	PfxOrderView = "orderView"
)

// CustomKey is used to join the customized key by componets with specified delimiter
func CustomKey(delimiter string, components ...string) string {
	return strings.Join(components, delimiter)
}

// RedisKey is used to join the redis key by componets
func RedisKey(components ...string) string {
	return CustomKey(":", components...)
}

// OrderLockKey is the lock key guarding every mutation of one order
func OrderLockKey(id int64) string {
	return RedisKey(PfxOrderLock, fmt.Sprint(id))
}

// GetPrefix extracts the prefix of a key, used as a metric tag.
func GetPrefix(key string) string {
	s := strings.Split(key, ":")
	if len(s) > 2 {
		return strings.Join([]string{s[0], s[1]}, ":")
	} else if len(s) > 1 {
		return s[0]
	}
	return ""
}
