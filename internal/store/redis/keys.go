package redis

const (
	// KeyPrefixFetchLog prefixes the per-source run history list.
	KeyPrefixFetchLog = "opphub:fetchlog:"
	// KeyPrefixLock prefixes distributed lock keys.
	KeyPrefixLock = "opphub:lock:"
)

// FetchLogKey returns the key of the run history list of a source.
func FetchLogKey(source string) string {
	return KeyPrefixFetchLog + source
}

// LastSuccessKey returns the key holding the latest non-failed run.
func LastSuccessKey(source string) string {
	return KeyPrefixFetchLog + source + ":success"
}

// LockKey returns the Redis key of a named lock.
func LockKey(name string) string {
	return KeyPrefixLock + name
}
