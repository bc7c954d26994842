package configkeys

const (
	delimiter = "."

	// AppEnvironment names the environment the process runs in ("production", "testing", ...).
	AppEnvironment = "app" + delimiter + "env"

	SideloadPrefix = "sideload"

	// SideloadLogInEnvironment is "*", one environment name, a list of names, or null.
	SideloadLogInEnvironment = SideloadPrefix + delimiter + "log_in_environment"

	SideloadHookPrefix     = SideloadPrefix + delimiter + "prefix"
	SideloadHookPrefixPre  = SideloadHookPrefix + delimiter + "pre"
	SideloadHookPrefixPost = SideloadHookPrefix + delimiter + "post"

	// SideloadOrderPrefix is followed by an interceptor name.
	SideloadOrderPrefix = SideloadPrefix + delimiter + "order"

	SideloadCachePrefix  = SideloadPrefix + delimiter + "cache"
	SideloadCacheBackend = SideloadCachePrefix + delimiter + "backend"
	SideloadCacheMaxCost = SideloadCachePrefix + delimiter + "max_cost"

	ConfigPrefix = "config"

	ConfigEffectPrefix = ConfigPrefix + delimiter + "effect"

	ConfigEffectCachePrefix = ConfigEffectPrefix + delimiter + "cache"

	ConfigEffectCacheHandlerPrefix     = ConfigEffectCachePrefix + delimiter + "handler"
	ConfigEffectCacheHandlerBufferSize = ConfigEffectCacheHandlerPrefix + delimiter + "buffer_size"
	ConfigEffectCacheHandlerNumWorkers = ConfigEffectCacheHandlerPrefix + delimiter + "num_workers"

	ConfigEffectBindingPrefix = ConfigEffectPrefix + delimiter + "binding"

	ConfigEffectBindingHandlerPrefix     = ConfigEffectBindingPrefix + delimiter + "handler"
	ConfigEffectBindingHandlerBufferSize = ConfigEffectBindingHandlerPrefix + delimiter + "buffer_size"
	ConfigEffectBindingHandlerNumWorkers = ConfigEffectBindingHandlerPrefix + delimiter + "num_workers"

	ConfigEffectLogPrefix = ConfigEffectPrefix + delimiter + "log"

	ConfigEffectLogHandlerPrefix     = ConfigEffectLogPrefix + delimiter + "handler"
	ConfigEffectLogHandlerBufferSize = ConfigEffectLogHandlerPrefix + delimiter + "buffer_size"
)

// SideloadOrderOf is the key holding the hook ordering of one interceptor.
func SideloadOrderOf(interceptor string) string {
	return SideloadOrderPrefix + delimiter + interceptor
}
