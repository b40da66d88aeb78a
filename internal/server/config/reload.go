package config

// RestartRequired lists the changed settings that only take effect after
// a restart. Everything else is applied by a reload.
func RestartRequired(old, next *ServerConfig) []string {
	var keys []string
	check := func(key string, changed bool) {
		if changed {
			keys = append(keys, key)
		}
	}

	check("server.http.addr", old.Server.HTTP.Addr != next.Server.HTTP.Addr)
	check("server.http.read_header_timeout", old.Server.HTTP.ReadHeaderTimeout != next.Server.HTTP.ReadHeaderTimeout)
	check("server.metrics.addr", old.Server.Metrics.Addr != next.Server.Metrics.Addr)
	check("web.sweep_interval", old.Web.SweepInterval != next.Web.SweepInterval)
	check("users.file", old.Users.File != next.Users.File)
	check("users.hash_algorithm", old.Users.HashAlgorithm != next.Users.HashAlgorithm)
	check("auth.login_rate", old.Auth.LoginRate != next.Auth.LoginRate)
	check("auth.login_burst", old.Auth.LoginBurst != next.Auth.LoginBurst)
	check("log.format", old.Log.Format != next.Log.Format)
	check("log.output", old.Log.Output != next.Log.Output)
	check("log.debug_output", old.Log.DebugOutput != next.Log.DebugOutput)
	return keys
}
