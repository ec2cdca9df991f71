// Package config loads the server configuration.
//
// Values are resolved with viper from, in order of precedence: command line
// flags, environment variables, an optional config file and built-in
// defaults. Environment variables use the upper-case key names, for example
// GOOGLE_OAUTH_CLIENT_ID or SESSION_TTL.
//
//	cfg, err := config.Load(os.Args[1:])
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// A .env file in the working directory is read automatically unless
// --config points somewhere else.
package config
