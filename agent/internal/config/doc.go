// Package config loads and watches the agent configuration.
//
// Load(path) layers three sources: built-in defaults (Mackerel endpoint, 60s
// poll, 1s retry, 10s request timeout), an optional YAML file, and the
// environment variables API_ENDPOINT, DEBUG, HOST_ID, URL, POLLING_TIME,
// EXPORTER_LISTEN and LOG_LEVEL. Secrets are never read from the file: the
// API key and the switch password are resolved from the variables named by
// api_key_env and device.password_env (API_KEY and PASSWORD by default).
// A .env file in the working directory is loaded first when present.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It handles the rename→create pattern
// used by atomic-save editors (vim, VS Code) by re-adding the watch after
// a rename event.
package config
