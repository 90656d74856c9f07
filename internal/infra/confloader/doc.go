// Package confloader loads configuration with koanf.
//
// Sources, later overriding earlier:
//
//  1. Defaults already present in the target struct
//  2. A YAML file (optional)
//  3. Environment variables with the HELLO_ prefix
//
// Environment keys nest on a double underscore, so single underscores stay
// part of the key: HELLO_SESSION__COOKIE_NAME sets session.cookie_name.
//
// Watcher reports writes to the config file so callers can re-load the
// settings that are safe to change at runtime.
package confloader
