/*
Package application is a library for building keylink clients.

Transport

Poster is the capability every remote call goes through: it posts a
payload to a path on a node and returns the response body. HTTPPoster is
the HTTP implementation; it transparently inflates gzip bodies and reports
non-2xx answers as a StatusError.

Config

AppConfig, CommonConfig and ConfigLoader give every executable the same
TOML configuration lifecycle.

Logger

This module implements a generic logging system that can be used by any
keylink executable.
*/
package application
