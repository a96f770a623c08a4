// Package internal holds build metadata shared by the keylink executables.
package internal

// Version is the version of the keylink executables.
const Version = "0.1.0"
