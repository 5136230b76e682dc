// Package security builds the posture report returned by
// Engine.SecurityReport. It reads configuration values only and performs no
// I/O.
package security
