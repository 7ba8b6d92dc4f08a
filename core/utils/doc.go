// Package utils provides common utility functions for the flightplan bridge.
// It includes helpers for reading loosely typed JSON rows returned by the
// planning API, where the same field can arrive as a number or a string and
// under several alternative names.
package utils
