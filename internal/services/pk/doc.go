// Package pk manages named public-key decryption keys.
package pk
