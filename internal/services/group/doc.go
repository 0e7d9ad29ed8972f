// Package group manages named outbound and inbound group sessions.
package group
