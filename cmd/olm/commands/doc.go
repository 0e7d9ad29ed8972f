// Package commands defines the olm CLI.
//
// Commands
//
//   - init                     Create the local account
//   - keys, identity-key       Print public keys
//   - fingerprint              Print the identity fingerprint
//   - generate-keys            Add one-time keys
//   - mark-published           Mark keys as published
//   - fallback-key             Rotate the fallback key
//   - sign, verify, sha256     Signature and digest utilities
//   - outbound                 Open a session with a peer's one-time key
//   - encrypt, decrypt         Exchange PRE_KEY and MESSAGE ciphertexts
//   - session-id               Print the current session with a peer
//   - group ...                Group sessions and their credentials
//   - pk ...                   Public-key encryption
//
// # Implementation
//
// The root command loads <home>/olm.conf, applies flag overrides and builds
// the app (logging, sealed file store, services) before any subcommand runs.
// All state is read and written under the passphrase given with -p.
package commands
