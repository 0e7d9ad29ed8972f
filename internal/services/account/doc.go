// Package account manages creation, encryption and loading of the local olm
// account.
//
// It enforces passphrase policy, draws key material from the configured
// random source, and persists the pickled account via the domain.AccountStore.
package account
