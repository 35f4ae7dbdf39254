// Package password implements argon2id hashing with PHC-formatted
// encoded hashes. Verification reads the parameters back from the stored
// hash, so parameter upgrades do not invalidate existing credentials.
package password
