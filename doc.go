// Package identity provides the account and session lifecycle core for a
// user facing service: registration, credential verification, paired
// access/refresh JWT issuance, refresh token revocation, and atomic
// user+profile updates.
//
// Token lifecycle:
//   - Login mints a TokenPair. Access tokens are short lived bearer
//     credentials validated by signature and expiry alone. Refresh tokens
//     carry a unique jti and are individually revocable.
//   - Logout inserts the refresh token's jti into a RevocationRegistry.
//     Revocation is idempotent and scoped to that one token; sibling tokens
//     of the same user remain valid.
//   - Access tokens are never checked against the registry. A still valid
//     access token is honored after logout until it expires; the
//     compensating control is a short access TTL.
//
// Storage:
//   - Users and Profiles are Bun models persisted through repositories.
//     A Profile is an optional 1:1 extension record created lazily on the
//     first profile bearing update. Username, email, and mobile number
//     uniqueness is enforced by database constraints inside the same
//     transaction as the write.
package identity
