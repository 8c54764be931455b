// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides bearer-token authentication and ID utilities.

# Bearer Tokens

Every API call carries an HS256 JWT:

	Authorization: Bearer <token>

The token claims identify the principal:

  - sub: user ID
  - tenant: complex (tenant) ID, scopes every query
  - role: "admin" or "resident" (default resident)
  - exp: optional expiry

Tokens are normally issued by the identity provider sharing JWT_SECRET;
IssueToken exists for tests and service accounts:

	token, err := auth.IssueToken(auth.Principal{UserID: u, TenantID: t, Role: "admin"}, secret, time.Hour)
	principal, err := auth.ParseToken(token, secret)

# ID Generation

UUID v4 strings for database records:

	id := auth.GenerateID()

# IP Hashing

Attendance and ballots keep a privacy-preserving audit trail:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
