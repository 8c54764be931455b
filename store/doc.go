// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the SQL persistence layer.

Queries are plain database/sql with positional $n parameters and run
unchanged on PostgreSQL and SQLite.

# Transactions

Store embeds a Repo bound to the pool. WithTx hands the callback a Repo
bound to a transaction:

	err := st.WithTx(ctx, func(r *store.Repo) error {
		if err := r.UpsertAttendance(ctx, tenantID, &a); err != nil {
			return err
		}
		return r.UpdateAssembly(ctx, assembly)
	})

# Upserts

Attendance and ballots are unique per (assembly, unit) and (vote, unit).
UpsertAttendance and UpsertBallot use INSERT ... ON CONFLICT DO UPDATE and
read the stored row back, so concurrent registrations for one unit end in
a single row.

# Errors

Lookups that match no row return an error wrapping ErrNotFound.
*/
package store
