/*
Package auth handles the tokens crossing the retention service's boundary.

# Bearer

The marketplace's auth service issues HS256 bearer tokens naming the account (sub),
whether it is an admin (adm) and when it was issued (iat).
ParseCaller turns one into a retention.Caller.

# Re-authentication

Before deleting their account, an owner proves they recently re-entered their credentials
with a short-lived reauth token. VerifyReauth checks it.

# Cancellation links

CancelLink mints the link emailed with deletion confirmations and reminders.
It expires when the deletion executes.
CancelTarget reads the account back out of the link's jwt query param.
*/
package auth
