/*
Package postgres manages our database connection. As part of the connection process, we also ensure that all migrations
have been run on the proper database. The situation where the database is simply a target for some testing has been
considered as well. In this scenario, we are dropping the public schema.

On top of the connection sit the stores backing the retention lifecycle:
AccountStore, HoldStore, AuditStore, ReminderLedger and ReceiptStore.
PurgeStep removes an account's rows from the marketplace tables during permanent deletion.
*/
package postgres
