package postgres

import "gorm.io/gorm"

// Migrations creates and evolves the tables backing the retention service.
// Append new Migrations; never edit one that has shipped.
var Migrations = []Migration{
	{Key: "20240101000000_create_accounts", Executor: exec(`
		CREATE TABLE accounts (
			id uuid PRIMARY KEY,
			state text NOT NULL DEFAULT 'active'
				CHECK (state IN ('active', 'suspended', 'pending_deletion', 'deleted')),
			suspended_at timestamptz,
			suspended_by uuid,
			suspension_reason text NOT NULL DEFAULT '',
			deletion_scheduled_for timestamptz,
			deletion_initiator text CHECK (deletion_initiator IN ('self', 'admin')),
			deleted_at timestamptz,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now(),
			CONSTRAINT accounts_deletion_scheduled_iff_pending
				CHECK ((state = 'pending_deletion') = (deletion_scheduled_for IS NOT NULL)),
			CONSTRAINT accounts_deletion_initiator_iff_pending
				CHECK ((state = 'pending_deletion') = (deletion_initiator IS NOT NULL)),
			CONSTRAINT accounts_deleted_at_iff_deleted
				CHECK ((state = 'deleted') = (deleted_at IS NOT NULL))
		);
		CREATE INDEX accounts_pending_idx ON accounts (deletion_scheduled_for)
			WHERE state = 'pending_deletion';
	`)},
	{Key: "20240101000100_create_legal_holds", Executor: exec(`
		CREATE TABLE legal_holds (
			id uuid PRIMARY KEY,
			account_id uuid NOT NULL REFERENCES accounts (id),
			reason text NOT NULL,
			created_by uuid NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now(),
			expires_at timestamptz,
			released_at timestamptz,
			released_by uuid
		);
		CREATE INDEX legal_holds_account_idx ON legal_holds (account_id) WHERE released_at IS NULL;
	`)},
	{Key: "20240101000200_create_audit_log", Executor: exec(`
		CREATE TABLE audit_log (
			id bigserial PRIMARY KEY,
			account_id uuid NOT NULL,
			admin_id uuid,
			action text NOT NULL,
			reason text NOT NULL DEFAULT '',
			occurred_at timestamptz NOT NULL,
			before_state text NOT NULL,
			after_state text NOT NULL,
			request_id text NOT NULL DEFAULT ''
		);
		CREATE INDEX audit_log_account_idx ON audit_log (account_id, occurred_at, id);
	`)},
	{Key: "20240101000300_create_reminder_milestones", Executor: exec(`
		CREATE TABLE reminder_milestones (
			account_id uuid NOT NULL,
			scheduled_for timestamptz NOT NULL,
			milestone integer NOT NULL CHECK (milestone IN (7, 3, 1)),
			sent_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (account_id, scheduled_for, milestone)
		);
	`)},
	{Key: "20240101000400_create_erasure_receipts", Executor: exec(`
		CREATE TABLE erasure_receipts (
			id uuid PRIMARY KEY,
			account_id uuid NOT NULL,
			steps jsonb NOT NULL DEFAULT '[]',
			completed_at timestamptz NOT NULL
		);
		CREATE INDEX erasure_receipts_account_idx ON erasure_receipts (account_id);
	`)},
}

func exec(sql string) func(*gorm.DB) error {
	return func(tx *gorm.DB) error { return tx.Exec(sql).Error }
}
