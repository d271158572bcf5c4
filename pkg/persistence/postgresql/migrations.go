package postgresql

// migrations returns the ordered schema migrations applied on startup.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflow_rules (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				collection_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT,
				active BOOLEAN NOT NULL DEFAULT true,
				trigger_type VARCHAR(50) NOT NULL,
				trigger_fields JSONB,
				filter_formula TEXT,
				execution_order INTEGER NOT NULL DEFAULT 0,
				error_handling VARCHAR(50),
				actions JSONB NOT NULL DEFAULT '[]'::jsonb,
				cron_expression VARCHAR(255),
				timezone VARCHAR(100),
				last_scheduled_run TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_workflow_rules_lookup
				ON workflow_rules (tenant_id, collection_id, trigger_type)
				WHERE active = true;

			CREATE INDEX IF NOT EXISTS idx_workflow_rules_scheduled
				ON workflow_rules (trigger_type)
				WHERE active = true AND trigger_type = 'SCHEDULED';
		`,
		2: `
			CREATE TABLE IF NOT EXISTS workflow_execution_logs (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				workflow_rule_id VARCHAR(255) NOT NULL,
				record_id VARCHAR(255),
				trigger_type VARCHAR(50) NOT NULL,
				status VARCHAR(50) NOT NULL,
				actions_executed INTEGER NOT NULL DEFAULT 0,
				error_message TEXT,
				duration_ms INTEGER NOT NULL DEFAULT 0,
				executed_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_execution_logs_rule
				ON workflow_execution_logs (tenant_id, workflow_rule_id);

			CREATE TABLE IF NOT EXISTS workflow_action_logs (
				id VARCHAR(255) PRIMARY KEY,
				execution_log_id VARCHAR(255) NOT NULL,
				action_id VARCHAR(255) NOT NULL,
				action_type VARCHAR(100) NOT NULL,
				status VARCHAR(50) NOT NULL,
				error_message TEXT,
				duration_ms INTEGER NOT NULL DEFAULT 0,
				attempt_number INTEGER NOT NULL DEFAULT 1,
				input_snapshot JSONB,
				output_snapshot JSONB,
				executed_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_action_logs_execution
				ON workflow_action_logs (execution_log_id);
		`,
		3: `
			CREATE TABLE IF NOT EXISTS email_logs (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				recipient_email VARCHAR(500) NOT NULL,
				subject TEXT NOT NULL,
				status VARCHAR(50) NOT NULL,
				source VARCHAR(100) NOT NULL,
				source_id VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS script_execution_logs (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				script_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				trigger_type VARCHAR(50),
				record_id VARCHAR(255),
				log_output TEXT,
				executed_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE IF NOT EXISTS notifications (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				user_id VARCHAR(255) NOT NULL,
				title VARCHAR(500) NOT NULL,
				message TEXT NOT NULL,
				level VARCHAR(20) NOT NULL,
				status VARCHAR(50) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_notifications_user
				ON notifications (tenant_id, user_id);
		`,
		4: `
			CREATE TABLE IF NOT EXISTS collections (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				label VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE UNIQUE INDEX IF NOT EXISTS idx_collections_name
				ON collections (tenant_id, name);

			CREATE TABLE IF NOT EXISTS scripts (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				active BOOLEAN NOT NULL DEFAULT true,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS email_templates (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				subject TEXT NOT NULL,
				body_html TEXT NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS records (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				collection_id VARCHAR(255) NOT NULL,
				data JSONB NOT NULL DEFAULT '{}'::jsonb,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_records_collection
				ON records (tenant_id, collection_id);
		`,
	}
}
