package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Workflows carry their full graph as JSONB so a draft graph
			-- replace is a single-row atomic update.
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL,
				trigger_type VARCHAR(50) NOT NULL DEFAULT 'manual',
				trigger_config JSONB,
				template_id VARCHAR(255),
				nodes JSONB NOT NULL DEFAULT '[]',
				connections JSONB NOT NULL DEFAULT '[]',
				variables JSONB,
				settings JSONB,
				owner VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				activated_at TIMESTAMP WITH TIME ZONE,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_status ON workflows(status);
			CREATE INDEX idx_workflows_owner ON workflows(owner);
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);

			CREATE TABLE workflow_templates (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				category VARCHAR(255) NOT NULL DEFAULT '',
				version INT NOT NULL DEFAULT 1,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				nodes JSONB NOT NULL DEFAULT '[]',
				connections JSONB NOT NULL DEFAULT '[]',
				variables JSONB,
				created_by VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE UNIQUE INDEX idx_workflow_templates_name_version ON workflow_templates(name, version);
			CREATE INDEX idx_workflow_templates_active ON workflow_templates(name, active);

			CREATE TABLE workflow_executions (
				id VARCHAR(255) PRIMARY KEY,
				workflow_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				triggered_by VARCHAR(255) NOT NULL DEFAULT '',
				subject_type VARCHAR(255),
				subject_id VARCHAR(255),
				trigger_payload JSONB,
				variables JSONB,
				current_node_id VARCHAR(255),
				error_message TEXT,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflow_executions_workflow_id ON workflow_executions(workflow_id);
			CREATE INDEX idx_workflow_executions_status ON workflow_executions(status);
			CREATE INDEX idx_workflow_executions_started_at ON workflow_executions(started_at);

			CREATE TABLE execution_logs (
				id VARCHAR(255) PRIMARY KEY,
				execution_id VARCHAR(255) NOT NULL,
				node_id VARCHAR(255),
				level VARCHAR(20) NOT NULL,
				message TEXT NOT NULL,
				data JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_execution_logs_execution_id ON execution_logs(execution_id, created_at);

			CREATE TABLE workflow_approvals (
				id VARCHAR(255) PRIMARY KEY,
				execution_id VARCHAR(255) NOT NULL,
				workflow_id VARCHAR(255) NOT NULL,
				node_id VARCHAR(255) NOT NULL,
				approver_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				request_data JSONB,
				response_data JSONB,
				comments TEXT NOT NULL DEFAULT '',
				requested_at TIMESTAMP WITH TIME ZONE NOT NULL,
				responded_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflow_approvals_execution_id ON workflow_approvals(execution_id);
			CREATE INDEX idx_workflow_approvals_approver ON workflow_approvals(approver_id, status);

			CREATE TABLE workflow_schedules (
				id VARCHAR(255) PRIMARY KEY,
				workflow_id VARCHAR(255) NOT NULL,
				cron_expression VARCHAR(255) NOT NULL,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				start_at TIMESTAMP WITH TIME ZONE,
				end_at TIMESTAMP WITH TIME ZONE,
				last_run_at TIMESTAMP WITH TIME ZONE,
				next_run_at TIMESTAMP WITH TIME ZONE NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_schedules_workflow_id ON workflow_schedules(workflow_id);
			CREATE INDEX idx_workflow_schedules_due ON workflow_schedules(active, next_run_at);

			CREATE TABLE workflow_integrations (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				type VARCHAR(50) NOT NULL,
				base_url TEXT NOT NULL,
				auth_type VARCHAR(50) NOT NULL DEFAULT '',
				auth_token TEXT NOT NULL DEFAULT '',
				headers JSONB,
				config JSONB,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			-- Per-workflow per-day rollups, maintained by upsert.
			CREATE TABLE workflow_metrics (
				workflow_id VARCHAR(255) NOT NULL,
				day DATE NOT NULL,
				executions BIGINT NOT NULL DEFAULT 0,
				succeeded BIGINT NOT NULL DEFAULT 0,
				failed BIGINT NOT NULL DEFAULT 0,
				cancelled BIGINT NOT NULL DEFAULT 0,
				total_duration_ms BIGINT NOT NULL DEFAULT 0,
				PRIMARY KEY (workflow_id, day)
			);
		`,
	}
}
