package services

import (
	"context"
	"fmt"

	"github.com/localnerve/bigstone-community/internal/config"
	"github.com/localnerve/bigstone-community/internal/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Sessions     string            `json:"sessions"`
	Authorizer   string            `json:"authorizer,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

func (r *HealthCheckResult) fail(component, detail string, err error) {
	r.Status = "unhealthy"
	r.Details[detail] = err.Error()
	msg := fmt.Sprintf("%s: %v", component, err)
	if r.ErrorMessage == "" {
		r.ErrorMessage = msg
	} else {
		r.ErrorMessage += "; " + msg
	}
}

// HealthCheck checks the database, the session store and, in authorizer mode, the Authorizer
// service. A nil store or authz is skipped.
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB, store *session.Store, authz *Authorizer, log *zap.Logger) HealthCheckResult {
	if log == nil {
		log = zap.NewNop()
	}
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.fail("database connection error", "database_error", err)
	} else if err := sqlDB.PingContext(ctx); err != nil {
		result.Database = "unreachable"
		result.fail("database ping failed", "database_ping_error", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	if store == nil {
		result.Sessions = "disabled"
	} else if err := store.Ping(ctx); err != nil {
		result.Sessions = "unreachable"
		result.fail("session store ping failed", "sessions_error", err)
	} else {
		result.Sessions = "ok"
	}

	if authz != nil {
		result.Details["authorizer_client"] = "pending"
		if authz.Initialized() {
			result.Details["authorizer_client"] = "initialized"
		}
		if err := authz.Ping(); err != nil {
			result.Authorizer = "unreachable"
			result.fail("authorizer ping failed", "authorizer_error", err)
		} else {
			result.Authorizer = "ok"
			result.Details["authorizer_url"] = authz.URL
		}
	}

	if result.Status == "healthy" {
		log.Debug("health check passed")
	} else {
		log.Warn("health check failed", zap.String("error", result.ErrorMessage))
	}
	return result
}
