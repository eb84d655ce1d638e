package validation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Service names accepted by ServiceValidator
const (
	ServiceDatabase      = "database"
	ServiceElasticsearch = "elasticsearch"
	ServiceRedis         = "redis"
)

// Check probes one backing service
type Check func(ctx context.Context) error

// ServiceValidator checks that backing services are reachable at startup
type ServiceValidator struct {
	required []string
	checks   map[string]Check
	log      *zap.Logger
	timeout  time.Duration
}

// NewServiceValidator creates a validator for the required service names
func NewServiceValidator(required []string, checks map[string]Check, log *zap.Logger) *ServiceValidator {
	return &ServiceValidator{
		required: required,
		checks:   checks,
		log:      log,
		timeout:  10 * time.Second,
	}
}

// ValidateServices fails on the first required service that is unreachable
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	if len(sv.required) == 0 {
		sv.log.Info("No required services configured for validation")
		return nil
	}

	sv.log.Info("Validating required services", zap.Strings("services", sv.required))

	for _, name := range sv.required {
		check, ok := sv.checks[name]
		if !ok {
			return fmt.Errorf("required service %q is not configured", name)
		}
		if err := sv.run(ctx, check); err != nil {
			sv.log.Error("Required service validation failed", zap.String("service", name), zap.Error(err))
			return fmt.Errorf("required service '%s' validation failed: %w", name, err)
		}
		sv.log.Info("Service validated successfully", zap.String("service", name))
	}
	return nil
}

// Report runs every configured check and returns the outcome per service
func (sv *ServiceValidator) Report(ctx context.Context) map[string]error {
	names := make([]string, 0, len(sv.checks))
	for name := range sv.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]error, len(names))
	for _, name := range names {
		results[name] = sv.run(ctx, sv.checks[name])
	}
	return results
}

func (sv *ServiceValidator) run(ctx context.Context, check Check) error {
	ctx, cancel := context.WithTimeout(ctx, sv.timeout)
	defer cancel()
	return check(ctx)
}

// RequiredServices lists the services whose LINGXIJIAO_REQUIRE_* flag is set
func RequiredServices(requireElasticsearch, requireRedis bool) []string {
	required := []string{ServiceDatabase}
	if requireElasticsearch {
		required = append(required, ServiceElasticsearch)
	}
	if requireRedis {
		required = append(required, ServiceRedis)
	}
	return required
}
