package alarm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tier buckets alarm types by base occurrence frequency.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// AlarmType is one synthetic alarm stream: a metric-safe name plus its
// frequency tier.
type AlarmType struct {
	Name string
	Tier Tier
}

// rawAlarmType is the on-disk YAML shape.
type rawAlarmType struct {
	Name string `yaml:"name"`
	Tier string `yaml:"tier"`
}

// DefaultCatalog returns the built-in alarm set used when no catalog
// directory is configured.
func DefaultCatalog() []AlarmType {
	return []AlarmType{
		{Name: "database_connection_timeout", Tier: TierMedium},
		{Name: "high_cpu_usage", Tier: TierHigh},
		{Name: "memory_leak_detected", Tier: TierHigh},
		{Name: "disk_space_low", Tier: TierLow},
		{Name: "api_response_time_high", Tier: TierHigh},
		{Name: "authentication_failure", Tier: TierLow},
		{Name: "service_unavailable", Tier: TierLow},
		{Name: "network_latency_high", Tier: TierMedium},
		{Name: "cache_miss_rate_high", Tier: TierLow},
		{Name: "queue_overflow", Tier: TierLow},
		{Name: "ssl_certificate_expiring", Tier: TierLow},
		{Name: "backup_failed", Tier: TierLow},
		{Name: "log_file_size_exceeded", Tier: TierLow},
		{Name: "user_session_timeout", Tier: TierLow},
		{Name: "rate_limit_exceeded", Tier: TierLow},
	}
}

// LoadCatalog loads alarm-type definitions from *.yaml files in dir, one
// definition per file. A missing or empty directory falls back to the
// built-in catalog; a malformed file is an error so a typo never silently
// shrinks the alarm set.
func LoadCatalog(dir string) ([]AlarmType, error) {
	if dir == "" {
		return DefaultCatalog(), nil
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return DefaultCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("alarm catalog dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("alarm catalog path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading alarm catalog dir: %w", err)
	}

	seen := make(map[string]struct{})
	var catalog []AlarmType
	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading alarm file %s: %w", path, err)
		}

		var raw rawAlarmType
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing alarm file %s: %w", path, err)
		}
		if raw.Name == "" {
			continue // skip empty / comment-only files
		}

		tier := Tier(raw.Tier)
		switch tier {
		case TierHigh, TierMedium, TierLow:
		default:
			return nil, fmt.Errorf("alarm %q: unsupported tier %q", raw.Name, raw.Tier)
		}

		if _, dup := seen[raw.Name]; dup {
			return nil, fmt.Errorf("alarm %q: duplicate alarm name (check multiple YAML files)", raw.Name)
		}
		seen[raw.Name] = struct{}{}

		catalog = append(catalog, AlarmType{Name: raw.Name, Tier: tier})
	}

	if len(catalog) == 0 {
		return DefaultCatalog(), nil
	}
	return catalog, nil
}
