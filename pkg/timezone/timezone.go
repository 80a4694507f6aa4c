// ABOUTME: Resolves the account timezone used for display and commit arithmetic
// ABOUTME: Falls back to a configured or local system zone when the account has none

package timezone

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Zone is a resolved IANA zone. Name is empty when only an unnamed local zone is known.
type Zone struct {
	Name     string
	Location *time.Location
}

// UTC is the zero-config zone used when nothing else can be loaded.
var UTC = Zone{Name: "UTC", Location: time.UTC}

// StartOfDay returns midnight of the current day of now in z, as a UTC instant.
func (z Zone) StartOfDay(now time.Time) time.Time {
	local := now.In(z.Location)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, z.Location).UTC()
}

func (z Zone) String() string {
	if z.Name != "" {
		return z.Name
	}
	return z.Location.String()
}

// SettingsReader reads the account's timezone setting. An empty value means unset.
type SettingsReader interface {
	AccountTimezone(ctx context.Context) (string, error)
}

// Resolver turns the account setting into a Zone.
type Resolver struct {
	settings SettingsReader
	fallback Zone
	logger   *zap.Logger
}

// NewResolver creates a resolver. fallbackName overrides the local system zone when non-empty.
func NewResolver(settings SettingsReader, fallbackName string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		settings: settings,
		fallback: Fallback(fallbackName),
		logger:   logger,
	}
}

// Fallback returns the named zone when it loads, otherwise the local system zone.
func Fallback(name string) Zone {
	if z, err := Load(name); err == nil && name != "" {
		return z
	}
	return Local()
}

// Local returns the process's local zone, named when the name is a real IANA zone.
func Local() Zone {
	name := time.Local.String()
	if name == "Local" || name == "" {
		return Zone{Location: time.Local}
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return Zone{Name: name, Location: loc}
	}
	return Zone{Location: time.Local}
}

// Load loads an IANA zone by name.
func Load(name string) (Zone, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(name))
	if err != nil {
		return Zone{}, err
	}
	return Zone{Name: loc.String(), Location: loc}, nil
}

// Resolve reads the account setting once. A read error is returned as-is so
// callers can tell a missing session apart from an unset zone; an unset or
// unloadable zone yields the fallback.
func (r *Resolver) Resolve(ctx context.Context) (Zone, error) {
	name, err := r.settings.AccountTimezone(ctx)
	if err != nil {
		return Zone{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		r.logger.Debug("account timezone unset, using fallback", zap.String("zone", r.fallback.String()))
		return r.fallback, nil
	}
	z, err := Load(name)
	if err != nil {
		r.logger.Warn("account timezone not loadable, using fallback",
			zap.String("account_zone", name),
			zap.String("zone", r.fallback.String()),
			zap.Error(err))
		return r.fallback, nil
	}
	return z, nil
}

// Fallback returns the zone used when the account has none.
func (r *Resolver) Fallback() Zone {
	return r.fallback
}
