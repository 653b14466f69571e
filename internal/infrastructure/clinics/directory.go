// Package clinics loads the static clinic directory the scraper operates
// over. The directory is deploy-time configuration, not user data, so a
// malformed file is a startup failure rather than a degraded mode.
package clinics

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/entities"
)

// Load reads and validates the clinic directory at path. Every clinic
// needs a non-empty name and an absolute http(s) rota URL, and names must
// be unique since they key cache entries and database rows.
func Load(path string) ([]entities.Clinic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read clinic directory: %w", err)
	}

	var clinics []entities.Clinic
	if err := json.Unmarshal(data, &clinics); err != nil {
		return nil, fmt.Errorf("failed to parse clinic directory: %w", err)
	}
	if len(clinics) == 0 {
		return nil, fmt.Errorf("clinic directory %s is empty", path)
	}

	seen := make(map[string]struct{}, len(clinics))
	for i, clinic := range clinics {
		name := strings.TrimSpace(clinic.Name)
		if name == "" {
			return nil, fmt.Errorf("clinic at index %d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate clinic name %q", name)
		}
		seen[name] = struct{}{}

		if err := validateURL(clinic.URL); err != nil {
			return nil, fmt.Errorf("clinic %q: %w", name, err)
		}
		clinics[i].Name = name
	}

	return clinics, nil
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("missing rota URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid rota URL %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("rota URL %q must be absolute http or https", raw)
	}
	return nil
}
