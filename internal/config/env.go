// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv fills cfg from the process environment following the env and
// envPrefix tags of [StructuredConfig], e.g. SERVER_TLS_CERT_FILE or
// SERVER_STATIC="/assets:./public,/docs:./docs". Unset variables leave their
// fields zero so that later sources can fill them.
func parseEnv(cfg *StructuredConfig) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}
	return nil
}
