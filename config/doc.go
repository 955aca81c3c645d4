/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

// Package config loads provider selection for the command-line tools from
// defaults, an optional YAML file, and environment variables, in that order.
package config
