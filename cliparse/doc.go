// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded first via godotenv; real
environment variables take precedence over it, and CLI flags over both.

# Config Fields

  - ServerURL: evaluation server base URL (required)
  - PushURL: live update channel URL (derived from ServerURL when unset)
  - StatePath: local state database path (default: crowdjudge.db)
  - GroupID: group to open the voting flow for (0 = stage mode)
  - CarouselInterval: photo rotation period (default: 5s)
  - BaseWidth, BaseHeight: stage design size (default: 1920×1080)

# CLI Flags

	-s       Server base URL
	-ws      Push channel URL
	-d       State database path
	-g       Group id
	-u       Entry URL carrying the group id in its query
	-i       Carousel interval in seconds
	-base-w  Stage design width
	-base-h  Stage design height

# Environment Variables

Flags fall back to environment variables:

	SERVER_URL        → -s
	PUSH_URL          → -ws
	STATE_PATH        → -d
	GROUP_ID          → -g
	CAROUSEL_INTERVAL → -i

# Entry URLs

Voters arrive by scanning a group's QR code, whose URL selects the group
with the short query parameter g. The legacy parameter group is still
honored for older printed codes:

	https://host/mobile?g=5
	https://host/mobile?group=5

# Validation

ParseFlags returns an error if required values are missing or malformed:

  - SERVER_URL must be provided
  - GROUP_ID and CAROUSEL_INTERVAL must be numeric when set
*/
package cliparse
