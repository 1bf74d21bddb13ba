package cliparse

import (
	"errors"
	"flag"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerURL        string
	PushURL          string
	StatePath        string
	GroupID          int
	CarouselInterval time.Duration
	BaseWidth        float64
	BaseHeight       float64
}

// ParseFlags validates flags and resolves configuration
func ParseFlags(args []string) (Config, error) {
	// A missing .env file is fine; explicit env always wins over it.
	_ = godotenv.Load()

	var cfg Config
	var intervalSec int
	var entryURL string

	fs := flag.NewFlagSet("crowdjudge", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.StringVar(&cfg.ServerURL, "s", "", "Evaluation server base URL")
	fs.StringVar(&cfg.PushURL, "ws", "", "Push channel URL (default derived from -s)")

	// Local state
	fs.StringVar(&cfg.StatePath, "d", "", "Client state database path")

	// Entry point: direct group id, or a scanned entry URL carrying one
	fs.IntVar(&cfg.GroupID, "g", 0, "Group id to open the voting flow for")
	fs.StringVar(&entryURL, "u", "", "Entry URL whose query selects the group")

	// Stage tuning
	fs.IntVar(&intervalSec, "i", 0, "Carousel rotation interval in seconds")
	fs.Float64Var(&cfg.BaseWidth, "base-w", 0, "Stage design width")
	fs.Float64Var(&cfg.BaseHeight, "base-h", 0, "Stage design height")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.ServerURL == "" {
		cfg.ServerURL = os.Getenv("SERVER_URL")
	}
	if cfg.ServerURL == "" {
		return Config{}, errors.New("server URL required (use -s or SERVER_URL env)")
	}

	if cfg.PushURL == "" {
		cfg.PushURL = os.Getenv("PUSH_URL")
	}
	if cfg.PushURL == "" {
		cfg.PushURL = derivePushURL(cfg.ServerURL)
	}

	if cfg.StatePath == "" {
		cfg.StatePath = os.Getenv("STATE_PATH")
		if cfg.StatePath == "" {
			cfg.StatePath = "crowdjudge.db" // default
		}
	}

	if cfg.GroupID == 0 {
		if idStr := os.Getenv("GROUP_ID"); idStr != "" {
			id, err := strconv.Atoi(idStr)
			if err != nil {
				return Config{}, errors.New("invalid GROUP_ID env variable")
			}
			cfg.GroupID = id
		}
	}
	if cfg.GroupID == 0 && entryURL != "" {
		u, err := url.Parse(entryURL)
		if err != nil {
			return Config{}, errors.New("invalid entry URL")
		}
		cfg.GroupID = EntryGroupID(u.Query())
	}

	if intervalSec == 0 {
		if s := os.Getenv("CAROUSEL_INTERVAL"); s != "" {
			sec, err := strconv.Atoi(s)
			if err != nil || sec < 1 {
				return Config{}, errors.New("invalid CAROUSEL_INTERVAL env variable")
			}
			intervalSec = sec
		} else {
			intervalSec = 5 // default
		}
	}
	cfg.CarouselInterval = time.Duration(intervalSec) * time.Second

	if cfg.BaseWidth == 0 {
		cfg.BaseWidth = 1920
	}
	if cfg.BaseHeight == 0 {
		cfg.BaseHeight = 1080
	}

	return cfg, nil
}

// EntryGroupID extracts the group id from an entry URL's query: the current
// short form "g", then the legacy "group" parameter. 0 means none.
func EntryGroupID(query url.Values) int {
	for _, key := range []string{"g", "group"} {
		if raw := query.Get(key); raw != "" {
			if id, err := strconv.Atoi(raw); err == nil && id > 0 {
				return id
			}
		}
	}
	return 0
}

// derivePushURL maps the HTTP base to its websocket endpoint.
func derivePushURL(serverURL string) string {
	u, err := url.Parse(serverURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String()
}
