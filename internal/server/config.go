package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomz197/bomb-arena/internal/config"
	gameconfig "github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/contest"
)

// Config holds the tunables of the server.
type Config struct {
	Host string
	Port string

	// ServerName is sent to the clients in hello_ok.
	ServerName string

	// TimelineDir receives a timeline file per game. Recording is disabled
	// when empty.
	TimelineDir string
	// Database is the path of the sqlite database keeping the karma and the
	// finished games. Persistence is disabled when empty.
	Database string

	EnableKarma            bool
	InitialKarma           int
	DisconnectionKarma     int
	ShortGameKarma         int
	GoodBehaviorKarma      int
	KarmaBlacklistDuration time.Duration
	KarmaReviewInterval    time.Duration

	SessionCleanUpInterval time.Duration
	SessionRemovalDelay    time.Duration

	// EncounterRemovalDelay is how long a player waiting for a game stays
	// in the encounter without news.
	EncounterRemovalDelay      time.Duration
	MatchmakingCleanUpInterval time.Duration

	// DisconnectionInactivityDelay is how long a player can stay silent
	// during a game before being considered gone.
	DisconnectionInactivityDelay time.Duration
	// MaxShortGameDuration is the duration below which a game counts as
	// abandoned by the losers.
	MaxShortGameDuration time.Duration
	GameCleanUpInterval  time.Duration

	StatisticsTickInterval time.Duration

	BrickWallProbability int
	Features             gameconfig.Feature
	ArenaWidth           int
	ArenaHeight          int
}

// DefaultConfig returns the configuration used when the environment is
// empty.
func DefaultConfig() Config {
	return Config{
		Host:       "0.0.0.0",
		Port:       "23899",
		ServerName: "bomb-arena",

		EnableKarma:            true,
		InitialKarma:           10,
		DisconnectionKarma:     -5,
		ShortGameKarma:         -3,
		GoodBehaviorKarma:      1,
		KarmaBlacklistDuration: 30 * time.Minute,
		KarmaReviewInterval:    5 * time.Minute,

		SessionCleanUpInterval: time.Minute,
		SessionRemovalDelay:    10 * time.Minute,

		EncounterRemovalDelay:      time.Minute,
		MatchmakingCleanUpInterval: 3 * time.Minute,

		DisconnectionInactivityDelay: 5 * time.Second,
		MaxShortGameDuration:         30 * time.Second,
		GameCleanUpInterval:          time.Minute,

		StatisticsTickInterval: time.Minute,

		BrickWallProbability: gameconfig.DefaultBrickWallProbability,
		Features:             gameconfig.AllFeatures,
		ArenaWidth:           gameconfig.DefaultArenaWidth,
		ArenaHeight:          gameconfig.DefaultArenaHeight,
	}
}

// ConfigFromEnv reads the configuration from the BIM_* environment
// variables, falling back to DefaultConfig.
func ConfigFromEnv() Config {
	c := DefaultConfig()

	c.Host = config.GetEnv("BIM_HOST", c.Host)
	c.Port = config.GetEnv("BIM_PORT", c.Port)
	c.ServerName = config.GetEnv("BIM_SERVER_NAME", c.ServerName)
	c.TimelineDir = config.GetEnv("BIM_TIMELINE_DIR", c.TimelineDir)
	c.Database = config.GetEnv("BIM_DATABASE", c.Database)

	c.EnableKarma = config.GetEnvBool("BIM_ENABLE_KARMA", c.EnableKarma)
	c.InitialKarma = config.GetEnvInt("BIM_INITIAL_KARMA", c.InitialKarma)
	c.DisconnectionKarma = config.GetEnvInt("BIM_DISCONNECTION_KARMA", c.DisconnectionKarma)
	c.ShortGameKarma = config.GetEnvInt("BIM_SHORT_GAME_KARMA", c.ShortGameKarma)
	c.GoodBehaviorKarma = config.GetEnvInt("BIM_GOOD_BEHAVIOR_KARMA", c.GoodBehaviorKarma)
	c.KarmaBlacklistDuration = config.GetEnvDuration("BIM_KARMA_BLACKLIST_DURATION", c.KarmaBlacklistDuration)
	c.KarmaReviewInterval = config.GetEnvDuration("BIM_KARMA_REVIEW_INTERVAL", c.KarmaReviewInterval)

	c.SessionCleanUpInterval = config.GetEnvDuration("BIM_SESSION_CLEAN_UP_INTERVAL", c.SessionCleanUpInterval)
	c.SessionRemovalDelay = config.GetEnvDuration("BIM_SESSION_REMOVAL_DELAY", c.SessionRemovalDelay)

	c.DisconnectionInactivityDelay = config.GetEnvDuration("BIM_DISCONNECTION_INACTIVITY_DELAY", c.DisconnectionInactivityDelay)
	c.MaxShortGameDuration = config.GetEnvDuration("BIM_MAX_SHORT_GAME_DURATION", c.MaxShortGameDuration)

	c.BrickWallProbability = config.GetEnvInt("BIM_BRICK_WALL_PROBABILITY", c.BrickWallProbability)

	if list, ok := lookupList("BIM_FEATURES"); ok {
		features, unknown := gameconfig.ParseFeatures(list)
		if len(unknown) != 0 {
			logger.Warn("Ignoring unknown features.", "features", unknown)
		}
		c.Features = features
	}

	return c
}

func lookupList(key string) ([]string, bool) {
	const unset = "\x00"

	v := config.GetEnv(key, unset)
	if v == unset {
		return nil, false
	}

	list := strings.Split(v, ",")
	for i := range list {
		list[i] = strings.TrimSpace(list[i])
	}
	return list, true
}

// Addr returns the listening address of the server.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// Validate checks that games can be created with the configuration.
func (c Config) Validate() error {
	if c.ArenaWidth < 0 || c.ArenaWidth > 255 || c.ArenaHeight < 0 || c.ArenaHeight > 255 {
		return fmt.Errorf("arena %dx%d is too large", c.ArenaWidth, c.ArenaHeight)
	}
	if c.BrickWallProbability < 0 {
		return fmt.Errorf("invalid brick wall probability %d", c.BrickWallProbability)
	}

	fp := contest.Fingerprint{
		Features:             c.Features,
		PlayerCount:          2,
		BrickWallProbability: uint8(min(c.BrickWallProbability, 255)),
		ArenaWidth:           uint8(c.ArenaWidth),
		ArenaHeight:          uint8(c.ArenaHeight),
	}
	if err := fp.Validate(); err != nil {
		return err
	}

	if c.DisconnectionInactivityDelay <= 0 || c.SessionCleanUpInterval <= 0 ||
		c.MatchmakingCleanUpInterval <= 0 || c.GameCleanUpInterval <= 0 {
		return errors.New("clean-up delays must be positive")
	}
	if c.EnableKarma && c.KarmaReviewInterval <= 0 {
		return errors.New("karma review interval must be positive")
	}
	return nil
}
