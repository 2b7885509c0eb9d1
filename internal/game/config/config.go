// Package config centralizes all tunable game parameters.
package config

import "time"

// Simulation step.
const (
	TickRate     = 50
	TickInterval = time.Second / TickRate // 20ms, shared by every peer
)

// Players
const (
	MaxPlayerCount       = 4
	InitialBombCapacity  = 1
	InitialBombStrength  = 2
	MaxBombStrength      = 6
	PlayerStepsPerCell   = 8  // Movement per tick is 1/PlayerStepsPerCell cell
	PositionFractionBits = 4  // Fixed-point precision of player positions
	PositionOne          = 16 // 1 << PositionFractionBits
)

// Arena
const (
	DefaultArenaWidth           = 13
	DefaultArenaHeight          = 11
	DefaultBrickWallProbability = 80 // Percent of free cells receiving a brick wall
)

// Power-ups hidden under brick walls.
const (
	BombPowerUpCountInLevel         = 10
	FlamePowerUpCountInLevel        = 8
	InvisibilityPowerUpCountInLevel = 2
	ShieldPowerUpCountInLevel       = 2
)

// Durations
const (
	BombDuration          = 3 * time.Second
	FlameDuration         = 800 * time.Millisecond
	InvisibilityDuration  = 7000 * time.Millisecond
	InvincibilityDuration = 1500 * time.Millisecond
	GameDuration          = 3 * time.Minute
	ArenaReductionStart   = 2 * time.Minute // Delay before the first falling block
	FallingBlockDuration  = 500 * time.Millisecond
)

// Player animations.
const (
	BurnAnimationDuration = time.Second
	DieAnimationDuration  = 240 * time.Millisecond
)

// Fog of war
const (
	FogFullOpacity      = 255
	FogRollInDuration   = 300 * time.Millisecond
	FogRollInCellDelay  = 15 * time.Millisecond
	FogBlowDuration     = 100 * time.Millisecond
	FogRestoreDuration  = 200 * time.Millisecond
	FogHideDuration     = 100 * time.Millisecond
	FogFlamesMaxPlayers = 2 // Flames blow the fog only in games with at most this many players
)

// Feature is a bit in the feature mask of a contest.
type Feature uint32

const (
	FeatureFallingBlocks Feature = 1 << iota
	FeatureInvisibility
	FeatureFogOfWar
	FeatureShield

	// AllFeatures is the mask of every known feature.
	AllFeatures = FeatureFallingBlocks | FeatureInvisibility | FeatureFogOfWar | FeatureShield
)

// Has reports whether every bit of f is set in the mask.
func (m Feature) Has(f Feature) bool {
	return m&f == f
}

// String returns a readable list of the enabled features.
func (m Feature) String() string {
	if m == 0 {
		return "none"
	}

	s := ""
	for _, f := range []struct {
		bit  Feature
		name string
	}{
		{FeatureFallingBlocks, "falling_blocks"},
		{FeatureInvisibility, "invisibility"},
		{FeatureFogOfWar, "fog_of_war"},
		{FeatureShield, "shield"},
	} {
		if m.Has(f.bit) {
			if s != "" {
				s += ","
			}
			s += f.name
		}
	}
	return s
}

// ParseFeatures converts a comma-separated list of feature names into a mask.
// Unknown names are ignored and returned separately.
func ParseFeatures(list []string) (Feature, []string) {
	var (
		mask    Feature
		unknown []string
	)

	for _, name := range list {
		switch name {
		case "falling_blocks":
			mask |= FeatureFallingBlocks
		case "invisibility":
			mask |= FeatureInvisibility
		case "fog_of_war":
			mask |= FeatureFogOfWar
		case "shield":
			mask |= FeatureShield
		case "all":
			mask |= AllFeatures
		case "":
		default:
			unknown = append(unknown, name)
		}
	}

	return mask, unknown
}
