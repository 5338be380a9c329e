// Package config loads the settings of an editing session.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority, applied by the caller
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← LAPCE_SECTION_KEY
//	├─────────────────────────────┤
//	│  2. Config File             │  ← TOML or YAML
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// File and environment layers are read into maps, merged, and decoded over
// the defaults, so keys a layer does not mention keep their lower value.
package config
