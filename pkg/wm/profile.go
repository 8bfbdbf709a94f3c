package wm

import "strings"

// DimensionProfile is the default geometry and auto-height policy for a
// content type.
type DimensionProfile struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	AutoHeight bool `json:"auto_height"`
	MinHeight  int  `json:"min_height"`
	MaxHeight  int  `json:"max_height"`
}

// UniversalProfile applies to every content type without a named override,
// including all dynamic applications.
var UniversalProfile = DimensionProfile{
	Width:      600,
	Height:     500,
	AutoHeight: true,
	MinHeight:  400,
	MaxHeight:  800,
}

// Profiles maps content-type keys to dimension profiles.
type Profiles struct {
	fallback DimensionProfile
	named    map[string]DimensionProfile
}

// DefaultProfiles returns the universal fallback plus the browser and
// calculator overrides.
func DefaultProfiles() *Profiles {
	p := NewProfiles(UniversalProfile)
	p.Set("browser", DimensionProfile{Width: 800, Height: 600, AutoHeight: true, MinHeight: 500, MaxHeight: 900})
	p.Set("calculator", DimensionProfile{Width: 320, Height: 480, AutoHeight: false, MinHeight: 400, MaxHeight: 600})
	return p
}

// NewProfiles creates a lookup with only the given fallback.
func NewProfiles(fallback DimensionProfile) *Profiles {
	return &Profiles{
		fallback: fallback,
		named:    make(map[string]DimensionProfile),
	}
}

// Set registers a named override. Keys are case-insensitive.
func (p *Profiles) Set(key string, profile DimensionProfile) {
	p.named[strings.ToLower(key)] = profile
}

// Lookup returns the profile for key, or the fallback.
func (p *Profiles) Lookup(key string) DimensionProfile {
	if profile, ok := p.named[strings.ToLower(key)]; ok {
		return profile
	}
	return p.fallback
}

// Fallback returns the universal profile.
func (p *Profiles) Fallback() DimensionProfile {
	return p.fallback
}
