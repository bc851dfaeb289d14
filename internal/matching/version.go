package matching

import (
	"regexp"
	"strings"
)

// VersionType categorizes the version/remix tag of a track title.
type VersionType int

const (
	VersionOriginal VersionType = iota
	VersionRemix
	VersionEdit
	VersionDub
	VersionExtended
	VersionRadio
	VersionInstrumental
	VersionAcapella
	VersionRemaster
	VersionLive
	VersionOther
)

func (v VersionType) String() string {
	switch v {
	case VersionOriginal:
		return "original"
	case VersionRemix:
		return "remix"
	case VersionEdit:
		return "edit"
	case VersionDub:
		return "dub"
	case VersionExtended:
		return "extended"
	case VersionRadio:
		return "radio"
	case VersionInstrumental:
		return "instrumental"
	case VersionAcapella:
		return "acapella"
	case VersionRemaster:
		return "remaster"
	case VersionLive:
		return "live"
	default:
		return "other"
	}
}

type versionPattern struct {
	re    *regexp.Regexp
	vtype VersionType
}

// Ordered most-specific first; the first match wins. Capture group 1, when
// present, holds the remixer name.
var versionPatterns = []versionPattern{
	{regexp.MustCompile(`(?i)\(extended\s+mix\)`), VersionExtended},
	{regexp.MustCompile(`(?i)\(extended\s+version\)`), VersionExtended},
	{regexp.MustCompile(`(?i)\(extended\)`), VersionExtended},
	{regexp.MustCompile(`(?i)\(original\s+mix\)`), VersionOriginal},
	{regexp.MustCompile(`(?i)\(original\s+version\)`), VersionOriginal},
	{regexp.MustCompile(`(?i)\(original\)`), VersionOriginal},
	{regexp.MustCompile(`(?i)\(radio\s+edit\)`), VersionRadio},
	{regexp.MustCompile(`(?i)\(radio\s+mix\)`), VersionRadio},
	{regexp.MustCompile(`(?i)\(radio\s+version\)`), VersionRadio},
	{regexp.MustCompile(`(?i)\(instrumental\s+mix\)`), VersionInstrumental},
	{regexp.MustCompile(`(?i)\(instrumental\)`), VersionInstrumental},
	{regexp.MustCompile(`(?i)\(acapella\)`), VersionAcapella},
	{regexp.MustCompile(`(?i)\(a\s*cappella\)`), VersionAcapella},
	{regexp.MustCompile(`(?i)\(remaster(?:ed)?\s*(?:\d{4})?\)`), VersionRemaster},
	{regexp.MustCompile(`(?i)\(live(?:\s+[^)]+)?\)`), VersionLive},
	{regexp.MustCompile(`(?i)\(dub\)`), VersionDub},
	{regexp.MustCompile(`(?i)\(rework\)`), VersionEdit},
	{regexp.MustCompile(`(?i)\(bootleg\)`), VersionEdit},
	{regexp.MustCompile(`(?i)\(vip\s+mix\)`), VersionEdit},
	{regexp.MustCompile(`(?i)\(vip\)`), VersionEdit},
	{regexp.MustCompile(`(?i)\(([^)]+)\s+remix\)`), VersionRemix},
	{regexp.MustCompile(`(?i)\(([^)]+)\s+edit\)`), VersionEdit},
	{regexp.MustCompile(`(?i)\(([^)]+)\s+dub\)`), VersionDub},
	{regexp.MustCompile(`(?i)\(([^)]+)\s+mix\)`), VersionRemix},
}

var parenRe = regexp.MustCompile(`\(([^)]+)\)`)

// ParsedTitle holds the components of a track title after version-tag
// extraction.
type ParsedTitle struct {
	Base    string // title without the version tag
	Version string // version/remix label, e.g. "Hardfloor Remix"
	Type    VersionType
	Remixer string // remixer name when the tag names one
	Full    string // the original title
}

// ParseTitle splits a track title into base title and version tag. When
// versionInfo is supplied (Discogs sometimes reports the mix name in a
// separate field) it takes precedence over anything parsed from the title.
func ParseTitle(title, versionInfo string) ParsedTitle {
	parsed := ParsedTitle{Base: strings.TrimSpace(title), Full: title, Type: VersionOriginal}

	matched := false
	for _, p := range versionPatterns {
		loc := p.re.FindStringSubmatchIndex(title)
		if loc == nil {
			continue
		}
		matched = true
		parsed.Type = p.vtype
		parsed.Version = strings.Trim(title[loc[0]:loc[1]], "() ")
		if len(loc) >= 4 && loc[2] >= 0 {
			parsed.Remixer = strings.TrimSpace(title[loc[2]:loc[3]])
		}
		parsed.Base = strings.TrimSpace(title[:loc[0]] + title[loc[1]:])
		break
	}

	// An explicit original-mix tag names the default recording, not a
	// distinct version: strip it from the base but require nothing of
	// candidates.
	if parsed.Type == VersionOriginal {
		parsed.Version = ""
		parsed.Remixer = ""
	}

	if !matched && parsed.Version == "" {
		if m := parenRe.FindStringSubmatchIndex(title); m != nil {
			parsed.Version = title[m[2]:m[3]]
			parsed.Type = VersionOther
			parsed.Base = strings.TrimSpace(title[:m[0]])
		}
	}

	if versionInfo != "" {
		parsed.Version = versionInfo
		if parsed.Type == VersionOriginal {
			parsed.Type = VersionOther
		}
	}

	return parsed
}

// HasVersion reports whether the title carries a version/remix tag.
func (p ParsedTitle) HasVersion() bool { return p.Version != "" }

// SearchTitle returns the title text to use in a platform search query.
func (p ParsedTitle) SearchTitle() string {
	if p.Version != "" {
		return p.Base + " " + p.Version
	}
	return p.Base
}

// AllowFallback reports whether a search without the version tag is
// acceptable. Remixes, dubs, and edits are distinct recordings; matching
// their original mixes would put the wrong track in the playlist.
func (p ParsedTitle) AllowFallback() bool {
	switch p.Type {
	case VersionRemix, VersionDub, VersionEdit:
		return false
	default:
		return true
	}
}

// VersionMatches reports whether the candidate title carries this track's
// version tag (or at least its remixer's name).
func (p ParsedTitle) VersionMatches(candidateTitle string) bool {
	if p.Version == "" {
		return false
	}
	candidate := strings.ToLower(candidateTitle)
	if strings.Contains(candidate, strings.ToLower(p.Version)) {
		return true
	}
	return p.Remixer != "" && strings.Contains(candidate, strings.ToLower(p.Remixer))
}
