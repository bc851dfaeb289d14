package matching

import "testing"

func TestParseTitle(t *testing.T) {
	cases := []struct {
		name        string
		title       string
		versionInfo string
		wantBase    string
		wantVersion string
		wantType    VersionType
		wantRemixer string
	}{
		{
			name:     "plain title",
			title:    "Strings Of Life",
			wantBase: "Strings Of Life",
			wantType: VersionOriginal,
		},
		{
			name:        "named remix",
			title:       "Acperience 1 (Hardfloor Remix)",
			wantBase:    "Acperience 1",
			wantVersion: "Hardfloor Remix",
			wantType:    VersionRemix,
			wantRemixer: "Hardfloor",
		},
		{
			name:        "named mix",
			title:       "Sueno Latino (Derrick May Mix)",
			wantBase:    "Sueno Latino",
			wantVersion: "Derrick May Mix",
			wantType:    VersionRemix,
			wantRemixer: "Derrick May",
		},
		{
			name:     "original mix strips but carries no tag",
			title:    "Flash (Original Mix)",
			wantBase: "Flash",
			wantType: VersionOriginal,
		},
		{
			name:        "extended mix",
			title:       "Blue Monday (Extended Mix)",
			wantBase:    "Blue Monday",
			wantVersion: "Extended Mix",
			wantType:    VersionExtended,
		},
		{
			name:        "dub",
			title:       "King Of My Castle (Dub)",
			wantBase:    "King Of My Castle",
			wantVersion: "Dub",
			wantType:    VersionDub,
		},
		{
			name:        "radio edit",
			title:       "Around The World (Radio Edit)",
			wantBase:    "Around The World",
			wantVersion: "Radio Edit",
			wantType:    VersionRadio,
		},
		{
			name:        "unrecognized parenthetical",
			title:       "Jaguar (Part 2)",
			wantBase:    "Jaguar",
			wantVersion: "Part 2",
			wantType:    VersionOther,
		},
		{
			name:        "separate version field wins",
			title:       "Phylyps Trak",
			versionInfo: "Basic Reshape",
			wantBase:    "Phylyps Trak",
			wantVersion: "Basic Reshape",
			wantType:    VersionOther,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseTitle(tc.title, tc.versionInfo)
			if got.Base != tc.wantBase {
				t.Errorf("Base = %q, want %q", got.Base, tc.wantBase)
			}
			if got.Version != tc.wantVersion {
				t.Errorf("Version = %q, want %q", got.Version, tc.wantVersion)
			}
			if got.Type != tc.wantType {
				t.Errorf("Type = %v, want %v", got.Type, tc.wantType)
			}
			if got.Remixer != tc.wantRemixer {
				t.Errorf("Remixer = %q, want %q", got.Remixer, tc.wantRemixer)
			}
		})
	}
}

func TestAllowFallback(t *testing.T) {
	cases := []struct {
		title string
		want  bool
	}{
		{"Strings Of Life", true},
		{"Blue Monday (Extended Mix)", true},
		{"Acperience 1 (Hardfloor Remix)", false},
		{"King Of My Castle (Dub)", false},
		{"Energy Flash (Joey Beltram Edit)", false},
	}

	for _, tc := range cases {
		if got := ParseTitle(tc.title, "").AllowFallback(); got != tc.want {
			t.Errorf("AllowFallback(%q) = %v, want %v", tc.title, got, tc.want)
		}
	}
}

func TestVersionMatches(t *testing.T) {
	parsed := ParseTitle("Acperience 1 (Hardfloor Remix)", "")

	if !parsed.VersionMatches("Acperience 1 - Hardfloor Remix") {
		t.Error("exact version tag should match")
	}
	if !parsed.VersionMatches("Acperience 1 (Hardfloor Rework)") {
		t.Error("remixer name alone should match")
	}
	if parsed.VersionMatches("Acperience 1") {
		t.Error("untagged candidate should not match")
	}

	plain := ParseTitle("Strings Of Life", "")
	if plain.VersionMatches("Strings Of Life (Juan Atkins Remix)") {
		t.Error("untagged source never matches a version")
	}
}

func TestSearchTitle(t *testing.T) {
	if got := ParseTitle("Acperience 1 (Hardfloor Remix)", "").SearchTitle(); got != "Acperience 1 Hardfloor Remix" {
		t.Errorf("SearchTitle = %q", got)
	}
	if got := ParseTitle("Flash (Original Mix)", "").SearchTitle(); got != "Flash" {
		t.Errorf("SearchTitle = %q", got)
	}
}
