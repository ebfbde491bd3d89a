package classify

import "regexp"

// Rule recognizes one category of downloader output.
// Extract receives the submatches of Pattern, whole match first.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Extract func(groups []string) Event
}

// Patterns are unanchored. Greedy ".*" before ": *" binds the message to the
// text after the last colon. ETA and item index captures are lazy so the
// padding before "(frag" and "of" stays out of the field.
var (
	warningRe          = regexp.MustCompile(`WARNING:.*: *(.*)`)
	errorRe            = regexp.MustCompile(`ERROR:.*: *(.*)`)
	alreadyExistsRe    = regexp.MustCompile(`already *been *downloaded`)
	destinationRe      = regexp.MustCompile(`\[download\] *Destination: *(.*)`)
	progressRe         = regexp.MustCompile(`\[download\] *(.*)% *of *~ *(.*)MiB *at *(.*)MiB/s *ETA *(.*?) *\(frag *.*\)`)
	startingPlaylistRe = regexp.MustCompile(`\[download\] *Downloading *playlist: (.*)`)
	playlistIndexRe    = regexp.MustCompile(`\[download\] *Downloading *item (.*?) *of *(.*)`)
)

var defaultRules = []Rule{
	{
		Name:    TypeWarning,
		Pattern: warningRe,
		Extract: func(g []string) Event { return Warning{Message: g[1]} },
	},
	{
		Name:    TypeError,
		Pattern: errorRe,
		Extract: func(g []string) Event { return Error{Message: g[1]} },
	},
	{
		Name:    TypeAlreadyExists,
		Pattern: alreadyExistsRe,
		Extract: func([]string) Event { return AlreadyExists{} },
	},
	{
		Name:    TypeLocation,
		Pattern: destinationRe,
		Extract: func(g []string) Event { return Location{Location: g[1]} },
	},
	{
		Name:    TypeProgress,
		Pattern: progressRe,
		Extract: func(g []string) Event {
			return Progress{Percent: g[1], TotalSize: g[2], Speed: g[3], ETA: g[4]}
		},
	},
	{
		Name:    TypeStartingPlaylist,
		Pattern: startingPlaylistRe,
		Extract: func(g []string) Event { return StartingPlaylist{PlaylistName: g[1]} },
	},
	{
		Name:    TypePlaylistIndex,
		Pattern: playlistIndexRe,
		Extract: func(g []string) Event { return PlaylistIndex{Index: g[1], TotalIndex: g[2]} },
	},
}

// DefaultRules returns the downloader rule set in priority order.
// The returned slice is a copy; the compiled patterns are shared.
func DefaultRules() []Rule {
	rules := make([]Rule, len(defaultRules))
	copy(rules, defaultRules)
	return rules
}
