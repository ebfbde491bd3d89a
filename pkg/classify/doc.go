// Package classify turns the progress output of a media downloader into
// structured status events.
//
// Output is consumed chunk by chunk. Each chunk is matched against an ordered
// rule set; the first rule that matches produces exactly one Event and no
// further rules are tried. Chunks matching no rule are dropped silently.
//
// # Rules
//
// The default rules, in priority order:
//
//  1. "WARNING: ...: msg"                      → warning
//  2. "ERROR: ...: msg"                        → error
//  3. "... already been downloaded"            → already_exists
//  4. "[download] Destination: path"           → location
//  5. "[download] P% of ~SMiB at VMiB/s ETA E (frag ...)" → progress
//  6. "[download] Downloading playlist: name"  → starting_playlist
//  7. "[download] Downloading item I of N"     → playlist_index
//
// Captured fields are kept as raw text. Nothing is parsed as a number.
//
// # Chunks
//
// A chunk ends at "\n", "\r\n" or a lone "\r". A logical line split across
// chunks in any other way fails to match and is dropped; no reassembly is
// attempted.
package classify
