// Package matching implements the fuzzy track-matching scorer used to map a
// Discogs track onto a platform search candidate.
//
// Matching is deterministic and rule-based: normalized text similarity for
// artist and title, a verified-artist component where the platform's flag is
// trustworthy, log-normalized popularity, and a version/remix component that
// treats remix tags as first-class tokens instead of noise. Scoring is pure,
// does no I/O, and always lands in [0, 1].
package matching
