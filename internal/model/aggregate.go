package model

import "time"

// Aggregate is the home-screen read model.  It is persisted as a single
// JSON record; Timestamp is the build time in milliseconds since epoch.
type Aggregate struct {
    BookableMovies []Movie `json:"bookableMovies"`
    PopularMovies  []Movie `json:"popularMovies"`
    UpcomingMovies []Movie `json:"upcomingMovies"`
    Genres         []Genre `json:"genres"`
    Timestamp      int64   `json:"timestamp"`
}

// BuiltAt returns Timestamp as a time.Time.
func (a Aggregate) BuiltAt() time.Time { return time.UnixMilli(a.Timestamp) }

// FreshAt reports whether the aggregate is still valid at now for ttl:
// now - Timestamp < ttl.
func (a Aggregate) FreshAt(now time.Time, ttl time.Duration) bool {
    if a.Timestamp <= 0 {
        return false
    }
    return now.Sub(a.BuiltAt()) < ttl
}

// AllGenre is prepended to the catalog genre list.
var AllGenre = Genre{ID: 0, Name: "All"}
