// Package service composes the gateways into the read views the HTTP
// layer serves: the home aggregate, movie details, search and seatmaps.
package service

import "errors"

var (
	// ErrMovieNotFound is returned for an empty ledger slot or an unknown
	// catalog id.
	ErrMovieNotFound = errors.New("movie not found")
	// ErrShowtimeNotFound is returned for a showtime slot whose movie id is 0.
	ErrShowtimeNotFound = errors.New("showtime not found")
)
