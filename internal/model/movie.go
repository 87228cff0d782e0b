package model

// OnChainMovie is a movie record as stored on the ledger.  The ledger only
// knows the numeric id, the title and whether the movie can be booked.
//
// Fields:
//  ID       – ledger movie id (ids start at 1; 0 marks an empty slot).
//  Title    – title as entered by the contract admin.
//  IsActive – whether showtimes of this movie are bookable.
type OnChainMovie struct {
    ID       uint64 `json:"id"`
    Title    string `json:"title"`
    IsActive bool   `json:"isActive"`
}

// Genre is a catalog genre.  Id 0 is the synthetic "All" entry.
type Genre struct {
    ID   int64  `json:"id"`
    Name string `json:"name"`
}

// CastMember is one credited actor of a catalog movie.
type CastMember struct {
    ID          int64  `json:"id"`
    Name        string `json:"name"`
    Character   string `json:"character,omitempty"`
    ProfilePath string `json:"profilePath,omitempty"`
}

// Video is a catalog video reference (trailers, teasers).
type Video struct {
    ID   string `json:"id"`
    Key  string `json:"key"`
    Site string `json:"site"`
    Type string `json:"type"`
    Name string `json:"name,omitempty"`
}

// CatalogMovie is an immutable snapshot fetched from the catalog service.
// Runtime, Genres, Cast and Videos are only present on detail fetches.
// PosterURL and BackdropURL are derived by the gateway from the path
// fragments and the image CDN base.
type CatalogMovie struct {
    CatalogID    int64        `json:"catalogId"`
    Title        string       `json:"title"`
    Overview     string       `json:"overview"`
    Rating       float64      `json:"rating"`
    ReleaseDate  string       `json:"releaseDate,omitempty"`
    PosterPath   string       `json:"posterPath,omitempty"`
    BackdropPath string       `json:"backdropPath,omitempty"`
    PosterURL    string       `json:"posterUrl,omitempty"`
    BackdropURL  string       `json:"backdropUrl,omitempty"`
    GenreIDs     []int64      `json:"genreIds,omitempty"`
    Runtime      int          `json:"runtime,omitempty"`
    Genres       []Genre      `json:"genres,omitempty"`
    Cast         []CastMember `json:"cast,omitempty"`
    Videos       []Video      `json:"videos,omitempty"`
}

// Movie is the merged view the screens render.  LocalID is the ledger id
// when IsBookable, otherwise the catalog id.  GroupedShowtimes is only
// ever set on bookable movies.
type Movie struct {
    LocalID              uint64          `json:"localId"`
    CatalogID            int64           `json:"catalogId,omitempty"`
    Title                string          `json:"title"`
    IsBookable           bool            `json:"isBookable"`
    Overview             string          `json:"overview,omitempty"`
    Rating               float64         `json:"rating,omitempty"`
    PosterURL            string          `json:"posterUrl,omitempty"`
    BackdropURL          string          `json:"backdropUrl,omitempty"`
    ReleaseDate          string          `json:"releaseDate,omitempty"`
    ReleaseDateFormatted string          `json:"releaseDateFormatted,omitempty"`
    GenreIDs             []int64         `json:"genreIds,omitempty"`
    Genres               []Genre         `json:"genres,omitempty"`
    Runtime              int             `json:"runtime,omitempty"`
    Cast                 []CastMember    `json:"cast,omitempty"`
    TrailerKey           string          `json:"trailerKey,omitempty"`
    GroupedShowtimes     []ShowtimeGroup `json:"groupedShowtimes,omitempty"`
}

// HasCatalogMatch reports whether catalog metadata was joined.
func (m Movie) HasCatalogMatch() bool { return m.CatalogID != 0 }

// TrailerKey returns the key of the first YouTube trailer, or "".
func TrailerKey(videos []Video) string {
    for _, v := range videos {
        if v.Site == "YouTube" && v.Type == "Trailer" {
            return v.Key
        }
    }
    return ""
}
