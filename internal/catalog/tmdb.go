package catalog

import "github.com/iliyamo/cinecrypto/internal/model"

// Wire shapes of the TMDB-style API.  Only the fields this module reads
// are declared.

type movieDTO struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Overview     string     `json:"overview"`
	VoteAverage  float64    `json:"vote_average"`
	ReleaseDate  string     `json:"release_date"`
	PosterPath   string     `json:"poster_path"`
	BackdropPath string     `json:"backdrop_path"`
	GenreIDs     []int64    `json:"genre_ids"`
	Runtime      int        `json:"runtime"`
	Genres       []genreDTO `json:"genres"`
	Credits      *struct {
		Cast []castDTO `json:"cast"`
	} `json:"credits"`
	Videos *struct {
		Results []videoDTO `json:"results"`
	} `json:"videos"`
}

type pageDTO struct {
	Page    int        `json:"page"`
	Results []movieDTO `json:"results"`
}

type genreDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type genreListDTO struct {
	Genres []genreDTO `json:"genres"`
}

type castDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
}

type videoDTO struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Site string `json:"site"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// maxCast bounds the credits kept on a detail fetch.
const maxCast = 10

func (c *Client) shape(d movieDTO) model.CatalogMovie {
	m := model.CatalogMovie{
		CatalogID:    d.ID,
		Title:        d.Title,
		Overview:     d.Overview,
		Rating:       d.VoteAverage,
		ReleaseDate:  d.ReleaseDate,
		PosterPath:   d.PosterPath,
		BackdropPath: d.BackdropPath,
		PosterURL:    imageURL(c.imageBase, d.PosterPath),
		BackdropURL:  imageURL(c.backdropBase, d.BackdropPath),
		GenreIDs:     d.GenreIDs,
		Runtime:      d.Runtime,
	}
	for _, g := range d.Genres {
		m.Genres = append(m.Genres, model.Genre{ID: g.ID, Name: g.Name})
	}
	if d.Credits != nil {
		for i, cm := range d.Credits.Cast {
			if i == maxCast {
				break
			}
			m.Cast = append(m.Cast, model.CastMember{
				ID:          cm.ID,
				Name:        cm.Name,
				Character:   cm.Character,
				ProfilePath: imageURL(c.imageBase, cm.ProfilePath),
			})
		}
	}
	if d.Videos != nil {
		for _, v := range d.Videos.Results {
			m.Videos = append(m.Videos, model.Video{ID: v.ID, Key: v.Key, Site: v.Site, Type: v.Type, Name: v.Name})
		}
	}
	return m
}

// imageURL prefixes a path fragment with the CDN base.  Empty fragments
// stay empty so the client can show a placeholder.
func imageURL(base, path string) string {
	if path == "" {
		return ""
	}
	if path[0] != '/' {
		path = "/" + path
	}
	return base + path
}
