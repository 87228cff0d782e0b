package seatcodec

// Layout is the seat grid shared by every screen.
type Layout struct {
	SeatsPerRow int
}

// NewLayout returns a Layout; a non-positive width uses DefaultSeatsPerRow.
func NewLayout(seatsPerRow int) Layout {
	if seatsPerRow <= 0 {
		seatsPerRow = DefaultSeatsPerRow
	}
	return Layout{SeatsPerRow: seatsPerRow}
}

// Label formats seat with this layout's row width.
func (l Layout) Label(seat int) string { return Label(seat, l.SeatsPerRow) }

// Cell is one seat position in a rendered grid.
type Cell struct {
	Number int    `json:"number"`
	Label  string `json:"label"`
	Taken  bool   `json:"taken"`
}

// Row is one lettered row of cells.  The last row may be shorter than
// SeatsPerRow.
type Row struct {
	Label string `json:"label"`
	Seats []Cell `json:"seats"`
}

// Grid lays out seats 1..totalSeats row by row and marks sold ones.
func (l Layout) Grid(totalSeats int, taken Taken) []Row {
	if totalSeats <= 0 {
		return nil
	}
	per := l.SeatsPerRow
	if per <= 0 {
		per = DefaultSeatsPerRow
	}
	rows := make([]Row, 0, (totalSeats+per-1)/per)
	for start := 1; start <= totalSeats; start += per {
		row := Row{Label: RowLetter((start - 1) / per)}
		for seat := start; seat < start+per && seat <= totalSeats; seat++ {
			row.Seats = append(row.Seats, Cell{Number: seat, Label: Label(seat, per), Taken: taken.Has(seat)})
		}
		rows = append(rows, row)
	}
	return rows
}
