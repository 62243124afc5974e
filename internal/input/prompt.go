package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"satview/internal/geo"
)

// Prompter asks for coordinates and dates on a terminal, re-prompting until the
// values are well formed
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewPrompter creates a prompter reading from in and writing prompts to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out}
}

func (p *Prompter) ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// Point reads a latitude and longitude pair
func (p *Prompter) Point() (geo.Point, error) {
	for {
		latStr, err := p.ask("Enter latitude (e.g., 12.9716 for Bangalore): ")
		if err != nil {
			return geo.Point{}, err
		}
		lonStr, err := p.ask("Enter longitude (e.g., 77.5946 for Bangalore): ")
		if err != nil {
			return geo.Point{}, err
		}

		lat, latErr := ParseCoordinate(latStr)
		lon, lonErr := ParseCoordinate(lonStr)
		if latErr != nil || lonErr != nil {
			fmt.Fprintln(p.out, "Invalid coordinates! Please enter numeric values.")
			continue
		}
		point, err := geo.NewPoint(lat, lon)
		if err != nil {
			fmt.Fprintf(p.out, "Invalid coordinates! %v\n", err)
			continue
		}
		return point, nil
	}
}

// Dates reads a start and end date
func (p *Prompter) Dates() (DateRange, error) {
	fmt.Fprintln(p.out, "\nEnter date range (YYYY-MM-DD format):")
	for {
		start, err := p.ask("Start date (e.g., 2023-01-01): ")
		if err != nil {
			return DateRange{}, err
		}
		end, err := p.ask("End date (e.g., 2023-12-31): ")
		if err != nil {
			return DateRange{}, err
		}

		dates, err := NewDateRange(start, end)
		switch {
		case errors.Is(err, ErrEndBeforeStart):
			fmt.Fprintln(p.out, "Error: End date must be after start date.")
			continue
		case err != nil:
			fmt.Fprintln(p.out, "Invalid date format! Please use YYYY-MM-DD.")
			continue
		}
		return dates, nil
	}
}

// Request reads a full acquisition request
func (p *Prompter) Request() (Request, error) {
	fmt.Fprintln(p.out, "\n=== SATELLITE IMAGE DOWNLOAD TOOL ===")
	point, err := p.Point()
	if err != nil {
		return Request{}, err
	}
	dates, err := p.Dates()
	if err != nil {
		return Request{}, err
	}
	return Request{Point: point, Dates: dates}, nil
}
