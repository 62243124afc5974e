package compare

import (
	"errors"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"satview/internal/raster"
)

// Bins is the number of histogram bins over the 8-bit range
const Bins = 50

var (
	ErrSizeMismatch = errors.New("images differ in size")
	ErrMissingImage = errors.New("both images are required")
)

// ChannelNames label the three buffer channels
var ChannelNames = [3]string{"red", "green", "blue"}

// Histogram counts samples in Bins equal-width bins over [0, 256)
type Histogram []int

func histogram(samples []float64) Histogram {
	h := make(Histogram, Bins)
	for _, v := range samples {
		bin := int(v * Bins / 256)
		if bin < 0 {
			bin = 0
		} else if bin >= Bins {
			bin = Bins - 1
		}
		h[bin]++
	}
	return h
}

// Total is the number of counted samples
func (h Histogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// Channel holds the statistics of one channel across both images
type Channel struct {
	Name         string    `json:"name"`
	OriginalMean float64   `json:"originalMean"`
	ResultMean   float64   `json:"resultMean"`
	Delta        float64   `json:"delta"`
	Original     Histogram `json:"originalHistogram"`
	Result       Histogram `json:"resultHistogram"`
	// Difference statistics are empty when the sizes differ
	DifferenceMean float64   `json:"differenceMean"`
	Difference     Histogram `json:"differenceHistogram,omitempty"`
}

// Report is the comparison of an original image against a result image
type Report struct {
	Channels [3]Channel `json:"channels"`
	// Difference is the per-channel |result - original|, nil when the sizes differ
	Difference *raster.Buffer `json:"-"`
	Note       string         `json:"note,omitempty"`
}

// Compare computes means, deltas and histograms for both buffers and, when
// they share a size, the absolute difference. The difference takes the
// original's georeferencing, or the result's if the original has none.
func Compare(original, result *raster.Buffer) (*Report, error) {
	if original == nil || result == nil {
		return nil, ErrMissingImage
	}
	if len(original.Pix) == 0 || len(result.Pix) == 0 {
		return nil, raster.ErrEmptyRaster
	}

	report := &Report{}
	sameSize := original.SameSize(result)
	if sameSize {
		report.Difference = raster.NewBuffer(original.Width, original.Height)
		report.Difference.Geo = original.Geo
		if report.Difference.Geo == nil {
			report.Difference.Geo = result.Geo
		}
	} else {
		report.Note = fmt.Sprintf("%v: %dx%d vs %dx%d, difference skipped", ErrSizeMismatch,
			original.Width, original.Height, result.Width, result.Height)
	}

	for c := 0; c < 3; c++ {
		a, b := original.Channel(c), result.Channel(c)
		ma, err := stats.Mean(a)
		if err != nil {
			return nil, fmt.Errorf("%s mean: %w", ChannelNames[c], err)
		}
		mb, err := stats.Mean(b)
		if err != nil {
			return nil, fmt.Errorf("%s mean: %w", ChannelNames[c], err)
		}

		ch := Channel{
			Name:         ChannelNames[c],
			OriginalMean: ma,
			ResultMean:   mb,
			Delta:        mb - ma,
			Original:     histogram(a),
			Result:       histogram(b),
		}

		if sameSize {
			diff := make([]float64, len(a))
			for i := range a {
				d := math.Abs(b[i] - a[i])
				diff[i] = d
				report.Difference.Pix[3*i+c] = uint8(d)
			}
			if ch.DifferenceMean, err = stats.Mean(diff); err != nil {
				return nil, fmt.Errorf("%s difference mean: %w", ChannelNames[c], err)
			}
			ch.Difference = histogram(diff)
		}
		report.Channels[c] = ch
	}
	return report, nil
}
