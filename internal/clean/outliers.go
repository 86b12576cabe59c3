package clean

import (
	"math"
	"sort"

	"github.com/Fanfan0315/Horisation/internal/table"
)

// outlier is one flagged value: its index in the input slice and the
// bound it crossed, used when clipping.
type outlier struct {
	index int
	bound float64
}

// minOutlierSample is the fewest numbers a column needs before any value
// can be judged against the rest.
const minOutlierSample = 3

// zscoreOutliers flags values whose deleted-residual z-score exceeds k:
// each value is measured against the mean and sample standard deviation
// of the other values. Values whose peers have no spread are not judged.
func zscoreOutliers(nums []float64, k float64) []outlier {
	n := float64(len(nums))
	if len(nums) < minOutlierSample {
		return nil
	}

	m := mean(nums)
	ss := 0.0
	for _, x := range nums {
		ss += (x - m) * (x - m)
	}

	var out []outlier
	for i, x := range nums {
		d := x - m
		// Sum of squares of the other n-1 values.
		rest := ss - d*d*n/(n-1)
		if rest <= 1e-12*(ss+1) {
			continue
		}
		restMean := (n*m - x) / (n - 1)
		restSD := math.Sqrt(rest / (n - 2))
		if math.Abs(x-restMean)/restSD <= k {
			continue
		}
		bound := restMean + k*restSD
		if x < restMean {
			bound = restMean - k*restSD
		}
		out = append(out, outlier{index: i, bound: bound})
	}
	return out
}

// iqrOutliers flags values outside [q1 - k*iqr, q3 + k*iqr], with
// quartiles linearly interpolated.
func iqrOutliers(nums []float64, k float64) []outlier {
	if len(nums) < minOutlierSample {
		return nil
	}
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	q1, q3 := quantile(sorted, 0.25), quantile(sorted, 0.75)
	lo, hi := q1-k*(q3-q1), q3+k*(q3-q1)

	var out []outlier
	for i, x := range nums {
		switch {
		case x < lo:
			out = append(out, outlier{index: i, bound: lo})
		case x > hi:
			out = append(out, outlier{index: i, bound: hi})
		}
	}
	return out
}

func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// handleOutliers detects outliers per numeric column and replaces them
// according to outlier_replace, or only records them for "flag". Rows are
// never removed.
func (r *run) handleOutliers() bool {
	detect := zscoreOutliers
	if r.opts.OutlierMethod == "iqr" {
		detect = iqrOutliers
	}

	found := false
	for j, c := range r.t.Columns {
		if r.t.Type(c) != table.TypeNumeric {
			continue
		}

		var rows []int
		var nums []float64
		for i, row := range r.t.Rows {
			if f, ok := row[j].Float(); ok {
				rows = append(rows, i)
				nums = append(nums, f)
			}
		}

		outliers := detect(nums, r.opts.OutlierThreshold)
		if len(outliers) == 0 {
			continue
		}
		found = true

		var fill table.Value
		switch r.opts.OutlierReplace {
		case "median":
			fill = table.Number(median(nums))
		case "mean":
			fill = table.Number(mean(nums))
		}

		for _, o := range outliers {
			i := rows[o.index]
			switch r.opts.OutlierReplace {
			case "median", "mean":
				r.t.Rows[i][j] = fill
			case "null":
				r.t.Rows[i][j] = table.Null()
			case "clip":
				r.t.Rows[i][j] = table.Number(o.bound)
			}
			r.flagged = append(r.flagged, CellFlag{
				Row:    i,
				Column: c,
				Value:  nums[o.index],
				Action: r.opts.OutlierReplace,
			})
		}
	}
	return found
}
