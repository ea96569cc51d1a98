// Package rscore estimates the R score (cote R) of a term from its course
// rows: per course R = 35 + 5·Z, averaged over courses weighted by credits.
package rscore

import (
	"sort"

	"omnigrade/internal"
	"omnigrade/internal/config"
	"omnigrade/internal/util"
)

const (
	base         = 35.0
	zWeight      = 5.0
	gainPoints   = 3.0
	maxGrade     = 100.0
	defaultCredit = 1.0
)

// Offsets shift the central R to the low and high ends of the estimate.
type Offsets struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func OffsetsFromConfig(cfg config.Config) Offsets {
	return Offsets{Min: cfg.ROffsetMin, Max: cfg.ROffsetMax}
}

type Course struct {
	CourseName string  `json:"courseName"`
	ClassCode  string  `json:"classCode"`
	Credits    float64 `json:"credits"`
	Scored     bool    `json:"scored"`
	Z          float64 `json:"z"`
	RCentral   float64 `json:"rCentral"`
	RMin       float64 `json:"rMin"`
	RMax       float64 `json:"rMax"`
	Importance float64 `json:"importance"`
	Gain       float64 `json:"gain"`
}

// Summary is the credit-weighted R of the scored courses. Central, Min and
// Max are nil when no course has grade, average and std dev.
type Summary struct {
	Courses      []Course `json:"courses"`
	TotalCredits float64  `json:"totalCredits"`
	Central      *float64 `json:"central"`
	Min          *float64 `json:"min"`
	Max          *float64 `json:"max"`
}

// Compute scores rows in order. Absent or non-positive credits count as 1.
// A course missing grade, average or std dev is listed but not scored.
func Compute(rows []internal.CourseRecord, off Offsets) Summary {
	s := Summary{Courses: make([]Course, 0, len(rows))}
	var allCredits, weighted float64
	for _, row := range rows {
		c := Course{CourseName: row.CourseName, ClassCode: row.ClassCode, Credits: effectiveCredits(row.Credits)}
		allCredits += c.Credits
		if row.YourGrade != nil && row.ClassAvg != nil && row.StdDev != nil {
			c.Scored = true
			c.Z = row.ZScore()
			c.RCentral = base + zWeight*c.Z
			c.RMin = c.RCentral + off.Min
			c.RMax = c.RCentral + off.Max
			c.Gain = zWeight * (boostedZ(row) - c.Z) * c.Credits
			s.TotalCredits += c.Credits
			weighted += c.RCentral * c.Credits
		}
		s.Courses = append(s.Courses, c)
	}

	for i, row := range rows {
		if row.StdDev != nil && *row.StdDev != 0 {
			s.Courses[i].Importance = (zWeight / *row.StdDev) * (s.Courses[i].Credits / allCredits)
		}
	}

	if s.TotalCredits > 0 {
		central := weighted / s.TotalCredits
		s.Central = util.FloatPtr(central)
		s.Min = util.FloatPtr(central + off.Min)
		s.Max = util.FloatPtr(central + off.Max)
	}
	return s
}

// TopGains ranks scored courses by the credit-weighted R they would gain
// from three more grade points, best first. Ties keep row order.
func TopGains(s Summary, n int) []Course {
	out := make([]Course, 0, len(s.Courses))
	for _, c := range s.Courses {
		if c.Scored {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Gain > out[j].Gain })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func boostedZ(row internal.CourseRecord) float64 {
	boosted := min(*row.YourGrade+gainPoints, maxGrade)
	row.YourGrade = &boosted
	return row.ZScore()
}

func effectiveCredits(v *float64) float64 {
	if v == nil || *v <= 0 {
		return defaultCredit
	}
	return *v
}
