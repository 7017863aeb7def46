// Package analytics rolls per-student mastery and evidence up into the
// class-level summaries teachers see: weakest concepts, time-on-task
// compared to the class, and confidence calibration.
package analytics

import (
	"sort"
	"time"

	"github.com/conceptlens/backend/internal/domain/evidence"
	"github.com/conceptlens/backend/internal/domain/mastery"
)

// Calibration classifies how well a student's self-ratings track their
// actual results.
type Calibration string

const (
	WellCalibrated Calibration = "well_calibrated"
	Overconfident  Calibration = "overconfident"
	Underconfident Calibration = "underconfident"
)

// Behavior time-ratio thresholds relative to the class average.
const (
	strugglingTimeRatio = 1.5
	rushingTimeRatio    = 0.5
	behaviorMasteryCap  = 60
)

// StudentData is one student's inputs to the aggregation.
type StudentData struct {
	StudentID string
	Name      string
	Mastery   []mastery.ConceptMastery
	Evidence  []evidence.Evidence
}

// ConceptSummary is one concept's standing across the class.
type ConceptSummary struct {
	ConceptID    string
	AverageScore float64
	StudentCount int
}

// StudentSummary is the per-student slice of the class report.
type StudentSummary struct {
	StudentID      string
	Name           string
	AverageScore   float64
	AverageSeconds float64
	Struggling     bool
	Rushing        bool
	Calibration    Calibration
}

// ClassReport is the teacher-facing rollup. Building it has no side
// effects; it is recomputed (or cached) on demand.
type ClassReport struct {
	GeneratedAt         time.Time
	ClassAverageSeconds float64
	WeakestConcepts     []ConceptSummary
	Students            []StudentSummary
}

// BuildClassReport aggregates the class's mastery rows and evidence.
// Students with no evidence contribute nothing to the class time average
// and carry no behavior flags.
func BuildClassReport(students []StudentData, now time.Time) ClassReport {
	report := ClassReport{GeneratedAt: now}

	report.WeakestConcepts = weakestConcepts(students)

	// Class average time is the mean of per-student averages, so one
	// prolific student cannot drown out the rest.
	perStudentAvg := make(map[string]float64, len(students))
	timed := 0
	totalOfAverages := 0.0
	for _, s := range students {
		if len(s.Evidence) == 0 {
			continue
		}
		sum := 0
		for _, ev := range s.Evidence {
			sum += ev.TotalSeconds()
		}
		avg := float64(sum) / float64(len(s.Evidence))
		perStudentAvg[s.StudentID] = avg
		totalOfAverages += avg
		timed++
	}
	if timed > 0 {
		report.ClassAverageSeconds = totalOfAverages / float64(timed)
	}

	for _, s := range students {
		summary := StudentSummary{
			StudentID:      s.StudentID,
			Name:           s.Name,
			AverageScore:   averageMastery(s.Mastery),
			AverageSeconds: perStudentAvg[s.StudentID],
			Calibration:    classifyCalibration(s.Evidence),
		}

		if len(s.Evidence) > 0 && report.ClassAverageSeconds > 0 && summary.AverageScore < behaviorMasteryCap {
			ratio := summary.AverageSeconds / report.ClassAverageSeconds
			summary.Struggling = ratio > strugglingTimeRatio
			summary.Rushing = ratio < rushingTimeRatio
		}

		report.Students = append(report.Students, summary)
	}

	return report
}

func averageMastery(rows []mastery.ConceptMastery) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0
	for _, m := range rows {
		sum += m.Score
	}
	return float64(sum) / float64(len(rows))
}

// weakestConcepts ranks concepts by ascending mean mastery across the
// students that have a row for them.
func weakestConcepts(students []StudentData) []ConceptSummary {
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, s := range students {
		for _, m := range s.Mastery {
			sums[m.ConceptID] += m.Score
			counts[m.ConceptID]++
		}
	}

	summaries := make([]ConceptSummary, 0, len(sums))
	for conceptID, sum := range sums {
		summaries = append(summaries, ConceptSummary{
			ConceptID:    conceptID,
			AverageScore: float64(sum) / float64(counts[conceptID]),
			StudentCount: counts[conceptID],
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].AverageScore != summaries[j].AverageScore {
			return summaries[i].AverageScore < summaries[j].AverageScore
		}
		return summaries[i].ConceptID < summaries[j].ConceptID
	})
	return summaries
}

// classifyCalibration looks for a strict majority pattern across a
// student's evidence. Ties and mixed patterns default to well_calibrated.
func classifyCalibration(history []evidence.Evidence) Calibration {
	if len(history) == 0 {
		return WellCalibrated
	}

	confidentCorrect := 0
	confidentIncorrect := 0
	hesitantCorrect := 0
	for _, ev := range history {
		switch {
		case ev.Confidence >= 4 && ev.HasCorrectAnswer():
			confidentCorrect++
		case ev.Confidence >= 4 && ev.HasIncorrectAnswer():
			confidentIncorrect++
		case ev.Confidence <= 2 && ev.HasCorrectAnswer():
			hesitantCorrect++
		}
	}

	half := float64(len(history)) / 2
	switch {
	case float64(confidentIncorrect) > half:
		return Overconfident
	case float64(hesitantCorrect) > half:
		return Underconfident
	default:
		return WellCalibrated
	}
}
