package analytics_test

import (
	"testing"
	"time"

	"github.com/conceptlens/backend/internal/domain/analytics"
	"github.com/conceptlens/backend/internal/domain/evidence"
	"github.com/conceptlens/backend/internal/domain/mastery"
)

func timedEvidence(seconds int, c evidence.Correctness, confidence int) evidence.Evidence {
	return evidence.Evidence{
		ThinkingSeconds:        seconds / 2,
		ApplicationSeconds:     seconds - seconds/2,
		ThinkingCorrectness:    c,
		ApplicationCorrectness: c,
		Confidence:             confidence,
	}
}

func masteryRow(conceptID string, score int) mastery.ConceptMastery {
	return mastery.ConceptMastery{ConceptID: conceptID, Score: score}
}

func TestBuildClassReport_WeakestConcepts(t *testing.T) {
	students := []analytics.StudentData{
		{
			StudentID: "s1",
			Mastery:   []mastery.ConceptMastery{masteryRow("fractions", 30), masteryRow("decimals", 80)},
		},
		{
			StudentID: "s2",
			Mastery:   []mastery.ConceptMastery{masteryRow("fractions", 50), masteryRow("decimals", 90)},
		},
	}

	report := analytics.BuildClassReport(students, time.Now())

	if len(report.WeakestConcepts) != 2 {
		t.Fatalf("expected 2 concept summaries, got %d", len(report.WeakestConcepts))
	}
	if report.WeakestConcepts[0].ConceptID != "fractions" {
		t.Errorf("expected fractions first (weakest), got %s", report.WeakestConcepts[0].ConceptID)
	}
	if report.WeakestConcepts[0].AverageScore != 40 {
		t.Errorf("expected mean 40 for fractions, got %v", report.WeakestConcepts[0].AverageScore)
	}
	if report.WeakestConcepts[1].AverageScore != 85 {
		t.Errorf("expected mean 85 for decimals, got %v", report.WeakestConcepts[1].AverageScore)
	}
}

func TestBuildClassReport_ClassAverageSeconds(t *testing.T) {
	students := []analytics.StudentData{
		{
			StudentID: "s1",
			Evidence:  []evidence.Evidence{timedEvidence(100, evidence.Correct, 3), timedEvidence(200, evidence.Correct, 3)},
		},
		{
			StudentID: "s2",
			Evidence:  []evidence.Evidence{timedEvidence(50, evidence.Correct, 3)},
		},
		{
			// no evidence: excluded from the class time average
			StudentID: "s3",
		},
	}

	report := analytics.BuildClassReport(students, time.Now())

	// mean of per-student averages: (150 + 50) / 2 = 100
	if report.ClassAverageSeconds != 100 {
		t.Errorf("expected class average 100s, got %v", report.ClassAverageSeconds)
	}
}

func TestBuildClassReport_StrugglingFlag(t *testing.T) {
	students := []analytics.StudentData{
		{
			StudentID: "slow",
			Mastery:   []mastery.ConceptMastery{masteryRow("c", 40)},
			Evidence:  []evidence.Evidence{timedEvidence(400, evidence.Incorrect, 3)},
		},
		{
			StudentID: "baseline",
			Mastery:   []mastery.ConceptMastery{masteryRow("c", 80)},
			Evidence:  []evidence.Evidence{timedEvidence(100, evidence.Correct, 3)},
		},
	}

	report := analytics.BuildClassReport(students, time.Now())

	// class average = (400 + 100)/2 = 250; slow is 400 > 1.5*250 with mastery 40
	var slow, baseline *analytics.StudentSummary
	for i := range report.Students {
		switch report.Students[i].StudentID {
		case "slow":
			slow = &report.Students[i]
		case "baseline":
			baseline = &report.Students[i]
		}
	}

	if slow == nil || !slow.Struggling {
		t.Error("expected slow low-mastery student to be flagged struggling")
	}
	if slow.Rushing {
		t.Error("struggling student must not also be rushing")
	}
	if baseline.Struggling || baseline.Rushing {
		t.Error("high-mastery student should carry no behavior flags")
	}
}

func TestBuildClassReport_RushingFlag(t *testing.T) {
	students := []analytics.StudentData{
		{
			StudentID: "fast",
			Mastery:   []mastery.ConceptMastery{masteryRow("c", 30)},
			Evidence:  []evidence.Evidence{timedEvidence(20, evidence.Incorrect, 3)},
		},
		{
			StudentID: "baseline",
			Mastery:   []mastery.ConceptMastery{masteryRow("c", 80)},
			Evidence:  []evidence.Evidence{timedEvidence(200, evidence.Correct, 3)},
		},
	}

	report := analytics.BuildClassReport(students, time.Now())

	// class average = (20 + 200)/2 = 110; fast is 20 < 0.5*110 with mastery 30
	for _, s := range report.Students {
		if s.StudentID == "fast" && !s.Rushing {
			t.Error("expected fast low-mastery student to be flagged rushing")
		}
	}
}

func TestBuildClassReport_Calibration(t *testing.T) {
	tests := []struct {
		name    string
		history []evidence.Evidence
		want    analytics.Calibration
	}{
		{
			name: "overconfident majority",
			history: []evidence.Evidence{
				timedEvidence(10, evidence.Incorrect, 5),
				timedEvidence(10, evidence.Incorrect, 4),
				timedEvidence(10, evidence.Correct, 3),
			},
			want: analytics.Overconfident,
		},
		{
			name: "underconfident majority",
			history: []evidence.Evidence{
				timedEvidence(10, evidence.Correct, 1),
				timedEvidence(10, evidence.Correct, 2),
				timedEvidence(10, evidence.Incorrect, 3),
			},
			want: analytics.Underconfident,
		},
		{
			name: "confident and correct",
			history: []evidence.Evidence{
				timedEvidence(10, evidence.Correct, 5),
				timedEvidence(10, evidence.Correct, 4),
			},
			want: analytics.WellCalibrated,
		},
		{
			name: "exact tie defaults to well calibrated",
			history: []evidence.Evidence{
				timedEvidence(10, evidence.Incorrect, 5),
				timedEvidence(10, evidence.Correct, 1),
			},
			want: analytics.WellCalibrated,
		},
		{
			name:    "no evidence",
			history: nil,
			want:    analytics.WellCalibrated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := analytics.BuildClassReport([]analytics.StudentData{
				{StudentID: "s", Evidence: tt.history},
			}, time.Now())
			if got := report.Students[0].Calibration; got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
