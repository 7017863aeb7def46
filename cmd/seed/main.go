// Seeds a demo class so the API has something to show: a small concept
// chain, three students, and enough evidence to light up every mastery
// level and a couple of gap insights.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/conceptlens/backend/internal/domain/concept"
	"github.com/conceptlens/backend/internal/domain/evidence"
	"github.com/conceptlens/backend/internal/domain/student"
	"github.com/conceptlens/backend/internal/service"
	"github.com/conceptlens/backend/internal/store"
)

type session struct {
	answer      string
	correctness evidence.Correctness
	seconds     int
	confidence  int
}

func main() {
	_ = godotenv.Load()
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "conceptlens.db"
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := store.NewSQLite(dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	analysisSvc := service.NewAnalysisService(db, logger)
	ctx := context.Background()

	counting := mustConcept(logger, "Counting", nil)
	equivalent := mustConcept(logger, "Equivalent Fractions", []string{counting.ID})
	adding := mustConcept(logger, "Adding Fractions", []string{equivalent.ID})
	for _, c := range []*concept.Concept{counting, equivalent, adding} {
		if err := db.SaveConcept(ctx, c); err != nil {
			logger.Error("failed to save concept", "name", c.Name, "error", err)
			os.Exit(1)
		}
	}

	students := map[string]*student.Student{}
	for _, name := range []string{"Maya", "Amir", "Zoe"} {
		st, err := student.New(name, "class-7a")
		if err != nil {
			logger.Error("failed to create student", "name", name, "error", err)
			os.Exit(1)
		}
		if err := db.SaveStudent(ctx, st); err != nil {
			logger.Error("failed to save student", "name", name, "error", err)
			os.Exit(1)
		}
		students[name] = st
	}

	// Maya: steady and correct, confidence tracking results
	maya := []session{
		{"both fractions share a denominator because they are equivalent", evidence.Correct, 50, 4},
		{"multiplied top and bottom by the same number since value is unchanged", evidence.Correct, 45, 4},
		{"scaled both fractions to twelfths because the denominators differ", evidence.Correct, 40, 5},
	}

	// Amir: confidently wrong, repeating the same mistake
	amir := []session{
		{"added the numerators and the denominators", evidence.Incorrect, 30, 5},
		{"add the numerators and the denominators", evidence.Incorrect, 25, 5},
		{"added numerators and the denominators", evidence.Incorrect, 20, 4},
	}

	// Zoe: right answers, no faith in them
	zoe := []session{
		{"1/2 plus 1/4 is 3/4", evidence.Correct, 90, 2},
		{"2/3 plus 1/6 is 5/6", evidence.Correct, 110, 1},
	}

	base := time.Now().UTC().Add(-72 * time.Hour)
	seed := map[string][]session{"Maya": maya, "Amir": amir, "Zoe": zoe}
	for name, sessions := range seed {
		st := students[name]
		for i, s := range sessions {
			ev, err := evidence.NewBuilder(st.ID, adding.ID).
				Thinking(s.answer, s.seconds, 1, s.correctness).
				Reflection("", "", s.confidence).
				Application(s.answer, s.seconds/2, s.correctness).
				At(base.Add(time.Duration(i) * time.Hour)).
				Finalize()
			if err != nil {
				logger.Error("failed to build evidence", "student", name, "error", err)
				os.Exit(1)
			}

			result, err := analysisSvc.CaptureEvidence(ctx, ev)
			if err != nil {
				logger.Error("failed to capture evidence", "student", name, "error", err)
				os.Exit(1)
			}
			logger.Info("seeded session",
				"student", name,
				"score", result.Mastery.Score,
				"level", result.Mastery.Level,
				"new_insights", len(result.NewInsights),
			)
		}
	}

	logger.Info("seed complete", "class_id", "class-7a", "db", dbPath)
}

func mustConcept(logger *slog.Logger, name string, prereqs []string) *concept.Concept {
	c, err := concept.New(name, prereqs)
	if err != nil {
		logger.Error("failed to create concept", "name", name, "error", err)
		os.Exit(1)
	}
	return c
}
