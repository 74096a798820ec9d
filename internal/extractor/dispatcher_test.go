package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"underwriter/internal/extractor"
)

type stubExtractor struct {
	name       string
	applicable bool
	panics     bool
}

func (s *stubExtractor) Name() string { return s.name }

func (s *stubExtractor) CanHandle(content, filename string) (bool, float64) {
	if s.applicable {
		return true, 1.0
	}
	return false, 0.0
}

func (s *stubExtractor) Extract(content string) *extractor.Result {
	if s.panics {
		panic("boom")
	}
	return &extractor.Result{Extractor: s.name, Success: true}
}

func TestDispatcher_Run_SkipsInapplicable(t *testing.T) {
	d := extractor.NewDispatcher(
		&stubExtractor{name: "a", applicable: true},
		&stubExtractor{name: "b", applicable: false},
		&stubExtractor{name: "c", applicable: true},
	)

	results := d.Run("content", "file.pdf")

	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Extractor)
	assert.Equal(t, "c", results[1].Extractor)
}

func TestDispatcher_Run_NoApplicableExtractor(t *testing.T) {
	d := extractor.NewDispatcher(&stubExtractor{name: "a", applicable: false})

	results := d.Run("content", "file.pdf")

	assert.Empty(t, results)
}

// A panicking extractor must not take down the others; it yields a failed
// result of its own.
func TestDispatcher_Run_IsolatesPanic(t *testing.T) {
	d := extractor.NewDispatcher(
		&stubExtractor{name: "panicky", applicable: true, panics: true},
		&stubExtractor{name: "steady", applicable: true},
	)

	results := d.Run("content", "file.pdf")

	require.Len(t, results, 2)

	assert.Equal(t, "panicky", results[0].Extractor)
	assert.False(t, results[0].Success)
	require.Len(t, results[0].ValidationErrors, 1)
	assert.Contains(t, results[0].ValidationErrors[0], "extraction error")

	assert.Equal(t, "steady", results[1].Extractor)
	assert.True(t, results[1].Success)
}

func TestNewDefaultDispatcher_RentRoll(t *testing.T) {
	d := extractor.NewDefaultDispatcher(nil)

	results := d.Run(rentRollText(), "rent_roll.pdf")

	require.NotEmpty(t, results)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Extractor)
	}
	assert.Contains(t, names, "rent_roll")
}
