package factory

import (
	"time"

	"github.com/mcoot/scopa-go/internal/cards"
	"github.com/mcoot/scopa-go/internal/dependencies/mocks"
	"github.com/mcoot/scopa-go/internal/storage/memory"
	"github.com/mcoot/scopa-go/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App talking to serverURL with in-memory storage
// and mocked dependencies
func NewTestApp(serverURL string) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, cards.DefaultCatalog(""), Config{
		ServerURL: serverURL,
	}, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
