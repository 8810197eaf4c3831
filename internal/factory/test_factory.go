package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/humanbench/internal/dependencies/mocks"
	"github.com/mcoot/humanbench/internal/metrics"
	"github.com/mcoot/humanbench/internal/services/auth"
	"github.com/mcoot/humanbench/internal/storage/memory"
	"github.com/mcoot/humanbench/internal/testutil"
)

// TestSecret signs tokens issued by a TestApp
const TestSecret = "test-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock   *mocks.MockClock
	MockRandom  *mocks.MockRandom
	MockIDs     *mocks.MockIDs
	MemoryStore *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockIDs := mocks.NewMockIDs("id")

	cfg := Config{
		AuthConfig: auth.Config{
			Secret:     TestSecret,
			BcryptCost: bcrypt.MinCost,
		},
	}
	app := newWithDependencies(store, mockClock, mockRandom, mockIDs, metrics.New(), cfg, testutil.NopLogger())

	return &TestApp{
		App:         app,
		MockClock:   mockClock,
		MockRandom:  mockRandom,
		MockIDs:     mockIDs,
		MemoryStore: store,
	}
}
