package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/dinkup/internal/api/sse"
	"github.com/mcoot/dinkup/internal/dependencies/mocks"
	"github.com/mcoot/dinkup/internal/services/auth"
	"github.com/mcoot/dinkup/internal/services/billing"
	"github.com/mcoot/dinkup/internal/services/notify"
	"github.com/mcoot/dinkup/internal/storage/memory"
	"github.com/mcoot/dinkup/internal/testutil"
)

// TestSecret signs tokens issued by a TestApp
const TestSecret = "test-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MockIDs   *mocks.MockIDs
	Recorder  *notify.Recorder
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockIDs := mocks.NewMockIDs()
	recorder := notify.NewRecorder()
	logger := testutil.NopLogger()
	hub := sse.NewHubManager(logger)

	authCfg := auth.DefaultConfig()
	authCfg.Secret = TestSecret
	authCfg.BcryptCost = bcrypt.MinCost

	cfg := Config{
		BillingConfig:  billing.DefaultConfig(),
		PayLinkBaseURL: "https://pay.example.com/",
	}
	app := newWithDependencies(store, mockClock, mockIDs, notify.Multi{recorder, hub}, hub, authCfg, cfg, logger)

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MockIDs:   mockIDs,
		Recorder:  recorder,
	}
}
