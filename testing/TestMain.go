package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

// testDefaults lets packages load app.Config without a real environment.
var testDefaults = map[string]string{
	"CSRF_SECRET": "test-csrf-secret",
	"JWT_SECRET":  "test-jwt-secret",
}

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("COURSEPILOT_TEST_MODE", "1")
		for key, value := range testDefaults {
			if os.Getenv(key) == "" {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
