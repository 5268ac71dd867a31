// Package guard flips the process into test mode when imported for side effects.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("COURSEPILOT_TEST_MODE") == "" {
			_ = os.Setenv("COURSEPILOT_TEST_MODE", "1")
		}
	})
}
