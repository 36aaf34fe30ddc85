package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("HRDESK_TEST_MODE", "1")
		if os.Getenv("TOKEN_TTL") == "" {
			_ = os.Setenv("TOKEN_TTL", "1h")
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
