package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("HELMSMAN_TEST_MODE") == "" {
			_ = os.Setenv("HELMSMAN_TEST_MODE", "1")
		}
	})
}
