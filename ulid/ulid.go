// Package ulid creates the run ids attached to every selection.
package ulid

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	mathrand "math/rand"
	"sync"
	"time"

	oklid "github.com/oklog/ulid/v2"
	"go.ntppool.org/common/logger"
)

var (
	entropyOnce sync.Once
	entropyMu   sync.Mutex
	entropy     io.Reader
)

func monotonic() io.Reader {
	entropyOnce.Do(func() {
		var seed int64
		err := binary.Read(cryptorand.Reader, binary.BigEndian, &seed)
		if err != nil {
			logger.Setup().Error("crypto/rand error, using time seed", "err", err)
			seed = time.Now().UnixNano()
		}

		rand := mathrand.New(mathrand.NewSource(seed))
		entropy = oklid.Monotonic(rand, 0)
	})
	return entropy
}

// MakeULID returns a new id for time t. Ids made within the same
// millisecond increase monotonically.
func MakeULID(t time.Time) (oklid.ULID, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return oklid.New(oklid.Timestamp(t), monotonic())
}
