package lib_test

import (
	"regexp"
	"sync"
	"testing"

	"aldoge_server/lib"

	"github.com/stretchr/testify/assert"
)

var orderNumberRe = regexp.MustCompile(`^AD-[A-Z0-9]{6}$`)

func TestGenerateOrderNumber_Format(t *testing.T) {
	for range 20 {
		assert.Regexp(t, orderNumberRe, lib.GenerateOrderNumber())
	}
}

func TestGenerateOrderNumber_ConcurrentBurstsAreIndependent(t *testing.T) {
	const n = 64

	var wg sync.WaitGroup
	results := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = lib.GenerateOrderNumber()
		}()
	}
	wg.Wait()

	// Same-instant callers must not all collapse onto one value, which is
	// what a per-call time-seeded source produced under bursts.
	distinct := make(map[string]bool, n)
	for _, r := range results {
		assert.Regexp(t, orderNumberRe, r)
		distinct[r] = true
	}
	assert.Greater(t, len(distinct), n/2)
}
