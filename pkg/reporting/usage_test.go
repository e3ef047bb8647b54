package reporting

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetUsageInfo_PortabilityIndex(t *testing.T) {
	tests := []struct {
		name        string
		available   int
		unavailable int
		expected    float64
	}{
		{"no calls", 0, 0, 0},
		{"all available", 4, 0, 1},
		{"all unavailable", 0, 3, 0},
		{"mixed", 3, 1, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &TargetUsageInfo{}
			for i := 0; i < tt.available; i++ {
				u.IncrementCallsToAvailableAPIs()
			}
			for i := 0; i < tt.unavailable; i++ {
				u.IncrementCallsToUnavailableAPIs()
			}
			assert.Equal(t, int64(tt.available), u.CallsToAvailableAPIs())
			assert.Equal(t, int64(tt.unavailable), u.CallsToUnavailableAPIs())
			assert.InDelta(t, tt.expected, u.PortabilityIndex(), 1e-9)
		})
	}
}

func TestTargetUsageInfo_ConcurrentIncrements(t *testing.T) {
	u := &TargetUsageInfo{}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); u.IncrementCallsToAvailableAPIs() }()
		go func() { defer wg.Done(); u.IncrementCallsToUnavailableAPIs() }()
	}
	wg.Wait()

	assert.Equal(t, int64(100), u.CallsToAvailableAPIs())
	assert.Equal(t, int64(100), u.CallsToUnavailableAPIs())
	assert.InDelta(t, 0.5, u.PortabilityIndex(), 1e-9)
}

func TestNewAssemblyUsageInfo(t *testing.T) {
	u := NewAssemblyUsageInfo(assemblyA, 3)
	assert.Equal(t, assemblyA, u.SourceAssembly)
	assert.Len(t, u.UsageData, 3)
	for _, d := range u.UsageData {
		assert.NotNil(t, d)
		assert.Equal(t, float64(0), d.PortabilityIndex())
	}
}
