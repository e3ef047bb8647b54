package reporting

import (
	"encoding/json"
	"sync/atomic"

	"github.com/sambabib/portability-analyzer/pkg/model"
)

// TargetUsageInfo counts calls to available and unavailable APIs for one
// target. The counters are safe for concurrent increment.
type TargetUsageInfo struct {
	available   atomic.Int64
	unavailable atomic.Int64
}

func (u *TargetUsageInfo) IncrementCallsToAvailableAPIs() { u.available.Add(1) }
func (u *TargetUsageInfo) IncrementCallsToUnavailableAPIs() { u.unavailable.Add(1) }

func (u *TargetUsageInfo) CallsToAvailableAPIs() int64 { return u.available.Load() }
func (u *TargetUsageInfo) CallsToUnavailableAPIs() int64 { return u.unavailable.Load() }

// PortabilityIndex is available / (available + unavailable), and 0 when no
// call was counted at all.
func (u *TargetUsageInfo) PortabilityIndex() float64 {
	available := u.available.Load()
	total := available + u.unavailable.Load()
	if total == 0 {
		return 0
	}
	return float64(available) / float64(total)
}

func (u *TargetUsageInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		CallsToAvailableAPIs   int64   `json:"callsToAvailableApis"`
		CallsToUnavailableAPIs int64   `json:"callsToUnavailableApis"`
		PortabilityIndex       float64 `json:"portabilityIndex"`
	}{u.CallsToAvailableAPIs(), u.CallsToUnavailableAPIs(), u.PortabilityIndex()})
}

// AssemblyUsageInfo holds one TargetUsageInfo per target for a source assembly.
type AssemblyUsageInfo struct {
	SourceAssembly model.AssemblyInfo `json:"sourceAssembly"`
	UsageData      []*TargetUsageInfo `json:"usageData"`
}

// NewAssemblyUsageInfo creates zeroed counters for targetCount targets.
func NewAssemblyUsageInfo(source model.AssemblyInfo, targetCount int) *AssemblyUsageInfo {
	u := &AssemblyUsageInfo{
		SourceAssembly: source,
		UsageData:      make([]*TargetUsageInfo, targetCount),
	}
	for i := range u.UsageData {
		u.UsageData[i] = &TargetUsageInfo{}
	}
	return u
}
