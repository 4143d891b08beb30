// SPDX-License-Identifier: MIT
package audio

func (e *Engine) EnableGate() {
	e.mu.Lock()
	e.gateEnabled = true
	e.mu.Unlock()
}

func (e *Engine) DisableGate() {
	e.mu.Lock()
	e.gateEnabled = false
	e.mu.Unlock()
}

// SetGateThreshold adjusts the noise gate threshold as a linear amplitude
// in [0, 1]; 0 passes everything but digital silence, 1 blocks everything.
func (e *Engine) SetGateThreshold(threshold float64) {
	e.mu.Lock()
	e.gateThreshold = clampUnit(threshold)
	e.mu.Unlock()
}

func (e *Engine) GateEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gateEnabled
}

func (e *Engine) GetGateThreshold() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gateThreshold
}
