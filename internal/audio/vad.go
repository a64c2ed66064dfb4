package audio

import "time"

// updateVoiceLocked applies the voice-activity hysteresis for one level
// sample. A level above threshold starts or extends the active interval;
// a level below threshold clears the state only once the elapsed active
// duration exceeds the minimum — a debounce, not an immediate drop.
//
// Caller must hold p.mu.
func (p *Processor) updateVoiceLocked(level float64, now time.Time) {
	if level > p.voiceThreshold {
		if !p.state.VoiceDetected {
			p.state.VoiceDetected = true
			p.state.VoiceStart = now
		}
		p.state.VoiceDuration = now.Sub(p.state.VoiceStart)
		return
	}

	if p.state.VoiceDetected && now.Sub(p.state.VoiceStart) > p.voiceDuration {
		p.state.VoiceDetected = false
		p.state.VoiceDuration = 0
	}
}
