package pipeline

import (
	"github.com/banshee-data/pathsense/internal/store"
)

// Summary condenses the session for the run-summaries store. source
// names the frame origin, e.g. a replay file or "live".
func (p *Pipeline) Summary(source string) store.Summary {
	st := p.Stats()
	return store.Summary{
		SessionID:      st.SessionID,
		Source:         source,
		Started:        st.Started,
		Ended:          p.clock.Now(),
		FramesAccepted: st.Governor.Accepted,
		FramesDropped:  st.Governor.Dropped,
		ScoreThreshold: st.Governor.ScoreThreshold,
		MeanLatency:    st.Governor.MeanLatency,
		Warnings:       st.Dispatched,
	}
}
