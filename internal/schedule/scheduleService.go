package schedule

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/dusk/internal/models"
)

type Resolver struct {
	logger *log.Logger
}

func NewResolver(logger *log.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve returns the previous and next transitions around now.
// When force is false and last is still usable, the schedule is moved on incrementally,
// otherwise (or if the incremental result fails the sanity check) it is recomputed in full.
func (r *Resolver) Resolve(mode models.Mode, now time.Time, src Source, force bool, last Resolution) Resolution {

	windows := windowsFor(mode, src)
	if windows == nil {
		// constant mode, nothing to transition between
		return Resolution{}
	}

	if !force && !last.Pair.IsZero() {
		res := last
		if !now.Before(res.Pair.Next.Start) {
			res = resolveNext(windows, last)
		}
		if IsValid(res, now) {
			r.logger.Debug("Moved schedule on", "previous", res.Pair.Previous.Start, "next", res.Pair.Next.Start, "daylight", res.Daylight)
			return res
		}
		r.logger.Debug("Schedule failed the sanity check, recalculating", "now", now)
	}

	res := resolveFull(windows, now)
	r.logger.Info("Calculated transitions",
		"mode", mode,
		"previous", res.Pair.Previous.Start.Format("2006-01-02 15:04"),
		"next", res.Pair.Next.Start.Format("2006-01-02 15:04"),
		"daylight", res.Daylight,
	)
	return res
}
