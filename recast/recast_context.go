package recast

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// / Recast log categories.
// / @see RcContext
type RcLogCategory int

const (
	RC_LOG_PROGRESS RcLogCategory = iota + 1 ///< A progress log entry.
	RC_LOG_WARNING                           ///< A warning log entry.
	RC_LOG_ERROR                             ///< An error log entry.
)

// / Recast performance timer categories.
// / @see RcContext
type RcTimerLabel int

const (
	/// The user defined total time of the build.
	RC_TIMER_TOTAL RcTimerLabel = iota
	/// A user defined build time.
	RC_TIMER_TEMP
	/// The time to rasterize the triangles. (See: #RcRasterizeTriangles)
	RC_TIMER_RASTERIZE_TRIANGLES
	/// The time to build the compact heightfield. (See: #RcBuildCompactHeightfield)
	RC_TIMER_BUILD_COMPACTHEIGHTFIELD
	/// The total time to build the contours. (See: #RcBuildContours)
	RC_TIMER_BUILD_CONTOURS
	/// The time to trace the boundaries of the contours. (See: #RcBuildContours)
	RC_TIMER_BUILD_CONTOURS_TRACE
	/// The time to simplify the contours. (See: #RcBuildContours)
	RC_TIMER_BUILD_CONTOURS_SIMPLIFY
	/// The time to filter ledge spans. (See: #RcFilterLedgeSpans)
	RC_TIMER_FILTER_BORDER
	/// The time to filter low height spans. (See: #RcFilterWalkableLowHeightSpans)
	RC_TIMER_FILTER_WALKABLE
	/// The time to apply the median filter. (See: #RcMedianFilterWalkableArea)
	RC_TIMER_MEDIAN_AREA
	/// The time to filter low obstacles. (See: #RcFilterLowHangingWalkableObstacles)
	RC_TIMER_FILTER_LOW_OBSTACLES
	/// The time to build the polygon mesh. (See: #RcBuildPolyMesh)
	RC_TIMER_BUILD_POLYMESH
	/// The time to merge polygon meshes. (See: #RcMergePolyMeshes)
	RC_TIMER_MERGE_POLYMESH
	/// The time to erode the walkable area. (See: #RcErodeWalkableArea)
	RC_TIMER_ERODE_AREA
	/// The time to mark a box area. (See: #RcMarkBoxArea)
	RC_TIMER_MARK_BOX_AREA
	/// The time to mark a cylinder area. (See: #RcMarkCylinderArea)
	RC_TIMER_MARK_CYLINDER_AREA
	/// The time to mark a convex polygon area. (See: #RcMarkConvexPolyArea)
	RC_TIMER_MARK_CONVEXPOLY_AREA
	/// The total time to build the distance field. (See: #RcBuildDistanceField)
	RC_TIMER_BUILD_DISTANCEFIELD
	/// The time to build the distances of the distance field. (See: #RcBuildDistanceField)
	RC_TIMER_BUILD_DISTANCEFIELD_DIST
	/// The time to blur the distance field. (See: #RcBuildDistanceField)
	RC_TIMER_BUILD_DISTANCEFIELD_BLUR
	/// The total time to build the regions. (See: #RcBuildRegions, #RcBuildRegionsMonotone)
	RC_TIMER_BUILD_REGIONS
	/// The total time to apply the watershed algorithm. (See: #RcBuildRegions)
	RC_TIMER_BUILD_REGIONS_WATERSHED
	/// The time to expand regions while applying the watershed algorithm. (See: #RcBuildRegions)
	RC_TIMER_BUILD_REGIONS_EXPAND
	/// The time to flood regions while applying the watershed algorithm. (See: #RcBuildRegions)
	RC_TIMER_BUILD_REGIONS_FLOOD
	/// The time to filter out small regions. (See: #RcBuildRegions, #RcBuildRegionsMonotone)
	RC_TIMER_BUILD_REGIONS_FILTER
	/// The time to build heightfield layers. (See: #RcBuildHeightfieldLayers)
	RC_TIMER_BUILD_LAYERS
	/// The time to build the polygon mesh detail. (See: #RcBuildPolyMeshDetail)
	RC_TIMER_BUILD_POLYMESHDETAIL
	/// The time to merge polygon mesh details. (See: #RcMergePolyMeshDetails)
	RC_TIMER_MERGE_POLYMESHDETAIL
	/// The maximum number of timers.  (Used for iterating timers.)
	RC_MAX_TIMERS
)

var timerNames = [RC_MAX_TIMERS]string{
	"total", "temp", "rasterize_triangles", "build_compact_heightfield",
	"build_contours", "build_contours_trace", "build_contours_simplify",
	"filter_border", "filter_walkable", "median_area", "filter_low_obstacles",
	"build_polymesh", "merge_polymesh", "erode_area", "mark_box_area",
	"mark_cylinder_area", "mark_convexpoly_area", "build_distancefield",
	"build_distancefield_dist", "build_distancefield_blur", "build_regions",
	"build_regions_watershed", "build_regions_expand", "build_regions_flood",
	"build_regions_filter", "build_layers", "build_polymeshdetail",
	"merge_polymeshdetail",
}

func (l RcTimerLabel) String() string {
	if l < 0 || l >= RC_MAX_TIMERS {
		return fmt.Sprintf("timer(%d)", int(l))
	}
	return timerNames[l]
}

// / Provides an interface for optional logging and performance tracking of the Recast
// / build process.
// /
// / A nil *RcContext is valid and does nothing. A context must not be shared
// / between concurrent builds.
type RcContext struct {
	logger       *zap.Logger
	logEnabled   bool
	timerEnabled bool
	startTime    [RC_MAX_TIMERS]time.Time
	accTime      [RC_MAX_TIMERS]time.Duration
}

// NewRcContext returns a context logging to logger. A nil logger disables output.
func NewRcContext(logger *zap.Logger) *RcContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx := &RcContext{logger: logger, logEnabled: true, timerEnabled: true}
	ctx.ResetTimers()
	return ctx
}

func (ctx *RcContext) Logger() *zap.Logger {
	if ctx == nil {
		return zap.NewNop()
	}
	return ctx.logger
}

// / Enables or disables logging.
func (ctx *RcContext) EnableLog(state bool) {
	if ctx != nil {
		ctx.logEnabled = state
	}
}

// / Enables or disables the performance timers.
func (ctx *RcContext) EnableTimer(state bool) {
	if ctx != nil {
		ctx.timerEnabled = state
	}
}

// / Logs a message.
// / @param[in]		category	The category of the message.
// / @param[in]		format		The message.
func (ctx *RcContext) Log(category RcLogCategory, format string, args ...any) {
	if ctx == nil || !ctx.logEnabled {
		return
	}
	msg := fmt.Sprintf(format, args...)
	switch category {
	case RC_LOG_ERROR:
		ctx.logger.Error(msg)
	case RC_LOG_WARNING:
		ctx.logger.Warn(msg)
	default:
		ctx.logger.Info(msg)
	}
}

// / Clears all performance timers. (Resets all to unused.)
func (ctx *RcContext) ResetTimers() {
	if ctx == nil {
		return
	}
	for i := range ctx.accTime {
		ctx.accTime[i] = -1
	}
}

// / Starts the specified performance timer.
func (ctx *RcContext) StartTimer(label RcTimerLabel) {
	if ctx == nil || !ctx.timerEnabled {
		return
	}
	ctx.startTime[label] = time.Now()
}

// / Stops the specified performance timer.
func (ctx *RcContext) StopTimer(label RcTimerLabel) {
	if ctx == nil || !ctx.timerEnabled {
		return
	}
	delta := time.Since(ctx.startTime[label])
	if ctx.accTime[label] < 0 {
		ctx.accTime[label] = delta
	} else {
		ctx.accTime[label] += delta
	}
}

// ScopedTimer starts label and returns the matching stop, for use with defer.
func (ctx *RcContext) ScopedTimer(label RcTimerLabel) func() {
	ctx.StartTimer(label)
	return func() { ctx.StopTimer(label) }
}

// / Returns the total accumulated time of the specified performance timer.
// / @return The accumulated time of the timer, or -1 if timers are disabled or the timer has never been started.
func (ctx *RcContext) AccumulatedTime(label RcTimerLabel) time.Duration {
	if ctx == nil || !ctx.timerEnabled {
		return -1
	}
	return ctx.accTime[label]
}

// LogBuildTimes writes every started timer as a structured progress entry,
// with its share of RC_TIMER_TOTAL.
func (ctx *RcContext) LogBuildTimes() {
	if ctx == nil || !ctx.logEnabled || !ctx.timerEnabled {
		return
	}
	total := ctx.accTime[RC_TIMER_TOTAL]
	for label := RcTimerLabel(0); label < RC_MAX_TIMERS; label++ {
		t := ctx.accTime[label]
		if t <= 0 {
			continue
		}
		pc := 0.0
		if total > 0 {
			pc = float64(t) * 100 / float64(total)
		}
		ctx.logger.Info("build time",
			zap.Stringer("timer", label),
			zap.Duration("elapsed", t),
			zap.Float64("percent", pc))
	}
}
